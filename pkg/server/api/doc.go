// Package api holds the JSON envelopes and error codes shared by the quota
// server's handlers and middleware.
//
// Successful responses are {"success":true,"data":...}. Failures are
// {"success":false,"error":"...","code":"..."}; limit declines extend the
// failure shape with the fields of enforcement.Body.
package api
