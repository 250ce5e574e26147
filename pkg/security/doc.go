// Package security groups caller authentication (auth) and server TLS (tls)
// for the quota service.
package security
