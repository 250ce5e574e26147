/*
Package middleware provides the HTTP middleware chain of the quota server.

The chain is applied outermost first:

	Recovery -> RequestID -> Logging -> Throttle -> auth

Recovery turns handler panics into a 500 JSON error. RequestID assigns a
UUID (or keeps the caller's X-Request-ID) and stores it for log
correlation. Logging records one line and one set of Prometheus samples
per request, labelled with the chi route pattern rather than the raw path
so label cardinality stays bounded. Throttle caps the server-wide request
rate before any per-user limit is consulted.
*/
package middleware
