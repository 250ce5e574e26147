/*
Package tls serves HTTPS for the quota server with certificates that are
reloaded from disk while the process runs.

# Usage

	reloader := tls.NewCertificateReloader(certFile, keyFile, 5*time.Minute, logger)
	if err := reloader.Start(ctx); err != nil {
		return err
	}

	tlsConfig, err := tls.ServerConfig(reloader, "1.3")
	if err != nil {
		return err
	}
	srv.TLSConfig = tlsConfig

Renewed certificates (for example from Let's Encrypt) are picked up on the
next reload tick without a restart. A certificate that fails to load or is
expired is logged and the previous one keeps serving.
*/
package tls
