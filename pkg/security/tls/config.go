package tls

import (
	"crypto/tls"
	"errors"
	"fmt"
)

// ErrNoReloader is returned when ServerConfig is called without a reloader.
var ErrNoReloader = errors.New("certificate reloader is required")

// ParseVersion converts "1.2" or "1.3" to the matching tls constant.
// The empty string means TLS 1.3. TLS 1.0 and 1.1 are rejected.
func ParseVersion(v string) (uint16, error) {
	switch v {
	case "1.3", "":
		return tls.VersionTLS13, nil
	case "1.2":
		return tls.VersionTLS12, nil
	default:
		return 0, fmt.Errorf("unsupported TLS version %q", v)
	}
}

// ServerConfig builds a server tls.Config that takes its certificate from
// reloader on every handshake.
func ServerConfig(reloader *CertificateReloader, minVersion string) (*tls.Config, error) {
	if reloader == nil {
		return nil, ErrNoReloader
	}

	version, err := ParseVersion(minVersion)
	if err != nil {
		return nil, err
	}

	// #nosec G402 - MinVersion is validated above, TLS 1.0/1.1 are rejected
	return &tls.Config{
		MinVersion:     version,
		GetCertificate: reloader.GetCertificateFunc(),
	}, nil
}
