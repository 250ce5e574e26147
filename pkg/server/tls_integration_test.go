//go:build integration

package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postplanner-hq/quota/pkg/limits"
	"postplanner-hq/quota/pkg/limits/ratelimit"
	"postplanner-hq/quota/pkg/limits/storage"
	"postplanner-hq/quota/pkg/limits/tier"
	"postplanner-hq/quota/pkg/limits/usage"
	"postplanner-hq/quota/pkg/security/auth"
	tlssrv "postplanner-hq/quota/pkg/security/tls"
	"postplanner-hq/quota/pkg/telemetry/health"
)

// writeLocalhostCert writes a self-signed certificate for 127.0.0.1 and
// returns the cert path, key path and the parsed certificate.
func writeLocalhostCert(t *testing.T) (string, string, *x509.Certificate) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "quota-test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		IsCA:                  true,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	dir := t.TempDir()
	certFile := filepath.Join(dir, "server-cert.pem")
	keyFile := filepath.Join(dir, "server-key.pem")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))

	return certFile, keyFile, cert
}

// TestTLSServerIntegration serves the full router over TLS and authenticates
// with both an API key and a bearer token.
func TestTLSServerIntegration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	certFile, keyFile, cert := writeLocalhostCert(t)
	reloader := tlssrv.NewCertificateReloader(certFile, keyFile, 0, nil)
	require.NoError(t, reloader.Start(ctx))
	tlsConfig, err := tlssrv.ServerConfig(reloader, "1.2")
	require.NoError(t, err)

	registry, err := ratelimit.NewRegistry(map[string]ratelimit.Policy{
		"generate": {Interval: time.Minute, Limit: 1},
	})
	require.NoError(t, err)
	store := storage.NewMemoryStore()
	defer store.Close()
	gate, err := limits.NewGate(limits.GateConfig{Registry: registry, Tracker: usage.NewTracker(store)})
	require.NoError(t, err)

	verifier, err := auth.NewJWTVerifier("integration-secret", "", "")
	require.NoError(t, err)
	authenticator := auth.NewAuthenticator(auth.AuthenticatorConfig{
		Validator: auth.NewAPIKeyValidator([]*auth.APIKeyInfo{
			{Key: "pp_test_key", UserID: "user-key", Tier: tier.Starter, Enabled: true},
		}),
		Verifier: verifier,
		Sources:  []auth.APIKeySource{{Type: "header", Name: "X-API-Key"}},
	})

	handler := NewRouter(RouterConfig{
		Gate:          gate,
		Authenticator: authenticator,
		Health:        health.New(time.Second),
	})
	srv := New(testServerConfig(), handler, WithTLS(tlsConfig))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()
	select {
	case <-srv.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("server did not become ready")
	}

	pool := x509.NewCertPool()
	pool.AddCert(cert)
	client := &http.Client{
		Timeout:   2 * time.Second,
		Transport: &http.Transport{TLSClientConfig: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}},
	}
	base := "https://" + srv.Addr().String()

	resp, err := client.Get(base + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// API key
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/ratelimit/generate", nil)
	req.Header.Set("X-API-Key", "pp_test_key")
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Limit"))

	// Bearer token for another user gets its own window.
	token, err := verifier.Issue("user-jwt", tier.Pro, time.Minute)
	require.NoError(t, err)
	req, _ = http.NewRequest(http.MethodPost, base+"/v1/ratelimit/generate", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Second call for the key user is over the window.
	req, _ = http.NewRequest(http.MethodPost, base+"/v1/ratelimit/generate", nil)
	req.Header.Set("X-API-Key", "pp_test_key")
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
