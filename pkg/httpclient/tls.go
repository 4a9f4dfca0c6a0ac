package httpclient

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
)

// TLSConfig holds TLS configuration for outbound calls to the lexical
// index or embedding endpoint.
type TLSConfig struct {
	// InsecureSkipVerify disables TLS certificate verification.
	// WARNING: development/testing only.
	InsecureSkipVerify bool

	// CACertificate is the path to a custom CA certificate file, for
	// internal services with self-signed or corporate-CA certificates.
	CACertificate string
}

// ConfigureTLS builds an http.Transport from config. A nil config
// returns a plain transport with the system root CAs.
func ConfigureTLS(config *TLSConfig) (*http.Transport, error) {
	transport := &http.Transport{TLSClientConfig: &tls.Config{}}
	if config == nil {
		return transport, nil
	}

	if config.CACertificate != "" {
		caCert, err := os.ReadFile(config.CACertificate)
		if err != nil {
			return nil, fmt.Errorf("reading CA certificate from %s: %w", config.CACertificate, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("parsing CA certificate from %s", config.CACertificate)
		}
		transport.TLSClientConfig.RootCAs = pool
	}

	if config.InsecureSkipVerify {
		transport.TLSClientConfig.InsecureSkipVerify = true
	}

	return transport, nil
}
