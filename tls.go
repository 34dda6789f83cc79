package ldns

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/pkg/errors"
)

// TLSClientConfig builds the TLS configuration for DNS-over-TLS and DNS-over-HTTPS
// nameservers. If caFile is given, server certificates are verified against the
// CAs in it instead of the system pool.
func TLSClientConfig(caFile string) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}
	if caFile == "" {
		return tlsConfig, nil
	}
	b, err := os.ReadFile(caFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CA file")
	}
	certPool := x509.NewCertPool()
	if ok := certPool.AppendCertsFromPEM(b); !ok {
		return nil, errors.Errorf("no CA certificates found in %s", caFile)
	}
	tlsConfig.RootCAs = certPool
	return tlsConfig, nil
}
