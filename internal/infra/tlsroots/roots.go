package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrNoCertsFound is returned when a PEM file holds no certificates.
var ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM file")

// NewPool returns the system roots, or an empty pool where they are not
// available.
func NewPool() *x509.CertPool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		return x509.NewCertPool()
	}
	return pool
}

// AppendPEM adds every CERTIFICATE block in data to pool and returns the
// number added.
func AppendPEM(pool *x509.CertPool, data []byte) (int, error) {
	added := 0
	for len(data) > 0 {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return added, fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		pool.AddCert(cert)
		added++
	}
	if added == 0 {
		return 0, ErrNoCertsFound
	}
	return added, nil
}

// AppendPEMFile adds the certificates in path to pool.
func AppendPEMFile(pool *x509.CertPool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read %s: %w", path, err)
	}
	if _, err := AppendPEM(pool, data); err != nil {
		return fmt.Errorf("%w (%s)", err, path)
	}
	return nil
}

// ClientConfig returns a client config trusting the system roots plus the
// certificates in caFile, if set.
func ClientConfig(caFile string) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if caFile == "" {
		return cfg, nil
	}
	pool := NewPool()
	if err := AppendPEMFile(pool, caFile); err != nil {
		return nil, err
	}
	cfg.RootCAs = pool
	return cfg, nil
}

// ServerConfig returns a server config presenting the reloader's current
// certificate. When clientCAFile is set, clients must present a
// certificate signed by one of its CAs.
func ServerConfig(r *Reloader, clientCAFile string) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: r.GetCertificate,
	}
	if clientCAFile == "" {
		return cfg, nil
	}
	pool := x509.NewCertPool()
	if err := AppendPEMFile(pool, clientCAFile); err != nil {
		return nil, err
	}
	cfg.ClientCAs = pool
	cfg.ClientAuth = tls.RequireAndVerifyClientCert
	return cfg, nil
}
