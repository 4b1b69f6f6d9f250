package chassis

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"net"
	"time"
)

// ALPN protocols negotiated on the UDP port.
const (
	ALPNHTTP3 = "h3"
	ALPNMCP   = "templater-mcp-v1"
)

// TLSConfig loads certFile/keyFile, or generates a self-signed localhost
// certificate when both are empty. The config offers h3 and MCP over ALPN.
func TLSConfig(certFile, keyFile string) (*tls.Config, bool, error) {
	var (
		cert       tls.Certificate
		err        error
		selfSigned bool
	)
	switch {
	case certFile != "" && keyFile != "":
		cert, err = tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, false, fmt.Errorf("load TLS cert: %w", err)
		}
	case certFile == "" && keyFile == "":
		cert, err = selfSignedCert(time.Now())
		if err != nil {
			return nil, false, fmt.Errorf("generate dev TLS: %w", err)
		}
		selfSigned = true
	default:
		return nil, false, fmt.Errorf("TLS needs both cert and key files")
	}
	return &tls.Config{
		MinVersion:   tls.VersionTLS13,
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{ALPNHTTP3, ALPNMCP},
	}, selfSigned, nil
}

// selfSignedCert returns an ECDSA P-256 certificate for localhost, valid for
// one year from now. Development only.
func selfSignedCert(now time.Time) (tls.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("generate private key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("generate serial: %w", err)
	}

	tpl := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{Organization: []string{"templater dev"}, CommonName: "localhost"},
		NotBefore:             now,
		NotAfter:              now.Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, &tpl, &tpl, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("create certificate: %w", err)
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}, nil
}
