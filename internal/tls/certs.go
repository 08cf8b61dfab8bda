// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

// Package tls provides TLS certificate generation and loading for the login
// gateway. Deployments without operator-provided certificates get a
// self-signed CA and server certificate generated into the certs directory.
package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	stdtls "crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

// CA holds a certificate authority certificate and private key.
type CA struct {
	Certificate *x509.Certificate
	PrivateKey  *ecdsa.PrivateKey
}

// ServerCert holds a server certificate and private key.
type ServerCert struct {
	Certificate *x509.Certificate
	PrivateKey  *ecdsa.PrivateKey
	Name        string
}

// GenerateCA creates a new root CA for the gateway's certificates.
func GenerateCA() (*CA, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CA key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial: %w", err)
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"Riftgate"},
			CommonName:   "Riftgate CA",
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().AddDate(10, 0, 0), // 10 years
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
	}

	certBytes, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create CA certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(certBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CA certificate: %w", err)
	}

	return &CA{Certificate: cert, PrivateKey: key}, nil
}

// GenerateServerCert creates a server certificate signed by the CA. hosts
// are the DNS names and IP literals clients may use to reach the server;
// localhost and 127.0.0.1 are always included.
func GenerateServerCert(ca *CA, serverName string, hosts []string) (*ServerCert, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate server key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial: %w", err)
	}

	dnsNames := []string{"localhost"}
	ips := []net.IP{net.ParseIP("127.0.0.1")}
	for _, host := range hosts {
		if ip := net.ParseIP(host); ip != nil {
			ips = append(ips, ip)
		} else {
			dnsNames = append(dnsNames, host)
		}
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"Riftgate"},
			CommonName:   "riftgate-" + serverName,
		},
		NotBefore:   time.Now(),
		NotAfter:    time.Now().AddDate(1, 0, 0), // 1 year
		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:    dnsNames,
		IPAddresses: ips,
	}

	certBytes, err := x509.CreateCertificate(rand.Reader, template, ca.Certificate, &key.PublicKey, ca.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create server certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(certBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse server certificate: %w", err)
	}

	return &ServerCert{Certificate: cert, PrivateKey: key, Name: serverName}, nil
}

// SaveCertificates saves the CA and optionally a server certificate to the
// certs directory. CA is saved as root-ca.crt and root-ca.key; the server
// certificate as {name}.crt and {name}.key.
func SaveCertificates(certsDir string, ca *CA, serverCert *ServerCert) error {
	if err := os.MkdirAll(certsDir, 0o700); err != nil {
		return fmt.Errorf("failed to create certs directory: %w", err)
	}

	if err := saveCert(filepath.Join(certsDir, "root-ca.crt"), ca.Certificate); err != nil {
		return fmt.Errorf("failed to save CA certificate: %w", err)
	}
	if err := saveKey(filepath.Join(certsDir, "root-ca.key"), ca.PrivateKey); err != nil {
		return fmt.Errorf("failed to save CA key: %w", err)
	}

	if serverCert != nil {
		certFile := serverCert.Name + ".crt"
		keyFile := serverCert.Name + ".key"
		if err := saveCert(filepath.Join(certsDir, certFile), serverCert.Certificate); err != nil {
			return fmt.Errorf("failed to save server certificate: %w", err)
		}
		if err := saveKey(filepath.Join(certsDir, keyFile), serverCert.PrivateKey); err != nil {
			return fmt.Errorf("failed to save server key: %w", err)
		}
	}

	return nil
}

// LoadServerTLS loads {name}.crt/{name}.key from the certs directory into a
// TLS config ready for the login listener.
func LoadServerTLS(certsDir, name string) (*stdtls.Config, error) {
	certPath := filepath.Clean(filepath.Join(certsDir, name+".crt"))
	keyPath := filepath.Clean(filepath.Join(certsDir, name+".key"))

	cert, err := stdtls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load server key pair: %w", err)
	}

	return &stdtls.Config{
		Certificates: []stdtls.Certificate{cert},
		MinVersion:   stdtls.VersionTLS12,
	}, nil
}

// EnsureServerTLS loads the named server certificate, generating a CA and
// certificate first if the key pair does not exist yet.
func EnsureServerTLS(certsDir, name string, hosts []string) (*stdtls.Config, error) {
	certPath := filepath.Join(certsDir, name+".crt")
	if _, err := os.Stat(certPath); os.IsNotExist(err) {
		ca, err := GenerateCA()
		if err != nil {
			return nil, err
		}
		serverCert, err := GenerateServerCert(ca, name, hosts)
		if err != nil {
			return nil, err
		}
		if err := SaveCertificates(certsDir, ca, serverCert); err != nil {
			return nil, err
		}
	}
	return LoadServerTLS(certsDir, name)
}

// saveCert saves a certificate to a PEM file.
func saveCert(path string, cert *x509.Certificate) error {
	f, err := os.OpenFile(filepath.Clean(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create cert file: %w", err)
	}

	if err := pem.Encode(f, &pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode certificate: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close cert file: %w", err)
	}

	return nil
}

// saveKey saves an ECDSA private key to a PEM file.
func saveKey(path string, key *ecdsa.PrivateKey) error {
	keyBytes, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("failed to marshal key: %w", err)
	}

	f, err := os.OpenFile(filepath.Clean(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create key file: %w", err)
	}

	if err := pem.Encode(f, &pem.Block{Type: "EC PRIVATE KEY", Bytes: keyBytes}); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode key: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close key file: %w", err)
	}

	return nil
}
