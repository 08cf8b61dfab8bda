package tls

import (
	stdtls "crypto/tls"
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateCA(t *testing.T) {
	ca, err := GenerateCA()
	if err != nil {
		t.Fatalf("GenerateCA() error = %v", err)
	}

	if ca.Certificate == nil {
		t.Fatal("CA certificate is nil")
	}
	if ca.PrivateKey == nil {
		t.Fatal("CA private key is nil")
	}
	if !ca.Certificate.IsCA {
		t.Error("Certificate is not a CA")
	}
	if ca.Certificate.Subject.CommonName != "Riftgate CA" {
		t.Errorf("CA CN = %q, want 'Riftgate CA'", ca.Certificate.Subject.CommonName)
	}
}

func TestGenerateServerCert(t *testing.T) {
	ca, err := GenerateCA()
	if err != nil {
		t.Fatalf("GenerateCA() error = %v", err)
	}

	serverCert, err := GenerateServerCert(ca, "login", []string{"login.example.com", "198.51.100.10"})
	if err != nil {
		t.Fatalf("GenerateServerCert() error = %v", err)
	}

	if serverCert.Certificate == nil {
		t.Fatal("Server certificate is nil")
	}
	if serverCert.PrivateKey == nil {
		t.Fatal("Server private key is nil")
	}

	// Verify it's signed by CA
	if err := serverCert.Certificate.CheckSignatureFrom(ca.Certificate); err != nil {
		t.Errorf("Server cert not signed by CA: %v", err)
	}

	if serverCert.Certificate.Subject.CommonName != "riftgate-login" {
		t.Errorf("Server CN = %q, want 'riftgate-login'", serverCert.Certificate.Subject.CommonName)
	}
	if serverCert.Certificate.IsCA {
		t.Error("Server certificate should not be a CA")
	}

	// DNS hosts go to DNS SANs, IP literals to IP SANs, localhost always present.
	wantDNS := map[string]bool{"localhost": false, "login.example.com": false}
	for _, name := range serverCert.Certificate.DNSNames {
		if _, ok := wantDNS[name]; ok {
			wantDNS[name] = true
		}
	}
	for name, found := range wantDNS {
		if !found {
			t.Errorf("Server SAN missing DNS name %q, got %v", name, serverCert.Certificate.DNSNames)
		}
	}

	wantIPs := map[string]bool{"127.0.0.1": false, "198.51.100.10": false}
	for _, ip := range serverCert.Certificate.IPAddresses {
		if _, ok := wantIPs[ip.String()]; ok {
			wantIPs[ip.String()] = true
		}
	}
	for ip, found := range wantIPs {
		if !found {
			t.Errorf("Server SAN missing IP %q, got %v", ip, serverCert.Certificate.IPAddresses)
		}
	}
}

func TestSaveCertificates(t *testing.T) {
	tmpDir := t.TempDir()

	ca, err := GenerateCA()
	if err != nil {
		t.Fatalf("GenerateCA() error = %v", err)
	}

	serverCert, err := GenerateServerCert(ca, "login", nil)
	if err != nil {
		t.Fatalf("GenerateServerCert() error = %v", err)
	}

	if err := SaveCertificates(tmpDir, ca, serverCert); err != nil {
		t.Fatalf("SaveCertificates() error = %v", err)
	}

	files := []string{"root-ca.crt", "root-ca.key", "login.crt", "login.key"}
	for _, f := range files {
		path := filepath.Join(tmpDir, f)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Expected file %s to exist: %v", f, err)
		}
	}

	cert, err := stdtls.LoadX509KeyPair(
		filepath.Join(tmpDir, "login.crt"),
		filepath.Join(tmpDir, "login.key"),
	)
	if err != nil {
		t.Fatalf("Failed to load server cert: %v", err)
	}

	x509Cert, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		t.Fatalf("Failed to parse cert: %v", err)
	}

	if x509Cert.IsCA {
		t.Error("Server certificate should not be a CA")
	}
}

func TestSaveCertificates_OnlyCA(t *testing.T) {
	tmpDir := t.TempDir()

	ca, err := GenerateCA()
	if err != nil {
		t.Fatalf("GenerateCA() error = %v", err)
	}

	if err := SaveCertificates(tmpDir, ca, nil); err != nil {
		t.Fatalf("SaveCertificates() error = %v", err)
	}

	for _, f := range []string{"root-ca.crt", "root-ca.key"} {
		path := filepath.Join(tmpDir, f)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Expected file %s to exist: %v", f, err)
		}
	}
}

func TestLoadServerTLS(t *testing.T) {
	tmpDir := t.TempDir()

	ca, err := GenerateCA()
	if err != nil {
		t.Fatalf("GenerateCA() error = %v", err)
	}

	serverCert, err := GenerateServerCert(ca, "login", nil)
	if err != nil {
		t.Fatalf("GenerateServerCert() error = %v", err)
	}

	if err := SaveCertificates(tmpDir, ca, serverCert); err != nil {
		t.Fatalf("SaveCertificates() error = %v", err)
	}

	config, err := LoadServerTLS(tmpDir, "login")
	if err != nil {
		t.Fatalf("LoadServerTLS() error = %v", err)
	}

	if len(config.Certificates) != 1 {
		t.Errorf("Expected 1 certificate, got %d", len(config.Certificates))
	}
	if config.MinVersion != stdtls.VersionTLS12 {
		t.Errorf("Expected TLS 1.2 min version, got %d", config.MinVersion)
	}
}

func TestLoadServerTLS_MissingFiles(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := LoadServerTLS(tmpDir, "login")
	if err == nil {
		t.Error("LoadServerTLS() should return error for missing files")
	}
}

func TestEnsureServerTLS_GeneratesWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	config, err := EnsureServerTLS(tmpDir, "login", []string{"10.0.0.5"})
	if err != nil {
		t.Fatalf("EnsureServerTLS() error = %v", err)
	}
	if len(config.Certificates) != 1 {
		t.Errorf("Expected 1 certificate, got %d", len(config.Certificates))
	}

	for _, f := range []string{"root-ca.crt", "root-ca.key", "login.crt", "login.key"} {
		path := filepath.Join(tmpDir, f)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Expected file %s to exist: %v", f, err)
		}
	}
}

func TestEnsureServerTLS_ReusesExisting(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := EnsureServerTLS(tmpDir, "login", nil); err != nil {
		t.Fatalf("EnsureServerTLS() error = %v", err)
	}

	before, err := os.ReadFile(filepath.Join(tmpDir, "login.crt"))
	if err != nil {
		t.Fatalf("Failed to read generated cert: %v", err)
	}

	if _, err := EnsureServerTLS(tmpDir, "login", nil); err != nil {
		t.Fatalf("EnsureServerTLS() second call error = %v", err)
	}

	after, err := os.ReadFile(filepath.Join(tmpDir, "login.crt"))
	if err != nil {
		t.Fatalf("Failed to read cert after second call: %v", err)
	}

	if string(before) != string(after) {
		t.Error("EnsureServerTLS() should not regenerate an existing certificate")
	}
}
