package main

import (
	"testing"
)

func TestConfigValidate(t *testing.T) {
	t.Run("tls flags must come together", func(t *testing.T) {
		cfg := &Config{port: 8080, tlsCert: "cert.pem"}
		if err := cfg.validate(); err == nil {
			t.Error("Expected error for cert without key")
		}

		cfg = &Config{port: 8080, tlsKey: "key.pem"}
		if err := cfg.validate(); err == nil {
			t.Error("Expected error for key without cert")
		}

		cfg = &Config{port: 8080, tlsCert: "cert.pem", tlsKey: "key.pem"}
		if err := cfg.validate(); err != nil {
			t.Errorf("Expected no error with both TLS flags, got %v", err)
		}
	})

	t.Run("port range", func(t *testing.T) {
		for _, port := range []int{0, -1, 65536} {
			cfg := &Config{port: port}
			if err := cfg.validate(); err == nil {
				t.Errorf("Expected error for port %d", port)
			}
		}

		for _, port := range []int{1, 8080, 65535} {
			cfg := &Config{port: port}
			if err := cfg.validate(); err != nil {
				t.Errorf("Expected no error for port %d, got %v", port, err)
			}
		}
	})
}

func TestConfigScheme(t *testing.T) {
	cfg := &Config{}
	if got := cfg.scheme(); got != "http" {
		t.Errorf("Expected http without TLS, got %q", got)
	}

	cfg = &Config{tlsCert: "cert.pem", tlsKey: "key.pem"}
	if got := cfg.scheme(); got != "https" {
		t.Errorf("Expected https with TLS, got %q", got)
	}
}
