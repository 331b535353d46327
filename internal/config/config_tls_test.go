package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTLSConfig(t *testing.T) {
	tests := []struct {
		name     string
		tls      TLSConfig
		errorMsg string
	}{
		{name: "disabled", tls: TLSConfig{Mode: "disabled"}},
		{name: "empty mode means disabled", tls: TLSConfig{}},
		{
			name: "server with files",
			tls:  TLSConfig{Mode: "server", CertFile: "/c.pem", KeyFile: "/k.pem", MinVersion: "1.3"},
		},
		{
			name: "server with vault content",
			tls:  TLSConfig{Mode: "server", CertContent: "CERT", KeyContent: "KEY"},
		},
		{
			name:     "server without key",
			tls:      TLSConfig{Mode: "server", CertFile: "/c.pem"},
			errorMsg: "certificate and key are required",
		},
		{
			name:     "duplicate cert source",
			tls:      TLSConfig{Mode: "server", CertFile: "/c.pem", CertContent: "CERT", KeyFile: "/k.pem"},
			errorMsg: "both certFile and certContent",
		},
		{
			name:     "mutual is not offered",
			tls:      TLSConfig{Mode: "mutual", CertFile: "/c.pem", KeyFile: "/k.pem"},
			errorMsg: "invalid TLS mode: mutual",
		},
		{
			name:     "old protocol version",
			tls:      TLSConfig{Mode: "server", CertFile: "/c.pem", KeyFile: "/k.pem", MinVersion: "1.0"},
			errorMsg: "invalid TLS minVersion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Server: ServerConfig{TLS: tt.tls}}
			err := cfg.ValidateTLSConfig()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errorMsg)
		})
	}
}
