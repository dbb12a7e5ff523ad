package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected *Config
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-g", ":6000", "-d", "db", "-s", "secret",
				"-k", "api", "-m", "ses", "-l", "debug", "-prod", "-unrelated", "x",
			},
			expected: &Config{
				EndpointAddrHTTP: "127.0.0.1:9090",
				EndpointAddrGRPC: ":6000",
				DatabaseDSN:      "db",
				SigningKey:       "secret",
				InternalAPIKey:   "api",
				MailProvider:     "ses",
				LogLevel:         "debug",
				Production:       true,
			},
		},
		{
			name:     "no flags",
			args:     []string{},
			expected: &Config{},
		},
		{
			name:    "bad bool value",
			args:    []string{"-prod=maybe"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			err := parseFlags(cfg, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}
