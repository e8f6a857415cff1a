package formdoc

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

var configEnv = []string{
	"FORMDOC_LOG_LEVEL",
	"FORMDOC_FALLBACK",
	"FORMDOC_PLACEHOLDERS",
	"FORMDOC_CACHE_MAX_SIZE",
	"FORMDOC_CACHE_TTL",
	"FORMDOC_ADDR",
	"FORMDOC_FORM",
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.CacheMaxSize != 100 {
		t.Errorf("DefaultConfig CacheMaxSize = %d, want 100", config.CacheMaxSize)
	}
	if config.CacheTTL != 0 {
		t.Errorf("DefaultConfig CacheTTL = %v, want 0", config.CacheTTL)
	}
	if config.LogLevel != "info" {
		t.Errorf("DefaultConfig LogLevel = %s, want info", config.LogLevel)
	}
	if config.Placeholders != PlaceholdersEvaluate {
		t.Errorf("DefaultConfig Placeholders = %s, want evaluate", config.Placeholders)
	}
	if config.Form != "mediation" {
		t.Errorf("DefaultConfig Form = %s, want mediation", config.Form)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("DefaultConfig is invalid: %v", err)
	}
}

func TestConfigFromEnvironment(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(t *testing.T, config *Config)
	}{
		{
			name:    "cache max size",
			envVars: map[string]string{"FORMDOC_CACHE_MAX_SIZE": "50"},
			check: func(t *testing.T, config *Config) {
				if config.CacheMaxSize != 50 {
					t.Errorf("CacheMaxSize = %d, want 50", config.CacheMaxSize)
				}
			},
		},
		{
			name:    "cache TTL",
			envVars: map[string]string{"FORMDOC_CACHE_TTL": "5m"},
			check: func(t *testing.T, config *Config) {
				if config.CacheTTL != 5*time.Minute {
					t.Errorf("CacheTTL = %v, want 5m", config.CacheTTL)
				}
			},
		},
		{
			name:    "log level is lowercased",
			envVars: map[string]string{"FORMDOC_LOG_LEVEL": "DEBUG"},
			check: func(t *testing.T, config *Config) {
				if config.LogLevel != "debug" {
					t.Errorf("LogLevel = %s, want debug", config.LogLevel)
				}
			},
		},
		{
			name:    "fallback",
			envVars: map[string]string{"FORMDOC_FALLBACK": "N/A"},
			check: func(t *testing.T, config *Config) {
				if config.Fallback != "N/A" {
					t.Errorf("Fallback = %q, want N/A", config.Fallback)
				}
			},
		},
		{
			name:    "placeholders",
			envVars: map[string]string{"FORMDOC_PLACEHOLDERS": "Preserve"},
			check: func(t *testing.T, config *Config) {
				if config.Placeholders != PlaceholdersPreserve {
					t.Errorf("Placeholders = %s, want preserve", config.Placeholders)
				}
			},
		},
		{
			name:    "server settings",
			envVars: map[string]string{"FORMDOC_ADDR": ":9090", "FORMDOC_FORM": "other"},
			check: func(t *testing.T, config *Config) {
				if config.Addr != ":9090" || config.Form != "other" {
					t.Errorf("Addr, Form = %q, %q", config.Addr, config.Form)
				}
			},
		},
		{
			name:    "invalid values keep defaults",
			envVars: map[string]string{"FORMDOC_CACHE_MAX_SIZE": "many", "FORMDOC_CACHE_TTL": "soon"},
			check: func(t *testing.T, config *Config) {
				if config.CacheMaxSize != 100 || config.CacheTTL != 0 {
					t.Errorf("CacheMaxSize, CacheTTL = %d, %v", config.CacheMaxSize, config.CacheTTL)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range configEnv {
				t.Setenv(key, "")
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			tt.check(t, ConfigFromEnvironment())
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"off is a level", func(c *Config) { c.LogLevel = "off" }, ""},
		{"negative cache size", func(c *Config) { c.CacheMaxSize = -1 }, "cache max size"},
		{"negative TTL", func(c *Config) { c.CacheTTL = -time.Second }, "cache TTL"},
		{"unknown level", func(c *Config) { c.LogLevel = "loud" }, "invalid log level"},
		{"trace is not offered", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
		{"unknown placeholder mode", func(c *Config) { c.Placeholders = "strip" }, "invalid placeholder mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")
	logger.Info("hidden")
	logger.WithField("field", "client_name").Warn("unresolved field")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %s", out)
	}
	if !strings.Contains(out, "unresolved field") || !strings.Contains(out, "field=client_name") {
		t.Errorf("warning missing from output: %s", out)
	}

	buf.Reset()
	NewLogger(&buf, "off").Error("nothing")
	if buf.Len() != 0 {
		t.Errorf("off logger wrote %q", buf.String())
	}

	buf.Reset()
	NewJSONLogger(&buf, "info").WithField("request_id", "r1").Info("request")
	if !strings.Contains(buf.String(), `"request_id":"r1"`) {
		t.Errorf("JSON logger output = %s", buf.String())
	}
}
