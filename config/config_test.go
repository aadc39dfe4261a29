package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_repurposer/generator"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadJSONAppliesDefaults(t *testing.T) {
	path := writeFile(t, "config.json", `{
  "analytical": {"provider": "mock"},
  "creative": {"provider": "Mock"}
}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "dev", cfg.LogMode)
	assert.Equal(t, "file:styles.db", cfg.Style.DSN)
	assert.Equal(t, ProviderMock, cfg.Creative.Provider)
	assert.Equal(t, 300*time.Second, cfg.RunTimeout())

	platforms, err := cfg.Platforms()
	require.NoError(t, err)
	assert.Equal(t, generator.Platforms(), platforms)
}

func TestLoadTOML(t *testing.T) {
	t.Setenv("DEEPSEEK_KEY", "ds-secret")
	path := writeFile(t, "repurposer.toml", `
server_addr = "127.0.0.1:9000"
log_mode = "prod"

[analytical]
provider = "openai"
model = "gpt-4o"
api_key = "sk-inline"

[creative]
provider = "deepseek"
model = "deepseek-chat"
api_key_env = "DEEPSEEK_KEY"
base_url = "https://api.deepseek.com/v1"
timeout_seconds = 30

[style]
dsn = "postgres://user:pw@localhost/repurposer"
seed_file = "styles.yaml"

[workflow]
platforms = ["twitter", "newsletter"]
run_timeout_seconds = 60

[tracing]
enabled = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.ServerAddr)
	assert.Equal(t, "sk-inline", cfg.Analytical.APIKey)
	assert.Equal(t, "ds-secret", cfg.Creative.APIKey)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, time.Minute, cfg.RunTimeout())

	platforms, err := cfg.Platforms()
	require.NoError(t, err)
	assert.Equal(t, []generator.Platform{generator.Twitter, generator.Newsletter}, platforms)

	s := cfg.Creative.Settings()
	assert.Equal(t, "deepseek-chat", s.Model)
	assert.Equal(t, "https://api.deepseek.com/v1", s.BaseURL)
	assert.Equal(t, 30, s.TimeoutSeconds)
}

func TestLoadReadsDefaultKeyEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	path := writeFile(t, "config.json", `{
  "analytical": {"provider": "openai", "model": "gpt-4o"},
  "creative": {"provider": "mock"}
}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.Analytical.APIKey)
}

func TestValidate(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing provider",
			body:    `{"creative": {"provider": "mock"}}`,
			wantErr: "analytical.provider is required",
		},
		{
			name:    "unknown provider",
			body:    `{"analytical": {"provider": "mock"}, "creative": {"provider": "claude"}}`,
			wantErr: "provider claude not supported",
		},
		{
			name:    "deepseek needs base url",
			body:    `{"analytical": {"provider": "deepseek", "model": "m", "api_key": "k"}, "creative": {"provider": "mock"}}`,
			wantErr: "requires base_url",
		},
		{
			name:    "real provider needs model",
			body:    `{"analytical": {"provider": "openai", "api_key": "k"}, "creative": {"provider": "mock"}}`,
			wantErr: "analytical.model is required",
		},
		{
			name:    "real provider needs key",
			body:    `{"analytical": {"provider": "openai", "model": "m"}, "creative": {"provider": "mock"}}`,
			wantErr: "export OPENAI_API_KEY",
		},
		{
			name:    "unknown platform",
			body:    `{"analytical": {"provider": "mock"}, "creative": {"provider": "mock"}, "workflow": {"platforms": ["tiktok"]}}`,
			wantErr: "unknown platform",
		},
		{
			name:    "bad log mode",
			body:    `{"log_mode": "loud", "analytical": {"provider": "mock"}, "creative": {"provider": "mock"}}`,
			wantErr: "log_mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.json", tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadNormalizesLogMode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"production", "prod"},
		{" PROD ", "prod"},
		{"development", "dev"},
		{"Dev", "dev"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			body := `{"log_mode": "` + tt.in + `", "analytical": {"provider": "mock"}, "creative": {"provider": "mock"}}`
			cfg, err := Load(writeFile(t, "config.json", body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.LogMode)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "broken.toml", "server_addr = "))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "OPENAI_API_KEY", cfg.Analytical.APIKeyEnv)
	assert.Len(t, cfg.Workflow.Platforms, 3)
}
