package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danbauman77/reginfo-monitor/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
rins:
  - 2060-AV54
  - 0910-AI39
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"2060-AV54", "0910-AI39"}, cfg.RINs)
	assert.Equal(t, "reginfo_data", cfg.DataDirectory)
	assert.Equal(t, 2, cfg.KeepFiles)
	assert.Equal(t, "https://www.reginfo.gov", cfg.Fetch.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 587, cfg.Email.SMTPPort)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
rins: ["2060-AV54"]
data_directory: /var/lib/reginfo
keep_files: 5
fetch:
  base_url: https://example.test
  timeout: 10s
email:
  enabled: true
  smtp_server: smtp.example.com
  smtp_port: 465
  username: bot
  password: hunter2
  from_address: bot@example.com
  to_address: [admin@example.com]
  use_tls: true
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/reginfo", cfg.DataDirectory)
	assert.Equal(t, 5, cfg.KeepFiles)
	assert.Equal(t, "https://example.test", cfg.Fetch.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	assert.True(t, cfg.Email.Enabled)
	assert.True(t, cfg.Email.UseTLS)
	assert.Equal(t, 465, cfg.Email.SMTPPort)
	assert.Equal(t, "bot@example.com", cfg.Email.From)
	assert.Equal(t, []string{"admin@example.com"}, cfg.Email.To)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadScalarRecipient(t *testing.T) {
	path := writeConfig(t, `
rins: ["2060-AV54"]
email:
  smtp_server: smtp.example.com
  from_address: bot@example.com
  to_address: admin@example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin@example.com"}, cfg.Email.To)
}

func TestLoadRejectsInvalidConfigs(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no rins", `data_directory: reginfo_data`},
		{"empty rins", `rins: []`},
		{"malformed rin", `
rins: ["not-a-rin"]
`},
		{"lowercase rin letters", `
rins: ["2060-av54"]
`},
		{"negative retention", `
rins: ["2060-AV54"]
keep_files: -1
`},
		{"email enabled without server", `
rins: ["2060-AV54"]
email:
  enabled: true
  from_address: bot@example.com
  to_address: [admin@example.com]
`},
		{"email enabled without recipients", `
rins: ["2060-AV54"]
email:
  enabled: true
  smtp_server: smtp.example.com
  from_address: bot@example.com
`},
		{"bad log level", `
rins: ["2060-AV54"]
log:
  level: loud
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)

			var configErr *types.ConfigError
			assert.ErrorAs(t, err, &configErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	var configErr *types.ConfigError
	require.ErrorAs(t, err, &configErr)
}
