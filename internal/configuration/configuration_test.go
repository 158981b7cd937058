package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// TestLoadConfig_Valid verifies loading a complete configuration file.
func TestLoadConfig_Valid(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: debug
server:
  address: ":8080"
  static: /var/www
assessment:
  schema: /etc/readiness/schema.yaml
  session_ttl: 30m
  history_length: 5
journal:
  file: /var/log/reports.jsonl
  size: 50
  amount: 7
store:
  path: /var/lib/readiness.db
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", config.Logger.Level)
	assert.Equal(t, ":8080", config.Server.Address)
	assert.Equal(t, "/var/www", config.Server.Static)
	assert.Equal(t, "/etc/readiness/schema.yaml", config.Assessment.Schema)
	assert.Equal(t, 30*time.Minute, config.Assessment.SessionTtl)
	assert.Equal(t, 5, config.Assessment.HistoryLength)
	assert.Equal(t, "/var/log/reports.jsonl", config.Journal.File)
	assert.Equal(t, 50, config.Journal.Size)
	assert.Equal(t, 7, config.Journal.Amount)
	assert.Equal(t, "/var/lib/readiness.db", config.Store.Path)
}

// TestLoadConfig_Defaults verifies that optional parameters get their
// defaults while required ones are still enforced.
func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: info
server:
  address: ":8080"
assessment:
  schema: schema.yaml
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, config.Assessment.SessionTtl)
	assert.Equal(t, 10, config.Assessment.HistoryLength)
	assert.Equal(t, 100, config.Journal.Size)
	assert.Equal(t, 20, config.Journal.Amount)
	assert.Empty(t, config.Store.Path, "persistence stays disabled unless configured")
}

// TestLoadConfig_Invalid verifies validation failures.
func TestLoadConfig_Invalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing logger level", "server:\n  address: \":8080\"\nassessment:\n  schema: s.yaml\n"},
		{"unsupported logger level", "logger:\n  level: verbose\nserver:\n  address: \":8080\"\nassessment:\n  schema: s.yaml\n"},
		{"missing server address", "logger:\n  level: info\nassessment:\n  schema: s.yaml\n"},
		{"missing schema path", "logger:\n  level: info\nserver:\n  address: \":8080\"\n"},
	}
	for _, tc := range cases {
		_, err := LoadConfig(writeConfig(t, tc.body))
		assert.Error(t, err, tc.name)
	}
}

// TestLoadConfig_MissingFile verifies the error for an absent file.
func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
