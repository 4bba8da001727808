package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mqmeter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
customer: Acme Ltd
transport: rabbitmq
prefix: prod.
ignore_queues:
  - "system.*"
  - audit
duration: 30m
max_concurrency: 4
output: /tmp/report.json
rabbitmq:
  management_url: http://broker:15672
  page_size: 100
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Acme Ltd", cfg.Customer)
	assert.Equal(t, "rabbitmq", cfg.Transport)
	assert.Equal(t, "prod.", cfg.Prefix)
	assert.Equal(t, []string{"system.*", "audit"}, cfg.IgnoreQueues)
	assert.Equal(t, Duration(30*time.Minute), cfg.Duration)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.Equal(t, "http://broker:15672", cfg.RabbitMQ.ManagementURL)
	assert.Equal(t, 100, cfg.RabbitMQ.PageSize)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Duration(time.Hour), cfg.Duration)
	assert.Equal(t, 8, cfg.MaxConcurrency)
	assert.Equal(t, 500, cfg.RabbitMQ.PageSize)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "customer: [unclosed")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadInvalidDuration(t *testing.T) {
	path := writeConfig(t, "duration: quickly")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoadExpandsCredentialEnv(t *testing.T) {
	t.Setenv("BROKER_PASS", "s3cret")
	path := writeConfig(t, `
credentials:
  "http://broker:15672":
    username: admin
    password: ${BROKER_PASS}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	cred, ok := cfg.Credentials["http://broker:15672"]
	require.True(t, ok)
	assert.Equal(t, "admin", cred.Username)
	assert.Equal(t, "s3cret", cred.Password)
}

func TestLoadSQLDSNFromEnv(t *testing.T) {
	t.Setenv("MQMETER_SQL_DSN", "user:pass@tcp(db:3306)/queue_db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "user:pass@tcp(db:3306)/queue_db", cfg.SQLTable.DSN)
}

func TestValidateRejectsBadConcurrency(t *testing.T) {
	path := writeConfig(t, "max_concurrency: -2")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrency")
}
