package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "db", "app.db")
	path := writeConfigFile(t, `
jwt:
  secret_key: "test-secret"
admin:
  password: "admin-pass"
database:
  path: "`+dbPath+`"
redis_service:
  host: "127.0.0.1"
`)

	cfg, err := loadConfigFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 18080, cfg.Server.Port)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, 4, cfg.Redis.DefaultMaxConcurrency)
	assert.Equal(t, "HS256", cfg.JWT.Algorithm)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Equal(t, "./data/samples", cfg.Dataset.InputDir)
	assert.Equal(t, "./data/merged_data.json", cfg.Dataset.OutputFile)
	assert.Equal(t, "unsloth/Meta-Llama-3.1-8B-bnb-4bit", cfg.Trainer.DefaultBaseModel)
	assert.Equal(t, 5*time.Second, cfg.Trainer.GetPollInterval())
	assert.Equal(t, 600*time.Second, cfg.Trainer.GetTimeout())

	// 数据库目录不存在时自动创建
	_, statErr := os.Stat(filepath.Dir(dbPath))
	assert.NoError(t, statErr)
}

func TestLoadConfigMissingJWTSecret(t *testing.T) {
	path := writeConfigFile(t, `
admin:
  password: "admin-pass"
`)

	_, err := loadConfigFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT密钥")
}

func TestLoadConfigMissingAdminPassword(t *testing.T) {
	path := writeConfigFile(t, `
jwt:
  secret_key: "test-secret"
`)

	_, err := loadConfigFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "管理员密码")
}

func TestLoadConfigTrainerServices(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "app.db")
	path := writeConfigFile(t, `
jwt:
  secret_key: "test-secret"
admin:
  password: "admin-pass"
database:
  path: "`+dbPath+`"
trainer_services:
  default_services:
    - "http://10.0.0.1:8000"
    - "http://10.0.0.2:8000"
  poll_seconds: 2
`)

	cfg, err := loadConfigFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"http://10.0.0.1:8000", "http://10.0.0.2:8000"}, cfg.GetTrainerServices())
	assert.Equal(t, 2*time.Second, cfg.Trainer.GetPollInterval())
}
