package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chordbook.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfigFile(t, `
server_addr = ":9090"
db_name = "from_file"
redis_db = 2
score_cache_seconds = 60
minio_use_ssl = true
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DB_NAME", "from_env")
	t.Setenv("TOKEN_TTL_SECONDS", "120")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "from_env", cfg.DBName, "env overrides file")
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, time.Minute, cfg.ScoreCacheTTL())
	assert.Equal(t, 2*time.Minute, cfg.TokenTTL())
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, "127.0.0.1", cfg.DBHost, "defaults survive")
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, 0, cfg.RedisDB, "unparsable env keeps the previous value")
	assert.Equal(t, "127.0.0.1:6379", cfg.RedisAddr())
}

func TestApplyFileRejectsBadToml(t *testing.T) {
	path := writeConfigFile(t, "server_addr = [")
	cfg := Default()
	assert.Error(t, cfg.applyFile(path))
	assert.Equal(t, ":8080", cfg.ServerAddr)
}

func TestMySQLDSN(t *testing.T) {
	cfg := Default()
	cfg.DBPassword = "p@ss/w:rd"

	parsed, err := mysql.ParseDSN(cfg.MySQLDSN())
	require.NoError(t, err)
	assert.Equal(t, "root", parsed.User)
	assert.Equal(t, "p@ss/w:rd", parsed.Passwd)
	assert.Equal(t, "tcp", parsed.Net)
	assert.Equal(t, "127.0.0.1:3306", parsed.Addr)
	assert.Equal(t, "chordbook", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, time.Local, parsed.Loc)
	assert.Contains(t, cfg.MySQLDSN(), "charset=utf8mb4")
}
