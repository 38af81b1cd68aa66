package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigFile 未设置 CONFIG_FILE 时尝试读取的文件
const DefaultConfigFile = "chordbook.toml"

// Config stores the application configuration.
// Precedence: built-in defaults < TOML file < environment variables.
type Config struct {
	ServerAddr string `toml:"server_addr"`

	DBHost     string `toml:"db_host"`
	DBPort     string `toml:"db_port"`
	DBUser     string `toml:"db_user"`
	DBPassword string `toml:"db_password"`
	DBName     string `toml:"db_name"`

	// Redis配置
	RedisHost         string `toml:"redis_host"`
	RedisPort         string `toml:"redis_port"`
	RedisPassword     string `toml:"redis_password"`
	RedisDB           int    `toml:"redis_db"`
	ScoreCacheSeconds int    `toml:"score_cache_seconds"`

	// MinIO配置
	MinioEndpoint  string `toml:"minio_endpoint"`
	MinioAccessKey string `toml:"minio_access_key"`
	MinioSecretKey string `toml:"minio_secret_key"`
	MinioBucket    string `toml:"minio_bucket"`
	MinioRegion    string `toml:"minio_region"`
	MinioUseSSL    bool   `toml:"minio_use_ssl"`

	// 认证
	JWTSecret         string `toml:"jwt_secret"`
	TokenTTLSeconds   int    `toml:"token_ttl_seconds"`
	AdminUsername     string `toml:"admin_username"`
	AdminPasswordHash string `toml:"admin_password_hash"` // bcrypt, see `chordbook_server hashpw`

	// 乐谱投递目录，为空时不启动监听
	IngestDir string `toml:"ingest_dir"`

	// 日志
	LogLevel      string `toml:"log_level"`
	LogPath       string `toml:"log_path"`
	LogMaxSize    int    `toml:"log_max_size"`
	LogMaxBackups int    `toml:"log_max_backups"`
	LogMaxAge     int    `toml:"log_max_age"`
	LogCompress   bool   `toml:"log_compress"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ServerAddr:        ":8080",
		DBHost:            "127.0.0.1",
		DBPort:            "3306",
		DBUser:            "root",
		DBName:            "chordbook",
		RedisHost:         "127.0.0.1",
		RedisPort:         "6379",
		RedisDB:           0,
		ScoreCacheSeconds: 1800,
		MinioEndpoint:     "127.0.0.1:9000",
		MinioBucket:       "chordbook",
		MinioRegion:       "us-east-1",
		TokenTTLSeconds:   86400,
		AdminUsername:     "admin",
		LogLevel:          "info",
		LogPath:           "logs/chordbook.log",
		LogMaxSize:        100,
		LogMaxBackups:     5,
		LogMaxAge:         30,
		LogCompress:       true,
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// Load loads configuration from defaults, an optional TOML file and the environment
// (including a .env file).
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	cfg := Default()

	path := getEnv("CONFIG_FILE", DefaultConfigFile)
	if err := cfg.applyFile(path); err != nil {
		log.Printf("Ignoring config file %s: %v", path, err)
	}

	cfg.applyEnv()
	return cfg
}

// applyFile 读取 TOML 配置覆盖默认值，文件不存在时直接返回
func (c *Config) applyFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddr = getEnv("SERVER_ADDR", c.ServerAddr)

	c.DBHost = getEnv("DB_HOST", c.DBHost)
	c.DBPort = getEnv("DB_PORT", c.DBPort)
	c.DBUser = getEnv("DB_USER", c.DBUser)
	c.DBPassword = getEnv("DB_PASSWORD", c.DBPassword)
	c.DBName = getEnv("DB_NAME", c.DBName)

	c.RedisHost = getEnv("REDIS_HOST", c.RedisHost)
	c.RedisPort = getEnv("REDIS_PORT", c.RedisPort)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)
	c.ScoreCacheSeconds = getEnvInt("SCORE_CACHE_SECONDS", c.ScoreCacheSeconds)

	c.MinioEndpoint = getEnv("MINIO_ENDPOINT", c.MinioEndpoint)
	c.MinioAccessKey = getEnv("MINIO_ACCESS_KEY", c.MinioAccessKey)
	c.MinioSecretKey = getEnv("MINIO_SECRET_KEY", c.MinioSecretKey)
	c.MinioBucket = getEnv("MINIO_BUCKET", c.MinioBucket)
	c.MinioRegion = getEnv("MINIO_REGION", c.MinioRegion)
	c.MinioUseSSL = getEnvBool("MINIO_USE_SSL", c.MinioUseSSL)

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.TokenTTLSeconds = getEnvInt("TOKEN_TTL_SECONDS", c.TokenTTLSeconds)
	c.AdminUsername = getEnv("ADMIN_USERNAME", c.AdminUsername)
	c.AdminPasswordHash = getEnv("ADMIN_PASSWORD_HASH", c.AdminPasswordHash)

	c.IngestDir = getEnv("INGEST_DIR", c.IngestDir)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogPath = getEnv("LOG_PATH", c.LogPath)
	c.LogMaxSize = getEnvInt("LOG_MAX_SIZE", c.LogMaxSize)
	c.LogMaxBackups = getEnvInt("LOG_MAX_BACKUPS", c.LogMaxBackups)
	c.LogMaxAge = getEnvInt("LOG_MAX_AGE", c.LogMaxAge)
	c.LogCompress = getEnvBool("LOG_COMPRESS", c.LogCompress)
}

// ScoreCacheTTL 乐谱原始数据在 Redis 中的过期时间
func (c *Config) ScoreCacheTTL() time.Duration {
	return time.Duration(c.ScoreCacheSeconds) * time.Second
}

// TokenTTL JWT 有效期
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLSeconds) * time.Second
}

// RedisAddr host:port
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// MySQLDSN 构建 MySQL 连接串，密码里的特殊字符由驱动处理
func (c *Config) MySQLDSN() string {
	dsn := mysql.NewConfig()
	dsn.User = c.DBUser
	dsn.Passwd = c.DBPassword
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(c.DBHost, c.DBPort)
	dsn.DBName = c.DBName
	dsn.ParseTime = true
	dsn.Loc = time.Local
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	return dsn.FormatDSN()
}
