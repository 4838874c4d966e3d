package config

import (
	"os"
	"strconv"
	"time"

	"github.com/ansel1/merry"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Cache     CacheConfig     `yaml:"cache"`
	Storage   StorageConfig   `yaml:"storage"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Debug     bool            `yaml:"debug"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	CertFile  string `yaml:"cert_file"`
	KeyFile   string `yaml:"key_file"`
	StaticDir string `yaml:"static_dir"`
}

// TLS is served only when both files are configured.
func (c ServerConfig) TLS() bool { return c.CertFile != "" && c.KeyFile != "" }

type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type AuthConfig struct {
	TokenKey      string `yaml:"token_key"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

func (c AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

type CacheConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type StorageConfig struct {
	UploadDir   string `yaml:"upload_dir"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:      ":8443",
			StaticDir: "./static/main",
		},
		Database: DatabaseConfig{
			URL:          "user=postgres dbname=sismik password=password sslmode=disable",
			MaxOpenConns: 25,
		},
		Auth:      AuthConfig{TokenTTLHours: 30 * 24},
		Cache:     CacheConfig{TTLSeconds: 300},
		Storage:   StorageConfig{UploadDir: "./static/uploads", MaxUploadMB: 50},
		RateLimit: RateLimitConfig{RPS: 5, Burst: 20},
	}
}

// Load reads defaults, then the YAML file named by CONFIG_FILE, then the
// environment (.env included).
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, merry.Prepend(err, "read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, merry.Prependf(err, "parse config file %s", path)
		}
	}

	setString(&cfg.Server.Addr, "HTTP_ADDR")
	setString(&cfg.Server.CertFile, "TLS_CERT_FILE")
	setString(&cfg.Server.KeyFile, "TLS_KEY_FILE")
	setString(&cfg.Server.StaticDir, "STATIC_DIR")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Auth.TokenKey, "TOKEN_KEY")
	setString(&cfg.Storage.UploadDir, "UPLOAD_DIR")
	if err := setInt(&cfg.Database.MaxOpenConns, "DB_MAX_OPEN_CONNS"); err != nil {
		return nil, err
	}
	if err := setInt(&cfg.Auth.TokenTTLHours, "TOKEN_TTL_HOURS"); err != nil {
		return nil, err
	}
	if err := setInt(&cfg.Cache.TTLSeconds, "CACHE_TTL_SECONDS"); err != nil {
		return nil, err
	}
	if err := setInt(&cfg.Storage.MaxUploadMB, "MAX_UPLOAD_MB"); err != nil {
		return nil, err
	}
	if err := setInt(&cfg.RateLimit.Burst, "RATE_LIMIT_BURST"); err != nil {
		return nil, err
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, merry.Prepend(err, "RATE_LIMIT_RPS")
		}
		cfg.RateLimit.RPS = f
	}
	if v := os.Getenv("DEBUG"); v != "" {
		cfg.Debug = v == "1" || v == "true"
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Auth.TokenKey == "" {
		return merry.New("TOKEN_KEY is not set")
	}
	if c.Database.URL == "" {
		return merry.New("DATABASE_URL is not set")
	}
	if c.Auth.TokenTTLHours <= 0 {
		return merry.Errorf("token ttl must be positive, got %d hours", c.Auth.TokenTTLHours)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return merry.Prepend(err, key)
	}
	*dst = n
	return nil
}
