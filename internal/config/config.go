package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Бэкенды хранилища вложений.
const (
	BlobBackendDB = "db"
	BlobBackendS3 = "s3"
)

type Config struct {
	// Server-side settings
	DatabaseDSN string `env:"DATABASE_URI" toml:"database_uri"`
	AuthSecret  string `env:"AUTH_SECRET" toml:"auth_secret"`

	// Вложения
	BlobBackend string `env:"BLOB_BACKEND" toml:"blob_backend"`
	S3Bucket    string `env:"S3_BUCKET" toml:"s3_bucket"`
	S3Region    string `env:"S3_REGION" toml:"s3_region"`
	S3Endpoint  string `env:"S3_ENDPOINT" toml:"s3_endpoint"`
	S3PublicURL string `env:"S3_PUBLIC_URL" toml:"s3_public_url"`
	UploadMaxMB int    `env:"UPLOAD_MAX_MB" toml:"upload_max_mb"`

	// События
	NATSURL string `env:"NATS_URL" toml:"nats_url"`

	// Shared settings
	BaseURL     string `env:"BASE_URL" toml:"base_url"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS" toml:"enable_https"`

	// Client-side settings
	ServerURL string `env:"-" toml:"-"`
	TokenFile string `env:"TOKEN_FILE" toml:"token_file"`
	Version   bool   `env:"-" toml:"-"` // show client version and exit (flag only)

	// ConfigFile - TOML-файл, читается раньше env и флагов.
	ConfigFile string `env:"CONFIG_FILE" toml:"-"`
}

// NewConfig собирает настройки: TOML-файл, затем .env и окружение, затем флаги.
func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		cfg.ConfigFile = path
	}
	_ = env.Parse(cfg)

	// Server flags
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД (путь SQLite или postgres://)")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи JWT")
	flag.StringVar(&cfg.BlobBackend, "blob-backend", cfg.BlobBackend, "хранилище вложений: db или s3")
	flag.StringVar(&cfg.S3Bucket, "s3-bucket", cfg.S3Bucket, "S3 bucket for uploads")
	flag.StringVar(&cfg.S3Endpoint, "s3-endpoint", cfg.S3Endpoint, "custom S3 endpoint (MinIO etc.)")
	flag.IntVar(&cfg.UploadMaxMB, "upload-max-mb", cfg.UploadMaxMB, "максимальный размер вложения, МБ")
	flag.StringVar(&cfg.NATSURL, "nats", cfg.NATSURL, "NATS URL для событий изменений")
	// Shared/client flags
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "address of the SchemaDesk server (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "enable HTTPS (client: prefer https scheme for BaseURL)")
	// Client flags
	flag.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "path to auth token file (client)")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")

	flag.Parse()

	applyDefaults(cfg)
	return cfg
}

func loadFile(path string, cfg *Config) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	return nil
}

var hostPortRe = regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)

func applyDefaults(cfg *Config) {
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "dev-secret-key"
	}
	if cfg.BlobBackend != BlobBackendS3 {
		cfg.BlobBackend = BlobBackendDB
	}
	if cfg.S3Region == "" {
		cfg.S3Region = "us-east-1"
	}
	if cfg.UploadMaxMB <= 0 {
		cfg.UploadMaxMB = 5
	}
	// BaseURL: только "address:port", без схемы и пути
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}

	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}

	if cfg.TokenFile == "" {
		home, _ := os.UserHomeDir()
		cfg.TokenFile = filepath.Join(home, ".schemadesk_token")
	}
}

// UploadMaxBytes - лимит вложения в байтах.
func (c *Config) UploadMaxBytes() int64 {
	return int64(c.UploadMaxMB) << 20
}
