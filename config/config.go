package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"AppMovin/storage"
	"AppMovin/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	StorageLocal = "local"
	StorageR2    = "r2"

	settingsFileName = "settings.yaml"
)

type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

type R2Config struct {
	AccountID       string `yaml:"account_id"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
}

type Config struct {
	DataDir     string        `yaml:"data_dir"`
	ListenAddr  string        `yaml:"listen_addr"`
	LogLevel    string        `yaml:"log_level"`
	StorageType string        `yaml:"storage_type"`
	AuthTimeout time.Duration `yaml:"auth_timeout"`
	Google      GoogleConfig  `yaml:"google"`
	R2          R2Config      `yaml:"r2"`

	// AuditInterval spaces the background library audits. Zero disables them.
	AuditInterval time.Duration `yaml:"audit_interval"`
}

func defaults() *Config {
	return &Config{
		DataDir:       utils.DataDir(),
		ListenAddr:    "127.0.0.1:4780",
		LogLevel:      "info",
		StorageType:   StorageLocal,
		AuditInterval: 24 * time.Hour,
	}
}

// LoadConfig reads .env, then the YAML settings file, then the process
// environment; later sources win.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("Error loading .env file: %v", err)
	}

	cfg := defaults()
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}

	path := os.Getenv("APPMOVIN_CONFIG")
	if path == "" {
		path = filepath.Join(cfg.DataDir, settingsFileName)
	}
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.ListenAddr = getEnv("LISTEN_ADDR", c.ListenAddr)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.StorageType = getEnv("STORAGE_TYPE", c.StorageType)

	c.Google.ClientID = getEnv("GOOGLE_CLIENT_ID", c.Google.ClientID)
	c.Google.ClientSecret = getEnv("GOOGLE_CLIENT_SECRET", c.Google.ClientSecret)

	c.R2.AccountID = getEnv("R2_ACCOUNT_ID", c.R2.AccountID)
	c.R2.AccessKeyID = getEnv("R2_ACCESS_KEY_ID", c.R2.AccessKeyID)
	c.R2.SecretAccessKey = getEnv("R2_SECRET_ACCESS_KEY", c.R2.SecretAccessKey)
	c.R2.Bucket = getEnv("R2_BUCKET_NAME", c.R2.Bucket)

	var err error
	if c.AuthTimeout, err = durationEnv("AUTH_TIMEOUT", c.AuthTimeout); err != nil {
		return err
	}
	if c.AuditInterval, err = durationEnv("AUDIT_INTERVAL", c.AuditInterval); err != nil {
		return err
	}
	return nil
}

func durationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func (c *Config) Validate() error {
	switch c.StorageType {
	case StorageLocal:
	case StorageR2:
		if err := c.R2Storage().Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported storage type %q", c.StorageType)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}
	if c.AuthTimeout < 0 {
		return fmt.Errorf("auth timeout must not be negative")
	}
	if c.AuditInterval < 0 {
		return fmt.Errorf("audit interval must not be negative")
	}
	return nil
}

func (c *Config) R2Storage() storage.R2Config {
	return storage.R2Config{
		AccountID:       c.R2.AccountID,
		AccessKeyID:     c.R2.AccessKeyID,
		SecretAccessKey: c.R2.SecretAccessKey,
		Bucket:          c.R2.Bucket,
	}
}

// SetupLogging applies the configured level to the JSON logger.
func (c *Config) SetupLogging() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.Warnf("Unknown log level %q, using info", c.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// getEnv retrieves an environment variable or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}
