package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Port        string        `yaml:"port"`
	DBDriver    string        `yaml:"db_driver"`
	DBDSN       string        `yaml:"db_dsn"`
	DBName      string        `yaml:"db_name"` // mongodb only
	Secret      string        `yaml:"secret"`
	UploadsDir  string        `yaml:"uploads_dir"`
	MaxUploadMB int64         `yaml:"max_upload_mb"` // 0 disables the limit
	LogFile     string        `yaml:"log_file"`
	LogLevel    string        `yaml:"log_level"`
	Session     SessionConfig `yaml:"session"`
}

type SessionConfig struct {
	Backend       string `yaml:"backend"` // cookie, filesystem or redis
	Dir           string `yaml:"dir"`
	TTLMinutes    int    `yaml:"ttl_minutes"`
	Secure        bool   `yaml:"secure"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// Default returns the settings the server runs with when no file is present.
func Default() *Config {
	return &Config{
		Port:       "5500",
		DBDriver:   "sqlite3",
		DBDSN:      "vault.db",
		DBName:     "Login-tut",
		Secret:     "your-secret-key",
		UploadsDir: "uploads",
		LogFile:    "logfile.log",
		LogLevel:   "info",
		Session: SessionConfig{
			Backend:    "cookie",
			Dir:        "sessions",
			TTLMinutes: 24 * 60,
			RedisAddr:  "localhost:6379",
		},
	}
}

// Load reads a YAML file on top of Default. Keys absent from the file keep
// their default values.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects settings the server cannot run with. A TTL of 0 keeps
// sessions for the browser's lifetime.
func (c *Config) Validate() error {
	if c.Session.TTLMinutes < 0 {
		return fmt.Errorf("session.ttl_minutes must not be negative, got %d", c.Session.TTLMinutes)
	}
	if c.MaxUploadMB < 0 {
		return fmt.Errorf("max_upload_mb must not be negative, got %d", c.MaxUploadMB)
	}
	return nil
}

// ApplyEnv loads a .env file when present and lets environment variables
// override file values.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	setString(&c.Port, "PORT")
	setString(&c.DBDriver, "VAULT_DB_DRIVER")
	setString(&c.DBDSN, "VAULT_DB_DSN")
	setString(&c.DBName, "VAULT_DB_NAME")
	setString(&c.Secret, "VAULT_SECRET")
	setString(&c.UploadsDir, "VAULT_UPLOADS_DIR")
	setString(&c.LogFile, "VAULT_LOG_FILE")
	setString(&c.LogLevel, "VAULT_LOG_LEVEL")
	setString(&c.Session.Backend, "VAULT_SESSION_BACKEND")
	setString(&c.Session.RedisAddr, "VAULT_REDIS_ADDR")
	setString(&c.Session.RedisPassword, "VAULT_REDIS_PASSWORD")

	if v := os.Getenv("VAULT_MAX_UPLOAD_MB"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.MaxUploadMB = parsed
		}
	}
	if v := os.Getenv("VAULT_SESSION_TTL_MINUTES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.Session.TTLMinutes = parsed
		}
	}
	if v := os.Getenv("VAULT_SESSION_SECURE"); v != "" {
		c.Session.Secure = v == "true"
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
