package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/codecompanion-backend/internal/data/db"
	"github.com/yungbote/codecompanion-backend/internal/http/middleware"
	"github.com/yungbote/codecompanion-backend/internal/platform/envutil"
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
	"github.com/yungbote/codecompanion-backend/internal/realtime"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	defaultConfigPath = "config/config.yaml"
	devJWTSecret      = "dev-secret"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required outside development")

type Config struct {
	Env             string
	HTTPAddr        string
	MetricsAddr     string
	JWTSecret       string
	DB              db.Config
	SSEHeartbeat    time.Duration
	SSEBuffer       int
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// fileConfig mirrors config.yaml. Zero values leave the defaults untouched.
type fileConfig struct {
	Env         string `yaml:"env"`
	HTTPAddr    string `yaml:"http_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	JWTSecret   string `yaml:"jwt_secret"`
	DB          struct {
		Driver     string `yaml:"driver"`
		DSN        string `yaml:"dsn"`
		Host       string `yaml:"host"`
		Port       string `yaml:"port"`
		User       string `yaml:"user"`
		Password   string `yaml:"password"`
		Name       string `yaml:"name"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"db"`
	SSE struct {
		HeartbeatSeconds int `yaml:"heartbeat_seconds"`
		OutboundBuffer   int `yaml:"outbound_buffer"`
	} `yaml:"sse"`
	AllowedOrigins         []string `yaml:"allowed_origins"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds"`
}

func defaultConfig() Config {
	return Config{
		Env:      EnvDevelopment,
		HTTPAddr: ":5000",
		DB: db.Config{
			Driver: db.DriverPostgres,
			Host:   "localhost",
			Port:   "5432",
			User:   "postgres",
			Name:   "codecompanion",
		},
		SSEHeartbeat:    realtime.DefaultHeartbeat,
		SSEBuffer:       realtime.DefaultBuffer,
		AllowedOrigins:  middleware.DefaultAllowedOrigins,
		ShutdownTimeout: 15 * time.Second,
	}
}

// LoadConfig layers defaults, the optional YAML file and the environment, in
// that order.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()

	path, explicit := os.LookupEnv("CONFIG_PATH")
	path = strings.TrimSpace(path)
	if path == "" {
		path, explicit = defaultConfigPath, false
	}
	if err := cfg.overlayFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	} else if log != nil {
		log.Info("Loaded config file", "path", path)
	}

	cfg.overlayEnv()

	if cfg.JWTSecret == "" {
		if cfg.Env != EnvDevelopment {
			return Config{}, ErrMissingJWTSecret
		}
		if log != nil {
			log.Warn("JWT_SECRET not set, using development secret")
		}
		cfg.JWTSecret = devJWTSecret
	}
	if cfg.SSEBuffer < 2 {
		cfg.SSEBuffer = realtime.DefaultBuffer
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return err
	}

	setString(&c.Env, fc.Env)
	setString(&c.HTTPAddr, fc.HTTPAddr)
	setString(&c.MetricsAddr, fc.MetricsAddr)
	setString(&c.JWTSecret, fc.JWTSecret)
	setString(&c.DB.Driver, fc.DB.Driver)
	setString(&c.DB.DSN, fc.DB.DSN)
	setString(&c.DB.Host, fc.DB.Host)
	setString(&c.DB.Port, fc.DB.Port)
	setString(&c.DB.User, fc.DB.User)
	setString(&c.DB.Password, fc.DB.Password)
	setString(&c.DB.Name, fc.DB.Name)
	setString(&c.DB.SQLitePath, fc.DB.SQLitePath)
	if fc.SSE.HeartbeatSeconds > 0 {
		c.SSEHeartbeat = time.Duration(fc.SSE.HeartbeatSeconds) * time.Second
	}
	if fc.SSE.OutboundBuffer > 0 {
		c.SSEBuffer = fc.SSE.OutboundBuffer
	}
	if len(fc.AllowedOrigins) > 0 {
		c.AllowedOrigins = fc.AllowedOrigins
	}
	if fc.ShutdownTimeoutSeconds > 0 {
		c.ShutdownTimeout = time.Duration(fc.ShutdownTimeoutSeconds) * time.Second
	}
	return nil
}

func (c *Config) overlayEnv() {
	c.Env = strings.ToLower(envutil.String("APP_ENV", c.Env))
	c.HTTPAddr = envutil.String("HTTP_ADDR", c.HTTPAddr)
	c.MetricsAddr = envutil.String("METRICS_ADDR", c.MetricsAddr)
	c.JWTSecret = envutil.String("JWT_SECRET", c.JWTSecret)

	c.DB.Driver = envutil.String("DB_DRIVER", c.DB.Driver)
	c.DB.DSN = envutil.String("POSTGRES_DSN", c.DB.DSN)
	c.DB.Host = envutil.String("POSTGRES_HOST", c.DB.Host)
	c.DB.Port = envutil.String("POSTGRES_PORT", c.DB.Port)
	c.DB.User = envutil.String("POSTGRES_USER", c.DB.User)
	c.DB.Password = envutil.String("POSTGRES_PASSWORD", c.DB.Password)
	c.DB.Name = envutil.String("POSTGRES_NAME", c.DB.Name)
	c.DB.SQLitePath = envutil.String("SQLITE_PATH", c.DB.SQLitePath)

	c.SSEHeartbeat = envutil.Seconds("SSE_HEARTBEAT_SECONDS", c.SSEHeartbeat)
	c.SSEBuffer = envutil.Int("SSE_OUTBOUND_BUFFER", c.SSEBuffer)
	c.AllowedOrigins = envutil.List("ALLOWED_ORIGINS", c.AllowedOrigins)
	c.ShutdownTimeout = envutil.Seconds("SHUTDOWN_TIMEOUT_SECONDS", c.ShutdownTimeout)
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
