// Package config carga la configuración desde YAML con overrides por
// variables de entorno (prefijo AUTH_ salvo los clásicos APP_ENV y
// LOG_LEVEL). Los defaults viven acá, no en los consumidores.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr            string `yaml:"addr"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage struct {
		// pg | memory
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			MinConns        int    `yaml:"min_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	CSRF struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		TTL   string `yaml:"ttl"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"csrf"`

	JWT struct {
		Issuer         string `yaml:"issuer"`
		PrivateKeyPath string `yaml:"private_key_path"`
		PublicKeyPath  string `yaml:"public_key_path"`
		IDTokenTTL     string `yaml:"id_token_ttl"`
	} `yaml:"jwt"`

	Security struct {
		PasswordPepper string `yaml:"password_pepper"`
	} `yaml:"security"`
}

// Load lee el YAML en path, aplica defaults, overrides de entorno y
// valida. Si path está vacío arranca solo con defaults + entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "30s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "15s"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "pg"
	}
	if c.Storage.Postgres.MaxConns == 0 {
		c.Storage.Postgres.MaxConns = 10
	}
	if c.CSRF.Kind == "" {
		c.CSRF.Kind = "memory"
	}
	if c.CSRF.TTL == "" {
		c.CSRF.TTL = "30m"
	}
	if c.CSRF.Redis.Addr == "" {
		c.CSRF.Redis.Addr = "localhost:6379"
	}
	if c.CSRF.Redis.Prefix == "" {
		c.CSRF.Redis.Prefix = "csrf:"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "http://localhost:8080"
	}
	if c.JWT.PrivateKeyPath == "" {
		c.JWT.PrivateKeyPath = "keys/private.pem"
	}
	if c.JWT.PublicKeyPath == "" {
		c.JWT.PublicKeyPath = "keys/public.pem"
	}
	if c.JWT.IDTokenTTL == "" {
		c.JWT.IDTokenTTL = "1h"
	}

	c.applyEnvOverrides()

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Duraciones ya validadas; los getters no pueden fallar.

func (c *Config) ReadTimeout() time.Duration     { return mustDur(c.Server.ReadTimeout) }
func (c *Config) WriteTimeout() time.Duration    { return mustDur(c.Server.WriteTimeout) }
func (c *Config) ShutdownTimeout() time.Duration { return mustDur(c.Server.ShutdownTimeout) }
func (c *Config) CSRFTTL() time.Duration         { return mustDur(c.CSRF.TTL) }
func (c *Config) IDTokenTTL() time.Duration      { return mustDur(c.JWT.IDTokenTTL) }

func (c *Config) ConnMaxLifetime() time.Duration {
	if c.Storage.Postgres.ConnMaxLifetime == "" {
		return 0
	}
	return mustDur(c.Storage.Postgres.ConnMaxLifetime)
}

func mustDur(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "pg", "memory":
	default:
		return errors.New("config: storage.driver must be pg or memory")
	}
	if c.Storage.Driver == "pg" && strings.TrimSpace(c.Storage.DSN) == "" {
		return errors.New("config: storage.dsn is required for the pg driver")
	}
	switch c.CSRF.Kind {
	case "memory", "redis":
	default:
		return errors.New("config: csrf.kind must be memory or redis")
	}
	for _, s := range []string{
		c.Server.ReadTimeout, c.Server.WriteTimeout, c.Server.ShutdownTimeout,
		c.CSRF.TTL, c.JWT.IDTokenTTL,
	} {
		if _, err := time.ParseDuration(s); err != nil {
			return err
		}
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
			return err
		}
	}
	if strings.EqualFold(c.App.Env, "prod") && c.Security.PasswordPepper == "" {
		return errors.New("config: security.password_pepper is required in prod")
	}
	return nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

// applyEnvOverrides pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvStr("AUTH_SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("AUTH_STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("AUTH_STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("AUTH_CSRF_KIND"); ok {
		c.CSRF.Kind = v
	}
	if v, ok := getEnvStr("AUTH_CSRF_REDIS_ADDR"); ok {
		c.CSRF.Redis.Addr = v
	}
	if v, ok := getEnvInt("AUTH_CSRF_REDIS_DB"); ok {
		c.CSRF.Redis.DB = v
	}
	if v, ok := getEnvStr("AUTH_JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("AUTH_JWT_PRIVATE_KEY_PATH"); ok {
		c.JWT.PrivateKeyPath = v
	}
	if v, ok := getEnvStr("AUTH_JWT_PUBLIC_KEY_PATH"); ok {
		c.JWT.PublicKeyPath = v
	}
	if v, ok := getEnvStr("AUTH_PASSWORD_PEPPER"); ok {
		c.Security.PasswordPepper = v
	}
}
