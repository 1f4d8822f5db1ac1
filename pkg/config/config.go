// Package config holds the environment-driven configuration shared by the
// identity service binaries.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/taskhub/identity/pkg/notification"
)

// ServerConfig holds the HTTP listener configuration
type ServerConfig struct {
	Host string `env:"IDENTITY_HOST" env-default:"localhost"`
	Port uint16 `env:"IDENTITY_PORT" env-default:"4000"`
}

// Addr returns the host:port listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds PostgreSQL database configuration. When Host is
// empty the service falls back to the in-memory store, which is only
// suitable for local development.
type DatabaseConfig struct {
	Host     string `env:"IDENTITY_PG_HOST" env-default:""`
	Port     uint16 `env:"IDENTITY_PG_PORT" env-default:"5432"`
	Database string `env:"IDENTITY_PG_DATABASE" env-default:"identity_db"`
	User     string `env:"IDENTITY_PG_USER" env-default:"identity"`
	Password string `env:"IDENTITY_PG_PASSWORD" env-default:"pwd"`
	Schema   string `env:"IDENTITY_PG_SCHEMA" env-default:"public"`
}

// ToDatabaseURL converts the config to a PostgreSQL connection URL
func (d DatabaseConfig) ToDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s,public",
		d.User, d.Password, d.Host, d.Port, d.Database, d.Schema)
}

// JwtConfig holds the session token signing configuration
type JwtConfig struct {
	Secret      string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	Issuer      string `env:"JWT_ISSUER" env-default:"taskhub-identity"`
	Audience    string `env:"JWT_AUDIENCE" env-default:"taskhub-identity"`
	TokenExpiry string `env:"SESSION_TOKEN_EXPIRY" env-default:"4h"`
}

// Expiry parses TokenExpiry, falling back to the given default when the
// value does not parse.
func (j JwtConfig) Expiry(fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(j.TokenExpiry)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// EmailConfig holds SMTP configuration for lifecycle notices
type EmailConfig struct {
	Host     string `env:"EMAIL_HOST" env-default:"localhost"`
	Port     int    `env:"EMAIL_PORT" env-default:"1025"`
	Username string `env:"EMAIL_USERNAME" env-default:"noreply@example.com"`
	Password string `env:"EMAIL_PASSWORD" env-default:"pwd"`
	From     string `env:"EMAIL_FROM" env-default:"noreply@example.com"`
	TLS      bool   `env:"EMAIL_TLS" env-default:"false"`
}

// ToSMTPConfig converts the config to the notification package's SMTPConfig
func (e EmailConfig) ToSMTPConfig() notification.SMTPConfig {
	return notification.SMTPConfig{
		Host:     e.Host,
		Port:     e.Port,
		Username: e.Username,
		Password: e.Password,
		From:     e.From,
		TLS:      e.TLS,
	}
}

// Config is the full service configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Jwt      JwtConfig
	Email    EmailConfig
}

// Load reads the configuration from environment variables
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment config: %w", err)
	}
	return cfg, nil
}
