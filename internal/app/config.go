package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/clivefinesse/jobtracker/internal/auth"
	"github.com/clivefinesse/jobtracker/internal/database"
	"github.com/clivefinesse/jobtracker/pkg/mail"
)

// Config represents the runtime configuration for the jobtracker backend.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Email    EmailConfig    `mapstructure:"email"`
	URLs     URLConfig      `mapstructure:"urls"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// AuthConfig captures token-related settings. SecretKey signs both JWTs and
// the emailed account tokens.
type AuthConfig struct {
	SecretKey     string              `mapstructure:"secret_key"`
	JWT           JWTSettings         `mapstructure:"jwt"`
	AccountTokens AccountTokenSetting `mapstructure:"account_tokens"`
}

// JWTSettings configures issued token pairs.
type JWTSettings struct {
	Issuer     string        `mapstructure:"issuer"`
	AccessTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// AccountTokenSetting controls the emailed verification/reset tokens.
type AccountTokenSetting struct {
	Expiry time.Duration `mapstructure:"expiry"`
}

// EmailConfig captures outbound email settings.
type EmailConfig struct {
	SMTP SMTPConfig `mapstructure:"smtp"`
}

// SMTPConfig defines SMTP dialer settings for sending email.
type SMTPConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	UseTLS   bool          `mapstructure:"use_tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// URLConfig lists the link destinations used in emails and redirects.
type URLConfig struct {
	Frontend string `mapstructure:"frontend"`
	Backend  string `mapstructure:"backend"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("JOBTRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

// Validate reports configuration errors that must block start-up.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.SecretKey) == "" {
		return errors.New("auth.secret_key must be configured")
	}
	return nil
}

// JWTServiceConfig maps configuration onto the JWT service.
func (c *Config) JWTServiceConfig() auth.JWTConfig {
	return auth.JWTConfig{
		Secret:          c.Auth.SecretKey,
		Issuer:          c.Auth.JWT.Issuer,
		AccessTokenTTL:  c.Auth.JWT.AccessTTL,
		RefreshTokenTTL: c.Auth.JWT.RefreshTTL,
	}
}

// AccountTokenServiceConfig maps configuration onto the account token service.
func (c *Config) AccountTokenServiceConfig() auth.AccountTokenConfig {
	return auth.AccountTokenConfig{
		Secret: c.Auth.SecretKey,
		Expiry: c.Auth.AccountTokens.Expiry,
	}
}

// DatabaseServiceConfig maps configuration onto the database layer.
func (c *Config) DatabaseServiceConfig() database.Config {
	return database.Config{
		Driver:   c.Database.Driver,
		Path:     c.Database.Path,
		DSN:      c.Database.DSN,
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		Name:     c.Database.Name,
		User:     c.Database.User,
		Password: c.Database.Password,
	}
}

// SMTPSettings maps configuration onto the mailer.
func (c *Config) SMTPSettings() mail.SMTPSettings {
	return mail.SMTPSettings{
		Enabled:  c.Email.SMTP.Enabled,
		Host:     c.Email.SMTP.Host,
		Port:     c.Email.SMTP.Port,
		Username: c.Email.SMTP.Username,
		Password: c.Email.SMTP.Password,
		From:     c.Email.SMTP.From,
		UseTLS:   c.Email.SMTP.UseTLS,
		Timeout:  c.Email.SMTP.Timeout,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/jobtracker.sqlite")

	// Registered empty so the JOBTRACKER_AUTH_SECRET_KEY env var is visible
	// to Unmarshal.
	v.SetDefault("auth.secret_key", "")

	v.SetDefault("auth.jwt.issuer", "jobtracker")
	v.SetDefault("auth.jwt.access_token_ttl", "15m")
	v.SetDefault("auth.jwt.refresh_token_ttl", "168h") // 7 days
	v.SetDefault("auth.account_tokens.expiry", "72h")

	v.SetDefault("email.smtp.enabled", false)
	v.SetDefault("email.smtp.host", "")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.use_tls", true)
	v.SetDefault("email.smtp.timeout", "10s")

	v.SetDefault("urls.frontend", "http://localhost:3000")
	v.SetDefault("urls.backend", "http://localhost:8000")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
