// Package config reads environment variables and an optional config.toml
// into one Config value that is passed to every component at construction.
package config

import (
	"errors"
	"fmt"
	"time"

	v "github.com/spf13/viper"

	"github.com/Kohanchuk66/anime-back/internal/auth"
)

type Config struct {
	ServerAddress  string
	FrontendOrigin string

	MongoURI string
	MongoDB  string

	Tokens     auth.TokenConfig
	BcryptCost int

	SendGridAPIKey string
	MailFrom       string
	MailFromName   string

	RecaptchaSecret string

	UploadDir       string
	MaxUploadSizeMB int64

	LogLevel string
}

// Load binds env vars, applies defaults and validates the secrets the token
// layer cannot run without.
func Load() (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.BindEnv("server.address", "SERVER_ADDRESS")
	v.BindEnv("server.frontend_origin", "FRONTEND_ORIGIN")

	v.BindEnv("mongo.uri", "MONGO_URI")
	v.BindEnv("mongo.db", "MONGO_DB")

	v.BindEnv("tokens.access_secret", "ACCESS_TOKEN_SECRET_KEY")
	v.BindEnv("tokens.refresh_secret", "REFRESH_TOKEN_SECRET_KEY")
	v.BindEnv("tokens.verify_secret", "EMAIL_VERIFY_TOKEN_SECRET_KEY")
	v.BindEnv("tokens.reset_secret", "RESET_PASSWORD_TOKEN_SECRET_KEY")
	v.BindEnv("tokens.access_ttl", "ACCESS_TOKEN_EXPIRATION")
	v.BindEnv("tokens.refresh_ttl", "REFRESH_TOKEN_EXPIRATION")
	v.BindEnv("tokens.verify_ttl", "EMAIL_VERIFY_TOKEN_EXPIRATION")
	v.BindEnv("tokens.reset_ttl", "RESET_PASSWORD_TOKEN_EXPIRATION")

	v.BindEnv("auth.bcrypt_cost", "BCRYPT_COST")

	v.BindEnv("mail.sendgrid_api_key", "SENDGRID_API_KEY")
	v.BindEnv("mail.from", "MAIL_FROM")
	v.BindEnv("mail.from_name", "MAIL_FROM_NAME")

	v.BindEnv("recaptcha.secret", "RECAPTCHA_SECRET")

	v.BindEnv("upload.dir", "UPLOAD_DIR")
	v.BindEnv("upload.max_size_mb", "UPLOAD_MAX_SIZE_MB")

	v.BindEnv("app.log_level", "APP_LOG_LEVEL")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("mongo.db", "connetwork")
	v.SetDefault("tokens.access_ttl", "15m")
	v.SetDefault("tokens.refresh_ttl", "24h")
	v.SetDefault("tokens.verify_ttl", "30m")
	v.SetDefault("tokens.reset_ttl", "30m")
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("mail.from_name", "Connetwork Forum")
	v.SetDefault("upload.dir", "./uploads")
	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("app.log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		ServerAddress:  v.GetString("server.address"),
		FrontendOrigin: v.GetString("server.frontend_origin"),
		MongoURI:       v.GetString("mongo.uri"),
		MongoDB:        v.GetString("mongo.db"),
		Tokens: auth.TokenConfig{
			AccessSecret:  v.GetString("tokens.access_secret"),
			AccessTTL:     v.GetDuration("tokens.access_ttl"),
			RefreshSecret: v.GetString("tokens.refresh_secret"),
			RefreshTTL:    v.GetDuration("tokens.refresh_ttl"),
			VerifySecret:  v.GetString("tokens.verify_secret"),
			VerifyTTL:     v.GetDuration("tokens.verify_ttl"),
			ResetSecret:   v.GetString("tokens.reset_secret"),
			ResetTTL:      v.GetDuration("tokens.reset_ttl"),
		},
		BcryptCost:      v.GetInt("auth.bcrypt_cost"),
		SendGridAPIKey:  v.GetString("mail.sendgrid_api_key"),
		MailFrom:        v.GetString("mail.from"),
		MailFromName:    v.GetString("mail.from_name"),
		RecaptchaSecret: v.GetString("recaptcha.secret"),
		UploadDir:       v.GetString("upload.dir"),
		MaxUploadSizeMB: v.GetInt64("upload.max_size_mb"),
		LogLevel:        v.GetString("app.log_level"),
	}

	if cfg.MongoURI == "" {
		return nil, errors.New("MONGO_URI is required")
	}
	for name, secret := range map[string]string{
		"ACCESS_TOKEN_SECRET_KEY":         cfg.Tokens.AccessSecret,
		"REFRESH_TOKEN_SECRET_KEY":        cfg.Tokens.RefreshSecret,
		"EMAIL_VERIFY_TOKEN_SECRET_KEY":   cfg.Tokens.VerifySecret,
		"RESET_PASSWORD_TOKEN_SECRET_KEY": cfg.Tokens.ResetSecret,
	} {
		if secret == "" {
			return nil, fmt.Errorf("%s is required", name)
		}
	}
	if cfg.Tokens.RefreshTTL < time.Minute {
		return nil, errors.New("refresh token lifetime is too short")
	}
	return cfg, nil
}
