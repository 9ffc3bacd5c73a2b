package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL   string
	RedisAddress  string
	RedisPassword string
	RedisDB       int

	JWTSecret       string
	Issuer          string
	Audience        string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	OTPTTL         time.Duration
	PasswordPepper string

	HTTPAddress  string
	CookieDomain string

	AMQPUrl       string
	NotifyQueue   string
	NotifyTimeout time.Duration

	AllowedOrigins   []string
	AllowCredentials bool
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	for _, key := range []string{
		"DATABASE_URL", "REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB",
		"JWT_SECRET", "JWT_ISSUER", "JWT_AUDIENCE",
		"ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
		"OTP_TTL", "PASSWORD_PEPPER",
		"HTTP_ADDRESS", "COOKIE_DOMAIN",
		"AMQP_URL", "NOTIFY_QUEUE", "NOTIFY_TIMEOUT",
		"ALLOWED_ORIGINS", "ALLOW_CREDENTIALS",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	v.SetDefault("ACCESS_TOKEN_TTL", "24h")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")
	v.SetDefault("OTP_TTL", "10m")
	v.SetDefault("NOTIFY_TIMEOUT", "5s")
	v.SetDefault("NOTIFY_QUEUE", "notifications.email")
	v.SetDefault("HTTP_ADDRESS", ":8080")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:      v.GetString("DATABASE_URL"),
		RedisAddress:     v.GetString("REDIS_ADDRESS"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		Issuer:           v.GetString("JWT_ISSUER"),
		Audience:         v.GetString("JWT_AUDIENCE"),
		AccessTokenTTL:   v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:  v.GetDuration("REFRESH_TOKEN_TTL"),
		OTPTTL:           v.GetDuration("OTP_TTL"),
		PasswordPepper:   v.GetString("PASSWORD_PEPPER"),
		HTTPAddress:      v.GetString("HTTP_ADDRESS"),
		CookieDomain:     v.GetString("COOKIE_DOMAIN"),
		AMQPUrl:          v.GetString("AMQP_URL"),
		NotifyQueue:      v.GetString("NOTIFY_QUEUE"),
		NotifyTimeout:    v.GetDuration("NOTIFY_TIMEOUT"),
		AllowedOrigins:   v.GetStringSlice("ALLOWED_ORIGINS"),
		AllowCredentials: v.GetBool("ALLOW_CREDENTIALS"),
	}

	for name, val := range map[string]string{
		"DATABASE_URL":  cfg.DatabaseURL,
		"REDIS_ADDRESS": cfg.RedisAddress,
		"JWT_SECRET":    cfg.JWTSecret,
		"JWT_ISSUER":    cfg.Issuer,
		"JWT_AUDIENCE":  cfg.Audience,
	} {
		if val == "" {
			return nil, fmt.Errorf("missing required config: %s", name)
		}
	}

	return cfg, nil
}
