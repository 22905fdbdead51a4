package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
	AccessTTL    string
}

type MercadoPagoConfig struct {
	AccessToken   string
	PublicKey     string
	WebhookSecret string
	BaseURL       string
	SuccessURL    string
	FailureURL    string
	PendingURL    string
}

type LedgerConfig struct {
	// Chart-of-accounts slot the request automation books sales under.
	CategoryName    string
	SubcategoryName string
	ProductName     string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	MercadoPago MercadoPagoConfig
	Ledger      LedgerConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			AllowedOrigins: v.GetStringSlice("HTTP_ALLOWED_ORIGINS"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
			AccessTTL:    v.GetString("JWT_ACCESS_TTL"),
		},
		MercadoPago: MercadoPagoConfig{
			AccessToken:   v.GetString("MERCADOPAGO_ACCESS_TOKEN"),
			PublicKey:     v.GetString("MERCADOPAGO_PUBLIC_KEY"),
			WebhookSecret: v.GetString("MERCADOPAGO_WEBHOOK_SECRET"),
			BaseURL:       v.GetString("MERCADOPAGO_BASE_URL"),
			SuccessURL:    v.GetString("MERCADOPAGO_SUCCESS_URL"),
			FailureURL:    v.GetString("MERCADOPAGO_FAILURE_URL"),
			PendingURL:    v.GetString("MERCADOPAGO_PENDING_URL"),
		},
		Ledger: LedgerConfig{
			CategoryName:    v.GetString("LEDGER_CATEGORY_NAME"),
			SubcategoryName: v.GetString("LEDGER_SUBCATEGORY_NAME"),
			ProductName:     v.GetString("LEDGER_PRODUCT_NAME"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Auth.AccessTTL == "" {
		cfg.Auth.AccessTTL = "24h"
	}
	if cfg.MercadoPago.BaseURL == "" {
		cfg.MercadoPago.BaseURL = "https://api.mercadopago.com"
	}
	if cfg.Ledger.CategoryName == "" {
		cfg.Ledger.CategoryName = "MEI Services"
	}
	if cfg.Ledger.SubcategoryName == "" {
		cfg.Ledger.SubcategoryName = "MEI Registration"
	}
	if cfg.Ledger.ProductName == "" {
		cfg.Ledger.ProductName = "MEI Registration"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.MercadoPago.AccessToken == "" {
		return fmt.Errorf("MERCADOPAGO_ACCESS_TOKEN is required")
	}
	return nil
}
