package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Env                    string
	HTTPAddr               string
	DatabaseURL            string
	BaseURL                string
	JWTSecret              string
	AdminPassword          string
	AdminPassHash          string
	MerchantCallbackDomain string
	Gateway                GatewayConfig
	S3                     S3Config
	Logging                LoggingConfig
}

// GatewayConfig holds the payment gateway endpoint and credentials. SecretKeys
// maps a tenant subdomain to its secret key; SecretKey is the fallback used
// when the confirmation request carries no tenant discriminator.
type GatewayConfig struct {
	BaseURL    string
	SecretKey  string
	SecretKeys map[string]string
}

type S3Config struct {
	Endpoint       string
	PublicEndpoint string
	Bucket         string
	AccessKey      string
	SecretKey      string
	Region         string
	UseSSL         bool
}

type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

func Load() (*Config, error) {
	secretKeys, err := parseSecretKeyMap(os.Getenv("TOSS_SECRET_KEY_MAP"))
	if err != nil {
		return nil, fmt.Errorf("TOSS_SECRET_KEY_MAP: %w", err)
	}

	cfg := &Config{
		Env:                    getenv("APP_ENV", "dev"),
		HTTPAddr:               getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		BaseURL:                getenv("BASE_URL", ""),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		AdminPassword:          os.Getenv("ADMIN_PASSWORD"),
		AdminPassHash:          os.Getenv("ADMIN_PASS_HASH"),
		MerchantCallbackDomain: os.Getenv("MERCHANT_CALLBACK_DOMAIN"),
		Gateway: GatewayConfig{
			BaseURL:    getenv("TOSS_API_BASE_URL", "https://api.tosspayments.com"),
			SecretKey:  os.Getenv("TOSS_SECRET_KEY"),
			SecretKeys: secretKeys,
		},
		S3: S3Config{
			Endpoint:       os.Getenv("S3_ENDPOINT"),
			PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
			Bucket:         os.Getenv("S3_BUCKET"),
			AccessKey:      os.Getenv("S3_ACCESS_KEY"),
			SecretKey:      os.Getenv("S3_SECRET_KEY"),
			Region:         getenv("S3_REGION", "us-east-1"),
			UseSSL:         getenvBool("S3_USE_SSL", true),
		},
		Logging: LoggingConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "text"),
			File:   os.Getenv("LOG_FILE"),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BASE_URL is required")
	}
	if cfg.Gateway.SecretKey == "" && len(cfg.Gateway.SecretKeys) == 0 {
		return nil, fmt.Errorf("TOSS_SECRET_KEY or TOSS_SECRET_KEY_MAP is required")
	}

	return cfg, nil
}

// ResolveSecretKey maps a tenant subdomain to its gateway secret. An empty
// tenant falls back to the default key.
func (c GatewayConfig) ResolveSecretKey(tenant string) (string, bool) {
	if tenant == "" {
		if c.SecretKey == "" {
			return "", false
		}
		return c.SecretKey, true
	}
	key, ok := c.SecretKeys[tenant]
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// parseSecretKeyMap parses the tenant secret map in the shape the merchant
// portal exports it: {"sub": {"TOSS_SECRET_KEY": "sk_..."}}.
func parseSecretKeyMap(raw string) (map[string]string, error) {
	out := make(map[string]string)
	if raw == "" {
		return out, nil
	}
	var parsed map[string]struct {
		SecretKey string `json:"TOSS_SECRET_KEY"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, err
	}
	for sub, entry := range parsed {
		if sub == "" || entry.SecretKey == "" {
			continue
		}
		out[sub] = entry.SecretKey
	}
	return out, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return parsed
}
