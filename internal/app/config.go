package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coursevault/coursevault-backend/internal/platform/envutil"
	"github.com/coursevault/coursevault-backend/internal/platform/logger"
)

type Config struct {
	Environment          string        `yaml:"environment"`
	Port                 string        `yaml:"port"`
	JWTSecretKey         string        `yaml:"jwt_secret_key"`
	AccessTokenTTL       time.Duration `yaml:"access_token_ttl"`
	SignedURLTTL         time.Duration `yaml:"signed_url_ttl"`
	PlatformName         string        `yaml:"platform_name"`
	PaymentWebhookSecret string        `yaml:"payment_webhook_secret"`
	AllowOrigins         []string      `yaml:"allow_origins"`
}

// LoadConfig reads the environment, then lets an optional YAML file
// (CONFIG_FILE) override whatever it sets. Env is the baseline so containers
// work without any file mounted.
func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Environment:          envutil.Str("APP_ENV", "development"),
		Port:                 envutil.Str("PORT", "8080"),
		JWTSecretKey:         envutil.Str("JWT_SECRET_KEY", "defaultsecret"),
		AccessTokenTTL:       envutil.Dur("ACCESS_TOKEN_TTL", time.Hour),
		SignedURLTTL:         envutil.Dur("SIGNED_URL_TTL", 5*time.Minute),
		PlatformName:         envutil.Str("PLATFORM_NAME", "CourseVault"),
		PaymentWebhookSecret: envutil.Str("PAYMENT_WEBHOOK_SECRET", ""),
	}

	if path := envutil.Str("CONFIG_FILE", ""); path != "" {
		if err := applyConfigFile(&cfg, path); err != nil {
			log.Warn("config file ignored", "path", path, "error", err)
		} else {
			log.Info("config file applied", "path", path)
		}
	}

	if cfg.JWTSecretKey == "defaultsecret" {
		log.Warn("JWT_SECRET_KEY not set, using insecure default")
	}
	if cfg.PaymentWebhookSecret == "" {
		log.Warn("PAYMENT_WEBHOOK_SECRET not set, payment webhook will reject all calls")
	}
	return cfg
}

func applyConfigFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
