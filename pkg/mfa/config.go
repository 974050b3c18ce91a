package mfa

import (
	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload" // Load .env file automatically

	"github.com/dmitrymomot/stepupkit/pkg/totp"
)

// Config holds environment-driven settings for the MFA service.
type Config struct {
	// Issuer is the service name shown in authenticator apps.
	Issuer string `env:"MFA_ISSUER" envDefault:"stepupkit"`

	// RecoveryCodeCount is how many backup codes each batch contains.
	RecoveryCodeCount int `env:"MFA_RECOVERY_CODE_COUNT" envDefault:"10"`

	// QRCodeSize is the enrollment QR image size in pixels.
	QRCodeSize int `env:"MFA_QR_CODE_SIZE" envDefault:"256"`
}

// LoadConfig parses the configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	err := env.Parse(&cfg)
	return cfg, err
}

func (c Config) withDefaults() Config {
	if c.Issuer == "" {
		c.Issuer = "stepupkit"
	}
	if c.RecoveryCodeCount <= 0 {
		c.RecoveryCodeCount = totp.DefaultRecoveryCodeCount
	}
	if c.QRCodeSize <= 0 {
		c.QRCodeSize = 256
	}
	return c
}
