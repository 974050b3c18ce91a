package totp

import (
	"sync"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload" // Load .env file automatically
)

var (
	cfg  Config
	once sync.Once
)

type Config struct {
	EncryptionKey string `env:"TOTP_ENCRYPTION_KEY,required"` // Base64-encoded 32-byte key protecting secrets at rest
}

// LoadConfig loads the configuration from the environment exactly once per
// process. Returns an error if the key is missing or unparsable.
func LoadConfig() (Config, error) {
	var err error
	once.Do(func() {
		if err = env.Parse(&cfg); err != nil {
			return
		}
		if cfg.EncryptionKey == "" {
			err = ErrEncryptionKeyNotSet
		}
	})
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}
