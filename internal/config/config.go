package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Feed struct {
	URL       string `yaml:"url" env:"FEED_URL" env-default:"wss://ws-feed.exchange.coinbase.com"`
	ProxyAddr string `yaml:"proxy_addr" env:"FEED_PROXY_ADDR"`
}

type Config struct {
	Feed          Feed          `yaml:"feed"`
	SymbolsFile   string        `yaml:"symbols_file" env:"SYMBOLS_FILE" env-default:"crypto.csv"`
	PrintInterval time.Duration `yaml:"print_interval" env:"PRINT_INTERVAL" env-default:"30s"`
}

// New reads configuration from the file at path. A missing file is not an
// error: environment variables and defaults apply instead.
func New(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return &cfg, nil
}
