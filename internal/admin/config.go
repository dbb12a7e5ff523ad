package admin

import (
	"flag"
	"io"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the settings of the authadmin tool. Flags override the
// environment.
type Config struct {
	ServerURL string        `env:"AUTH_ADMIN_URL"`
	APIKey    string        `env:"AUTH_INTERNAL_API_KEY"`
	Timeout   time.Duration `env:"AUTH_ADMIN_TIMEOUT"`
}

func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.Timeout = 10 * time.Second
}

// LoadConfig returns the config and the positional arguments (account ids).
func LoadConfig(args []string) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := env.Parse(cfg); err != nil {
		return nil, nil, err
	}

	fs := flag.NewFlagSet("authadmin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.ServerURL, "u", cfg.ServerURL, "base URL of the GophAuth server")
	fs.DurationVar(&cfg.Timeout, "t", cfg.Timeout, "request timeout")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return cfg, fs.Args(), nil
}
