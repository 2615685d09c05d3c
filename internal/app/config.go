package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is loaded from the environment. Defaults are suitable for local
// development; production deployments set at least ISSUER and the SMTP
// settings.
type Config struct {
	Issuer   string   `env:"ISSUER" envDefault:"q360"`
	Audience []string `env:"AUDIENCE" envSeparator:","`

	NumKeys    int           `env:"NUM_KEYS" envDefault:"3"`
	AccessTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	DatabaseFile string `env:"DATABASE_FILE" envDefault:"q360.db"`
	PepperFile   string `env:"PEPPER_FILE" envDefault:"pepper"`

	// SMTPAddr empty means emails are written to the log instead.
	SMTPAddr  string `env:"SMTP_ADDR"`
	SMTPFrom  string `env:"SMTP_FROM" envDefault:"no-reply@q360.local"`
	PublicURL string `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`

	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Port                 int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
}

// LoadConfig parses the environment into a Config.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
