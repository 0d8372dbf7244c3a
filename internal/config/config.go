package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
)

type Config struct {
	Primary    Primary          `koanf:"primary"`
	Server     ServerConfig     `koanf:"server"`
	Logger     LoggerConfig     `koanf:"logger"`
	Database   DatabaseConfig   `koanf:"database"`
	Banks      BanksConfig      `koanf:"banks"`
	Client     ClientConfig     `koanf:"client"`
	Compliance ComplianceConfig `koanf:"compliance"`
	Upstream   UpstreamConfig   `koanf:"upstream"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
}

type LoggerConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

// BanksConfig lists the three interchangeable sandbox banks this portal can
// talk to. Financial ids are only needed when compliance headers are enabled.
type BanksConfig struct {
	VBankBaseURL     string `koanf:"vbank_base_url" validate:"required"`
	ABankBaseURL     string `koanf:"abank_base_url" validate:"required"`
	SBankBaseURL     string `koanf:"sbank_base_url" validate:"required"`
	VBankFinancialID string `koanf:"vbank_financial_id"`
	ABankFinancialID string `koanf:"abank_financial_id"`
	SBankFinancialID string `koanf:"sbank_financial_id"`
}

// ClientConfig identifies our own team towards the upstream banks. The id is
// also what goes into the X-Requesting-Bank header on every outbound call.
type ClientConfig struct {
	ID     string `koanf:"id" validate:"required"`
	Secret string `koanf:"secret" validate:"required"`
}

type ComplianceConfig struct {
	SendFAPIHeaders   bool   `koanf:"send_fapi_headers"`
	DefaultCustomerIP string `koanf:"default_customer_ip"`
}

type UpstreamConfig struct {
	Timeout time.Duration `koanf:"timeout" validate:"required"`
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	err := k.Load(env.Provider("PORTAL_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "PORTAL_")),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}
