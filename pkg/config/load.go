package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/smartledger/pkg/money"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load reads the first env file found among envFilePath (searched upward from the
// working directory), falling back to .env, then fills App from the environment.
func Load(envFilePath ...string) (*App, error) {
	logger := slog.Default()
	logger.Info("Loading environment variables")

	// If no specific paths provided, try default .env
	if len(envFilePath) == 0 {
		logger.Debug("No environment file specified, trying default .env")
		if err := godotenv.Load(); err != nil {
			logger.Warn("No .env file found in current directory")
		}
		return loadFromEnv()
	}

	// Try each provided path until we find a valid one
	for _, path := range envFilePath {
		logger.Debug("Looking for environment file", "path", path)
		foundPath, err := FindEnvFile(path)
		if err != nil {
			logger.Debug("Environment file not found", "path", path, "error", err)
			continue
		}

		logger.Info("Loading environment from file", "path", foundPath)
		if err := godotenv.Load(foundPath); err != nil {
			logger.Error("Failed to load environment file", "path", foundPath, "error", err)
			continue
		}

		// Successfully loaded a file, proceed with config loading
		return loadFromEnv()
	}

	// No valid environment files found, try default .env as fallback
	logger.Info("No valid environment files found, using default .env")
	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found in current directory")
	}
	return loadFromEnv()
}

func loadFromEnv() (*App, error) {
	var cfg App
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	// Set default values if not set
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := slog.Default()
	logger.Info("App config loaded",
		"env", cfg.Env,
		"db", maskValue(cfg.DB.Url),
		"ledger_currency", cfg.Ledger.Currency,
		"ledger_service_fee", cfg.Ledger.ServiceFeeFlat.String(),
		"bills_roundup_enabled", cfg.Bills.RoundupEnabled,
		"log_format", cfg.Log.Format,
	)
	return &cfg, nil
}

func maskValue(key string) string {
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}

func (a *App) validate() error {
	a.Ledger.Currency = strings.ToUpper(strings.TrimSpace(a.Ledger.Currency))
	if !money.Code(a.Ledger.Currency).IsValid() {
		return fmt.Errorf("LEDGER_CURRENCY %q: %w", a.Ledger.Currency, money.ErrInvalidCurrency)
	}
	if a.Ledger.ServiceFeeFlat.IsNegative() {
		return fmt.Errorf("LEDGER_SERVICE_FEE_FLAT %s: %w", a.Ledger.ServiceFeeFlat, money.ErrInvalidAmount)
	}
	return nil
}
