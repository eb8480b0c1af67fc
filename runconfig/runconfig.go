// Package runconfig loads the configuration a program embedding this
// module needs to wire up a run: the trading-day convention used to
// annualize statistics, the base currency a simulation values everything
// in, and the log level the ambient logrus logger should run at. Modeled
// directly on the teacher's config/config.go loader.
package runconfig

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// RunConfig holds the settings a simulation run needs from its environment.
type RunConfig struct {
	// TradingDaysPerYear is the annualization convention used throughout
	// internal/kernel (annualizedReturn, annualizedVolatility, CAGR). Must be
	// a positive integer (spec.md §4.A: InvalidTradingDays on anything else).
	TradingDaysPerYear int
	// BaseCurrency is the currency equity curves and tearsheet metrics are
	// denominated in.
	BaseCurrency string
	// LogLevel is the level the embedding program's logrus logger should be
	// configured at; this package only reads the value, it does not call
	// logrus.SetLevel itself, since owning global logger state is the
	// embedding program's job, not this library's.
	LogLevel string
}

// Load reads configuration from environment variables, falling back to a
// .env file in the working directory if one exists (shell environment
// variables still take precedence over .env values).
func Load() (*RunConfig, error) {
	_ = godotenv.Load()

	baseCurrency := os.Getenv("BASE_CURRENCY")
	if baseCurrency == "" {
		return nil, fmt.Errorf("BASE_CURRENCY environment variable is required")
	}

	tradingDays := os.Getenv("TRADING_DAYS_PER_YEAR")
	if tradingDays == "" {
		tradingDays = "252"
	}
	days, err := strconv.Atoi(tradingDays)
	if err != nil || days <= 0 {
		return nil, fmt.Errorf("TRADING_DAYS_PER_YEAR must be a positive integer, got %q", tradingDays)
	}

	logLevel := os.Getenv("LOGLEVEL")
	if logLevel == "" {
		logLevel = "Warning"
	}

	return &RunConfig{
		TradingDaysPerYear: days,
		BaseCurrency:       baseCurrency,
		LogLevel:           logLevel,
	}, nil
}
