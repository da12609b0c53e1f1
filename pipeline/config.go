// Package pipeline wires loading, cleaning, encoding, splitting, training,
// evaluation and plotting into one reproducible run.
package pipeline

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/YuminosukeSato/fitattend/pkg/errors"
)

// Config holds one pipeline run's settings, read from the environment.
type Config struct {
	// DataPath points at the bookings CSV. Empty means a synthetic dataset
	// of SyntheticRows rows is generated instead.
	DataPath      string
	SyntheticRows int

	// Seed drives the splitter, model initialization and synthetic data.
	Seed uint64

	// TrainFraction is the share of samples kept for training.
	TrainFraction float64

	// PlotsDir receives the rendered PNG charts. Empty disables plotting.
	PlotsDir string

	LogLevel string
}

// LoadConfig reads settings from .env (when present) and the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg := &Config{
		DataPath:      os.Getenv("FITATTEND_DATA"),
		SyntheticRows: 1500,
		Seed:          42,
		TrainFraction: 0.7,
		PlotsDir:      "plots",
		LogLevel:      "info",
	}

	if v := os.Getenv("FITATTEND_SYNTHETIC_ROWS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, errors.NewParseError("LoadConfig", "FITATTEND_SYNTHETIC_ROWS", v)
		}
		cfg.SyntheticRows = n
	}
	if v := os.Getenv("FITATTEND_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, errors.NewParseError("LoadConfig", "FITATTEND_SEED", v)
		}
		cfg.Seed = seed
	}
	if v := os.Getenv("FITATTEND_TRAIN_FRACTION"); v != "" {
		frac, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.NewParseError("LoadConfig", "FITATTEND_TRAIN_FRACTION", v)
		}
		cfg.TrainFraction = frac
	}
	if v, ok := os.LookupEnv("FITATTEND_PLOTS_DIR"); ok {
		cfg.PlotsDir = v
	}
	if v := os.Getenv("FITATTEND_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if cfg.TrainFraction <= 0 || cfg.TrainFraction >= 1 {
		return nil, errors.NewValueError("LoadConfig", "FITATTEND_TRAIN_FRACTION must be in (0, 1)")
	}
	// log.ToLogLevel panics on anything else, so reject bad levels here.
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, errors.NewParseError("LoadConfig", "FITATTEND_LOG_LEVEL", cfg.LogLevel)
	}
	return cfg, nil
}
