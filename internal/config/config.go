package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvLogLevel = "PERTLOOM_LOG_LEVEL"
	EnvDecimals = "PERTLOOM_DECIMALS"
	EnvTarget   = "PERTLOOM_TARGET"
	EnvModel    = "PERTLOOM_MODEL"
)

// Config holds settings shared by every command. Flags override it.
type Config struct {
	LogLevel string
	Decimals int
	Target   float64
	Model    string

	HasTarget bool // Target came from the environment
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel: "warn",
		Decimals: 2,
	}
}

// Load applies an optional env file, then the environment, over Default.
// A missing default ".env" is not an error; a missing explicit envFile is.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := Default()
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvDecimals); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("%s: want a non-negative integer, got %q", EnvDecimals, v)
		}
		cfg.Decimals = n
	}
	if v := os.Getenv(EnvTarget); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvTarget, err)
		}
		cfg.Target = f
		cfg.HasTarget = true
	}
	cfg.Model = os.Getenv(EnvModel)
	return cfg, nil
}
