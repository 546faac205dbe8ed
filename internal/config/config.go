// Package config loads Banking Syndicate Core tunables from the
// environment, with literal defaults matching spec.md §6.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable the core threads through its constructors.
// Nothing here is read directly from the environment outside Load —
// tests build a Config by hand to vary ALPHA, thresholds, and timeouts.
type Config struct {
	Env      string
	LogLevel string

	// Credit scoring (§4.5, §6)
	DefaultCreditLimit float64
	MinCreditLimit     float64
	MaxCreditLimit     float64
	Alpha              float64

	// Treasury (§4.2.3)
	TreasuryAllocationPercent float64

	// Risk & Compliance (§4.2.2)
	SuspiciousValueThreshold float64

	// Clearing (§4.2.4)
	MaxGasLimit uint64

	// Agentic commerce (§4.6)
	MicropaymentThreshold float64
	BatchTimeout          time.Duration
	ConsensusThreshold    float64
	BillingCycle          time.Duration

	// Validation protocol (§4.4, §6)
	ProtocolDeadline time.Duration
	GasTokenDecimals int
	ChainID          int64

	// Persistence backend (§6 "Persisted state layout")
	RedisURL string

	// Cancellation (§5)
	TransactionDeadline time.Duration
}

// Load reads configuration from environment variables and an optional
// .env file, falling back to spec.md §6 defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:      getEnv("SYNDICATE_ENV", "development"),
		LogLevel: getEnv("SYNDICATE_LOG_LEVEL", "info"),

		DefaultCreditLimit: getEnvFloat("SYNDICATE_DEFAULT_CREDIT_LIMIT", 100.0),
		MinCreditLimit:     getEnvFloat("SYNDICATE_MIN_CREDIT_LIMIT", 10.0),
		MaxCreditLimit:     getEnvFloat("SYNDICATE_MAX_CREDIT_LIMIT", 10000.0),
		Alpha:              getEnvFloat("SYNDICATE_ALPHA", 0.05),

		TreasuryAllocationPercent: getEnvFloat("SYNDICATE_TREASURY_ALLOCATION_PERCENT", 0.80),

		SuspiciousValueThreshold: getEnvFloat("SYNDICATE_SUSPICIOUS_VALUE_THRESHOLD", 1000.0),

		MaxGasLimit: getEnvUint("SYNDICATE_MAX_GAS_LIMIT", 500000),

		MicropaymentThreshold: getEnvFloat("SYNDICATE_MICROPAYMENT_THRESHOLD", 1.0),
		BatchTimeout:          getEnvDuration("SYNDICATE_BATCH_TIMEOUT", 5*time.Minute),
		ConsensusThreshold:    getEnvFloat("SYNDICATE_CONSENSUS_THRESHOLD", 0.66),
		BillingCycle:          getEnvDuration("SYNDICATE_BILLING_CYCLE", 24*time.Hour),

		ProtocolDeadline: getEnvDuration("SYNDICATE_PROTOCOL_DEADLINE", 30*time.Second),
		GasTokenDecimals: int(getEnvInt("SYNDICATE_GAS_TOKEN_DECIMALS", 6)),
		ChainID:          int64(getEnvInt("SYNDICATE_CHAIN_ID", 1)),

		RedisURL: getEnv("SYNDICATE_REDIS_URL", ""),

		TransactionDeadline: getEnvDuration("SYNDICATE_TRANSACTION_DEADLINE", 30*time.Second),
	}
}

// IsDevelopment reports whether the core is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvUint(key string, fallback uint64) uint64 {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseUint(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
