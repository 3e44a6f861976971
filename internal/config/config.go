// Package config loads runtime configuration the way the teacher's
// cmd/engine/main.go does: secrets and connection endpoints from
// environment variables via requireEnv/getEnvOrDefault, with no fallback
// defaults for anything security-sensitive. The one addition is the
// safety-policy file, loaded from YAML with gopkg.in/yaml.v2 following
// blinklabs-io-shai's convention in the example corpus -- the only pack
// repo that configures itself from a YAML file rather than flags/env.
package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/rawblock/privacypool/internal/safety"
)

// Runtime bundles every environment-derived setting cmd/relayer/main.go
// needs to wire the node, signer, database, and API server.
type Runtime struct {
	NodeBaseURL string
	NodeAPIKey  string

	SignerBaseURL string

	DatabaseURL string

	PoolID             string
	PoolScriptHash      string
	DepositScriptHash   string
	WithdrawScriptHash  string
	FeeErgoTree         string
	MinerFee            int64

	Port   string
	DryRun bool
}

// LoadRuntime reads every required/optional environment variable,
// mirroring the teacher's requireEnv/getEnvOrDefault split between
// secrets (fatal if missing) and non-secret tunables (safe defaults).
func LoadRuntime() Runtime {
	return Runtime{
		NodeBaseURL:        requireEnv("NODE_BASE_URL"),
		NodeAPIKey:         os.Getenv("NODE_API_KEY"),
		SignerBaseURL:      requireEnv("SIGNER_BASE_URL"),
		DatabaseURL:        requireEnv("DATABASE_URL"),
		PoolID:             getEnvOrDefault("POOL_ID", ""),
		PoolScriptHash:     requireEnv("POOL_SCRIPT_HASH"),
		DepositScriptHash:  requireEnv("DEPOSIT_SCRIPT_HASH"),
		WithdrawScriptHash: requireEnv("WITHDRAW_SCRIPT_HASH"),
		FeeErgoTree:        getEnvOrDefault("FEE_ERGO_TREE", ""),
		MinerFee:           1_100_000,
		Port:               getEnvOrDefault("PORT", "5339"),
		DryRun:             os.Getenv("DRY_RUN") == "true",
	}
}

// safetyFile is the on-disk YAML shape for the guardrail policy, mirroring
// the original SDK's SafetyConfig fields one-for-one.
type safetyFile struct {
	MaxNanoErgPerTx  int64    `yaml:"max_nanoerg_per_tx"`
	MaxNanoErgPerDay int64    `yaml:"max_nanoerg_per_day"`
	AllowedErgoTrees []string `yaml:"allowed_ergo_trees"`
	RateLimitPerHour int      `yaml:"rate_limit_per_hour"`
	DryRun           bool     `yaml:"dry_run"`
}

// LoadSafetyPolicy reads a YAML safety-policy file at path and returns a
// ready safety.Policy. A missing file is not fatal -- it logs a warning
// and falls back to a conservative built-in default, since a relayer
// should never start completely unguarded.
func LoadSafetyPolicy(path string) (*safety.Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Printf("config: safety policy file %s not readable (%v); using conservative defaults", path, err)
		return safety.NewPolicy(defaultSafetyConfig()), nil
	}

	var f safetyFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("config: failed to parse safety policy yaml %s: %w", path, err)
	}

	return safety.NewPolicy(safety.Config{
		MaxNanoErgPerTx:  f.MaxNanoErgPerTx,
		MaxNanoErgPerDay: f.MaxNanoErgPerDay,
		AllowedErgoTrees: f.AllowedErgoTrees,
		RateLimitPerHour: f.RateLimitPerHour,
		DryRun:           f.DryRun,
	}), nil
}

func defaultSafetyConfig() safety.Config {
	return safety.Config{
		MaxNanoErgPerTx:  1_000_000_000,  // 1 ERG
		MaxNanoErgPerDay: 10_000_000_000, // 10 ERG
		RateLimitPerHour: 20,
		DryRun:           true,
	}
}

// requireEnv reads a required environment variable and exits if it is not
// set, preventing the binary from starting with missing critical
// configuration.
func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("FATAL: required environment variable %s is not set", key)
	}
	return val
}

// getEnvOrDefault returns the env var value or a safe default for
// non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
