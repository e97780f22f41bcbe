package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables read by ApplyEnvironmentOverrides
const (
	EnvArenaWidth      = "BOUNCY_ARENA_WIDTH"
	EnvArenaHeight     = "BOUNCY_ARENA_HEIGHT"
	EnvDrainRate       = "BOUNCY_DRAIN_RATE"
	EnvBounce          = "BOUNCY_BOUNCE"
	EnvMaxDelta        = "BOUNCY_MAX_DELTA"
	EnvIndexMaxObjects = "BOUNCY_INDEX_MAX_OBJECTS"
	EnvIndexMaxLevels  = "BOUNCY_INDEX_MAX_LEVELS"
	EnvTickRate        = "BOUNCY_TICK_RATE"
	EnvDuration        = "BOUNCY_DURATION"
	EnvSeed            = "BOUNCY_SEED"
	EnvHealthAddr      = "BOUNCY_HEALTH_ADDR"
)

// ApplyEnvironmentOverrides replaces settings with any BOUNCY_* variables
// present in the environment, then validates the result.
func ApplyEnvironmentOverrides(config *SimulationConfig) error {
	floats := []struct {
		key    string
		target *float64
	}{
		{EnvArenaWidth, &config.Arena.Width},
		{EnvArenaHeight, &config.Arena.Height},
		{EnvDrainRate, &config.Physics.DrainRate},
		{EnvBounce, &config.Physics.Bounce},
		{EnvMaxDelta, &config.Physics.MaxDelta},
	}
	for _, f := range floats {
		if err := overrideFloat(f.key, f.target); err != nil {
			return err
		}
	}

	ints := []struct {
		key    string
		target *int
	}{
		{EnvIndexMaxObjects, &config.Index.MaxObjects},
		{EnvIndexMaxLevels, &config.Index.MaxLevels},
		{EnvTickRate, &config.Driver.TickRate},
	}
	for _, i := range ints {
		if err := overrideInt(i.key, i.target); err != nil {
			return err
		}
	}

	if err := overrideDuration(EnvDuration, &config.Driver.Duration); err != nil {
		return err
	}
	if err := overrideUint(EnvSeed, &config.Driver.Seed); err != nil {
		return err
	}
	if addr, ok := os.LookupEnv(EnvHealthAddr); ok {
		config.Driver.HealthAddr = addr
	}

	return config.Validate()
}

func overrideFloat(key string, target *float64) error {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	*target = v
	return nil
}

func overrideInt(key string, target *int) error {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	*target = v
	return nil
}

func overrideUint(key string, target *uint64) error {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	*target = v
	return nil
}

func overrideDuration(key string, target *time.Duration) error {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	*target = v
	return nil
}
