// pkg/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate for out-of-range settings
var ErrInvalidConfig = errors.New("invalid configuration")

// MaxTickRate is the highest driver tick rate Validate accepts, in Hz
const MaxTickRate = 1000

// SimulationConfig contains configuration for a bouncing-ball simulation
type SimulationConfig struct {
	Arena   ArenaConfig   `json:"arena" yaml:"arena"`
	Physics PhysicsConfig `json:"physics" yaml:"physics"`
	Index   IndexConfig   `json:"index" yaml:"index"`
	Spawn   SpawnConfig   `json:"spawn" yaml:"spawn"`
	Driver  DriverConfig  `json:"driver" yaml:"driver"`
}

// ArenaConfig fixes the arena extent; it cannot change after construction
type ArenaConfig struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// PhysicsConfig contains resolver and lifetime constants
type PhysicsConfig struct {
	DrainRate         float64 `json:"drainRate" yaml:"drainRate"`
	Bounce            float64 `json:"bounce" yaml:"bounce"`
	CorrectionPercent float64 `json:"correctionPercent" yaml:"correctionPercent"`
	CorrectionSlop    float64 `json:"correctionSlop" yaml:"correctionSlop"`
	RefreshHysteresis float64 `json:"refreshHysteresis" yaml:"refreshHysteresis"`
	MaxDelta          float64 `json:"maxDelta" yaml:"maxDelta"`
}

// IndexConfig tunes the quadtree
type IndexConfig struct {
	MaxObjects int `json:"maxObjects" yaml:"maxObjects"`
	MaxLevels  int `json:"maxLevels" yaml:"maxLevels"`
}

// SpawnConfig contains settings for the random body generator
type SpawnConfig struct {
	MinRadius          float64 `json:"minRadius" yaml:"minRadius"`
	MaxRadius          float64 `json:"maxRadius" yaml:"maxRadius"`
	MinSpeed           float64 `json:"minSpeed" yaml:"minSpeed"`
	MaxSpeed           float64 `json:"maxSpeed" yaml:"maxSpeed"`
	LifetimeMultiplier float64 `json:"lifetimeMultiplier" yaml:"lifetimeMultiplier"`
	RingRadius         float64 `json:"ringRadius" yaml:"ringRadius"`
	Amount             int     `json:"amount" yaml:"amount"`
}

// DriverConfig contains settings for the headless runner
type DriverConfig struct {
	TickRate      int           `json:"tickRate" yaml:"tickRate"`
	SpawnInterval time.Duration `json:"spawnInterval" yaml:"spawnInterval"`
	StatsInterval time.Duration `json:"statsInterval" yaml:"statsInterval"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
	Seed          uint64        `json:"seed" yaml:"seed"`
	HealthAddr    string        `json:"healthAddr" yaml:"healthAddr"` // empty disables the probe server
}

// LoadConfig loads a configuration from a JSON or YAML file. The format is
// chosen by extension; anything other than .yaml/.yml is read as JSON.
func LoadConfig(path string) (*SimulationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves a configuration to a file, in YAML for .yaml/.yml paths
// and JSON otherwise
func SaveConfig(config *SimulationConfig, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// DefaultConfig returns the reference configuration
func DefaultConfig() *SimulationConfig {
	return &SimulationConfig{
		Arena: ArenaConfig{
			Width:  1280,
			Height: 720,
		},
		Physics: PhysicsConfig{
			DrainRate:         1.5,
			Bounce:            0.7,
			CorrectionPercent: 0.2,
			CorrectionSlop:    0.01,
			RefreshHysteresis: 0.08,
			MaxDelta:          2.0,
		},
		Index: IndexConfig{
			MaxObjects: 4,
			MaxLevels:  6,
		},
		Spawn: SpawnConfig{
			MinRadius:          2,
			MaxRadius:          20,
			MinSpeed:           20,
			MaxSpeed:           500,
			LifetimeMultiplier: 10,
			RingRadius:         1,
			Amount:             5,
		},
		Driver: DriverConfig{
			TickRate:      60,
			SpawnInterval: 50 * time.Millisecond,
			StatsInterval: time.Second,
			Duration:      0,
			Seed:          1,
		},
	}
}

// Validate checks that every setting is usable by the simulation
func (c *SimulationConfig) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(positiveFinite(c.Arena.Width), "arena width must be positive, got %v", c.Arena.Width)
	check(positiveFinite(c.Arena.Height), "arena height must be positive, got %v", c.Arena.Height)

	check(finite(c.Physics.DrainRate), "drain rate must be finite")
	check(c.Physics.Bounce >= 0 && c.Physics.Bounce <= 1, "bounce must be in [0,1], got %v", c.Physics.Bounce)
	check(c.Physics.CorrectionPercent >= 0 && c.Physics.CorrectionPercent <= 1,
		"correction percent must be in [0,1], got %v", c.Physics.CorrectionPercent)
	check(c.Physics.CorrectionSlop >= 0 && finite(c.Physics.CorrectionSlop), "correction slop must be non-negative")
	check(c.Physics.RefreshHysteresis >= 0 && finite(c.Physics.RefreshHysteresis), "refresh hysteresis must be non-negative")
	check(positiveFinite(c.Physics.MaxDelta), "max delta must be positive, got %v", c.Physics.MaxDelta)

	check(c.Index.MaxObjects > 0, "index max objects must be positive, got %d", c.Index.MaxObjects)
	check(c.Index.MaxLevels > 0, "index max levels must be positive, got %d", c.Index.MaxLevels)

	check(positiveFinite(c.Spawn.MinRadius), "spawn min radius must be positive, got %v", c.Spawn.MinRadius)
	check(c.Spawn.MaxRadius >= c.Spawn.MinRadius && finite(c.Spawn.MaxRadius), "spawn max radius must be >= min radius")
	check(c.Spawn.MinSpeed >= 0 && c.Spawn.MaxSpeed >= c.Spawn.MinSpeed, "spawn speed range is invalid")
	check(positiveFinite(c.Spawn.LifetimeMultiplier), "spawn lifetime multiplier must be positive")
	check(c.Spawn.RingRadius >= 0, "spawn ring radius must be non-negative")
	check(c.Spawn.Amount >= 0, "spawn amount must be non-negative")

	check(c.Driver.TickRate > 0 && c.Driver.TickRate <= MaxTickRate,
		"driver tick rate must be in [1,%d], got %d", MaxTickRate, c.Driver.TickRate)
	check(c.Driver.SpawnInterval >= 0, "driver spawn interval must be non-negative")
	check(c.Driver.StatsInterval > 0, "driver stats interval must be positive")
	check(c.Driver.Duration >= 0, "driver duration must be non-negative")

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func positiveFinite(v float64) bool {
	return v > 0 && finite(v)
}
