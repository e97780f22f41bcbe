// cmd/bouncyballs/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opd-ai/go-bouncyballs/pkg/config"
	"github.com/opd-ai/go-bouncyballs/pkg/engine"
	"github.com/opd-ai/go-bouncyballs/pkg/event"
	"github.com/opd-ai/go-bouncyballs/pkg/health"
	"github.com/opd-ai/go-bouncyballs/pkg/logging"
	"github.com/opd-ai/go-bouncyballs/pkg/spawn"
)

func main() {
	logger := logging.NewLogger()
	ctx := logging.WithCorrelationID(context.Background(), "")

	configPath := flag.String("config", "bouncyballs.yaml", "Path to configuration file (.json, .yaml or .yml)")
	createDefault := flag.Bool("default", false, "Create default configuration file")
	flag.Parse()

	if *createDefault {
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default configuration file",
			"config_path", *configPath,
		)
		return
	}

	cfg, err := loadConfig(ctx, logger, *configPath)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err,
			"config_path", *configPath,
		)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error(ctx, "Simulation failed", err)
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context, logger *logging.Logger, path string) (*config.SimulationConfig, error) {
	var cfg *config.SimulationConfig
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Info(ctx, "Configuration file not found, using default configuration",
			"config_path", path,
		)
		cfg = config.DefaultConfig()
	} else {
		cfg, err = config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	if err := config.ApplyEnvironmentOverrides(cfg); err != nil {
		return nil, logging.WrapError(err, "apply environment configuration")
	}
	return cfg, nil
}

// run drives the simulation on a fixed ticker until ctx ends or the
// configured duration elapses.
func run(ctx context.Context, cfg *config.SimulationConfig, logger *logging.Logger) error {
	bus := event.NewEventBus()
	sim, err := engine.NewSimulation(cfg, engine.WithLogger(logger), engine.WithEventBus(bus))
	if err != nil {
		return err
	}

	var spawned, expired uint64
	bus.Subscribe(event.BodySpawned, func(event.Event) { spawned++ })
	bus.Subscribe(event.BodyExpired, func(event.Event) { expired++ })

	period := tickInterval(cfg.Driver.TickRate)
	heartbeat := health.NewHeartbeat(heartbeatMaxAge(period))
	if cfg.Driver.HealthAddr != "" {
		shutdown := serveHealth(ctx, cfg.Driver.HealthAddr, heartbeat, logger)
		defer shutdown()
	}

	if cfg.Driver.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Driver.Duration)
		defer cancel()
	}

	seed := cfg.Driver.Seed
	spawner := spawn.NewSpawner(cfg.Spawn, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))

	tick := time.NewTicker(period)
	defer tick.Stop()
	stats := time.NewTicker(cfg.Driver.StatsInterval)
	defer stats.Stop()

	var spawnC <-chan time.Time
	if cfg.Driver.SpawnInterval > 0 {
		spawnTick := time.NewTicker(cfg.Driver.SpawnInterval)
		defer spawnTick.Stop()
		spawnC = spawnTick.C
	}

	logger.Info(ctx, "Starting simulation",
		"arena_width", sim.Width(),
		"arena_height", sim.Height(),
		"tick_rate", cfg.Driver.TickRate,
		"duration", cfg.Driver.Duration,
		"seed", seed,
	)

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			logStats(ctx, logger, sim, spawned, expired)
			logger.Info(ctx, "Simulation stopped", "reason", context.Cause(ctx).Error())
			return nil

		case now := <-tick.C:
			delta := engine.ClampDelta(now.Sub(last).Seconds(), cfg.Physics.MaxDelta)
			last = now
			sim.Step(delta)
			heartbeat.Beat()

		case <-spawnC:
			origin := spawner.RandomPoint(sim.Width(), sim.Height())
			if _, err := spawner.Burst(sim, origin); err != nil {
				return logging.WrapError(err, "spawn burst")
			}

		case <-stats.C:
			logStats(ctx, logger, sim, spawned, expired)
		}
	}
}

// tickInterval converts a validated tick rate to a ticker period
func tickInterval(tickRate int) time.Duration {
	return time.Second / time.Duration(tickRate)
}

// heartbeatMaxAge allows three missed ticks, and never less than a second
func heartbeatMaxAge(period time.Duration) time.Duration {
	return max(3*period, time.Second)
}

func logStats(ctx context.Context, logger *logging.Logger, sim *engine.Simulation, spawned, expired uint64) {
	s := sim.Stats()
	logger.Info(ctx, "Simulation stats",
		"bodies", s.Bodies,
		"steps", s.Steps,
		"spawned", spawned,
		"expired", expired,
		"collisions_last_step", s.LastCollisions,
		"collisions_total", s.TotalCollisions,
		"refreshes", s.Refreshes,
		"frame_counter", s.FrameCounter,
		"refresh_threshold", s.RefreshThreshold,
	)
}

// serveHealth starts the probe server in the background and returns a
// function that shuts it down.
func serveHealth(ctx context.Context, addr string, heartbeat *health.Heartbeat, logger *logging.Logger) func() {
	checker := health.NewChecker()
	checker.AddCheck(heartbeat)
	checker.AddCheck(health.NewMemoryCheck(500, nil))

	server := &http.Server{
		Addr:         addr,
		Handler:      checker.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info(ctx, "Starting health check server", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "Health check server failed", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "Health check server shutdown failed", err)
		}
	}
}
