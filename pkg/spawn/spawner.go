// Package spawn generates bursts of randomised bodies around a point.
package spawn

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/opd-ai/go-bouncyballs/pkg/config"
	"github.com/opd-ai/go-bouncyballs/pkg/entity"
	"github.com/opd-ai/go-bouncyballs/pkg/physics"
)

// Target receives spawned bodies; *engine.Simulation satisfies it
type Target interface {
	SpawnBody(position, velocity physics.Vector2D, radius float64, color colorful.Color, lifetime float64) (entity.ID, error)
}

// Spawner creates bodies with random size, heading and speed. It is not
// safe for concurrent use because the random source is not.
type Spawner struct {
	cfg config.SpawnConfig
	rng *rand.Rand
}

// NewSpawner creates a spawner. A nil rng uses a fixed-seed PCG.
func NewSpawner(cfg config.SpawnConfig, rng *rand.Rand) *Spawner {
	if rng == nil {
		rng = rand.New(rand.NewPCG(1, 1))
	}
	return &Spawner{cfg: cfg, rng: rng}
}

// Burst spawns cfg.Amount bodies around origin
func (s *Spawner) Burst(target Target, origin physics.Vector2D) ([]entity.ID, error) {
	return s.SpawnAt(target, origin, s.cfg.Amount)
}

// SpawnAt spawns amount bodies on a ring of cfg.RingRadius around origin.
// Each body gets a uniform radius, a uniform direction and a uniform speed;
// its lifetime is radius * cfg.LifetimeMultiplier and its colour comes from
// the origin. Bodies spawned before an error are kept.
func (s *Spawner) SpawnAt(target Target, origin physics.Vector2D, amount int) ([]entity.ID, error) {
	color := entity.PositionColor(origin)
	ids := make([]entity.ID, 0, amount)

	for i := 0; i < amount; i++ {
		radius := s.uniform(s.cfg.MinRadius, s.cfg.MaxRadius)
		position := origin.Add(physics.FromAngle(s.angle(), s.cfg.RingRadius))
		velocity := physics.FromAngle(s.angle(), s.uniform(s.cfg.MinSpeed, s.cfg.MaxSpeed))

		id, err := target.SpawnBody(position, velocity, radius, color, radius*s.cfg.LifetimeMultiplier)
		if err != nil {
			return ids, fmt.Errorf("spawn body %d of %d: %w", i+1, amount, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// RandomPoint returns a uniform point inside a width x height arena
func (s *Spawner) RandomPoint(width, height float64) physics.Vector2D {
	return physics.Vector2D{
		X: s.rng.Float64() * width,
		Y: s.rng.Float64() * height,
	}
}

func (s *Spawner) uniform(lo, hi float64) float64 {
	return s.rng.Float64()*(hi-lo) + lo
}

func (s *Spawner) angle() float64 {
	return s.rng.Float64() * 2 * math.Pi
}
