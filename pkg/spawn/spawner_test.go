package spawn

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/opd-ai/go-bouncyballs/pkg/config"
	"github.com/opd-ai/go-bouncyballs/pkg/engine"
	"github.com/opd-ai/go-bouncyballs/pkg/entity"
	"github.com/opd-ai/go-bouncyballs/pkg/physics"
)

type spawnCall struct {
	position physics.Vector2D
	velocity physics.Vector2D
	radius   float64
	color    colorful.Color
	lifetime float64
}

type recordingTarget struct {
	calls  []spawnCall
	failAt int
}

var errTargetFull = errors.New("target full")

func (r *recordingTarget) SpawnBody(position, velocity physics.Vector2D, radius float64, color colorful.Color, lifetime float64) (entity.ID, error) {
	if r.failAt > 0 && len(r.calls)+1 == r.failAt {
		return 0, errTargetFull
	}
	r.calls = append(r.calls, spawnCall{position, velocity, radius, color, lifetime})
	return entity.ID(len(r.calls)), nil
}

func TestSpawner_SpawnAt(t *testing.T) {
	cfg := config.DefaultConfig().Spawn
	spawner := NewSpawner(cfg, rand.New(rand.NewPCG(7, 9)))
	target := &recordingTarget{}
	origin := physics.Vector2D{X: 200, Y: 100}

	ids, err := spawner.SpawnAt(target, origin, 50)
	if err != nil {
		t.Fatalf("SpawnAt() failed: %v", err)
	}
	if len(ids) != 50 || len(target.calls) != 50 {
		t.Fatalf("spawned %d ids, %d calls; expected 50", len(ids), len(target.calls))
	}

	wantColor := entity.HueColor(150)
	for i, call := range target.calls {
		if call.radius < cfg.MinRadius || call.radius >= cfg.MaxRadius {
			t.Errorf("call %d: radius %v outside [%v, %v)", i, call.radius, cfg.MinRadius, cfg.MaxRadius)
		}
		if d := call.position.Distance(origin); math.Abs(d-cfg.RingRadius) > 1e-9 {
			t.Errorf("call %d: distance from origin %v, expected %v", i, d, cfg.RingRadius)
		}
		if speed := call.velocity.Length(); speed < cfg.MinSpeed-1e-9 || speed > cfg.MaxSpeed+1e-9 {
			t.Errorf("call %d: speed %v outside [%v, %v]", i, speed, cfg.MinSpeed, cfg.MaxSpeed)
		}
		if math.Abs(call.lifetime-call.radius*cfg.LifetimeMultiplier) > 1e-9 {
			t.Errorf("call %d: lifetime %v, expected radius*%v", i, call.lifetime, cfg.LifetimeMultiplier)
		}
		if call.color != wantColor {
			t.Errorf("call %d: color %v, expected %v", i, call.color, wantColor)
		}
	}
}

func TestSpawner_Burst(t *testing.T) {
	cfg := config.DefaultConfig().Spawn
	cfg.Amount = 3
	target := &recordingTarget{}

	ids, err := NewSpawner(cfg, nil).Burst(target, physics.Vector2D{X: 10, Y: 10})
	if err != nil {
		t.Fatalf("Burst() failed: %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("Burst() spawned %d bodies, expected 3", len(ids))
	}
}

func TestSpawner_Deterministic(t *testing.T) {
	cfg := config.DefaultConfig().Spawn
	first := &recordingTarget{}
	second := &recordingTarget{}

	origin := physics.Vector2D{X: 50, Y: 50}
	if _, err := NewSpawner(cfg, rand.New(rand.NewPCG(3, 4))).SpawnAt(first, origin, 10); err != nil {
		t.Fatal(err)
	}
	if _, err := NewSpawner(cfg, rand.New(rand.NewPCG(3, 4))).SpawnAt(second, origin, 10); err != nil {
		t.Fatal(err)
	}

	for i := range first.calls {
		if first.calls[i] != second.calls[i] {
			t.Fatalf("call %d differs between identically seeded spawners", i)
		}
	}
}

func TestSpawner_TargetError(t *testing.T) {
	target := &recordingTarget{failAt: 3}
	ids, err := NewSpawner(config.DefaultConfig().Spawn, nil).SpawnAt(target, physics.Vector2D{}, 5)

	if !errors.Is(err, errTargetFull) {
		t.Fatalf("expected wrapped target error, got %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("expected the 2 bodies spawned before the error, got %d", len(ids))
	}
}

func TestSpawner_RandomPoint(t *testing.T) {
	spawner := NewSpawner(config.DefaultConfig().Spawn, rand.New(rand.NewPCG(1, 2)))
	for i := 0; i < 100; i++ {
		p := spawner.RandomPoint(640, 480)
		if p.X < 0 || p.X >= 640 || p.Y < 0 || p.Y >= 480 {
			t.Fatalf("RandomPoint() = %v outside arena", p)
		}
	}
}

func TestSpawner_IntoSimulation(t *testing.T) {
	sim, err := engine.NewSimulation(nil)
	if err != nil {
		t.Fatalf("NewSimulation() failed: %v", err)
	}
	spawner := NewSpawner(config.DefaultConfig().Spawn, rand.New(rand.NewPCG(5, 6)))

	if _, err := spawner.Burst(sim, physics.Vector2D{X: 640, Y: 360}); err != nil {
		t.Fatalf("Burst() failed: %v", err)
	}
	if sim.Len() != 5 {
		t.Errorf("simulation has %d bodies, expected 5", sim.Len())
	}
	sim.Step(1.0 / 60)
	for _, snap := range sim.Bodies() {
		if !snap.Position.IsFinite() {
			t.Errorf("body %d has non-finite position", snap.ID)
		}
	}
}
