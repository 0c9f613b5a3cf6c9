// Package voxmotion moves entities through a voxel world. Positions and velocities
// are closed-form functions of the simulation tick; a World resolves contacts
// with the terrain and between entities once per tick.
package voxmotion

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/akmonengine/voxmotion/material"
	"github.com/akmonengine/voxmotion/motion"
	"github.com/akmonengine/voxmotion/terrain"
	"github.com/go-gl/mathgl/mgl64"
)

const DEFAULT_WORKERS = 1

// GravityForce is the name of the force added to every physical entity
const GravityForce = "gravity"

var (
	ErrTickRegression = errors.New("tick regression")
	ErrUnknownEntity  = errors.New("unknown entity")
	ErrNotPhysical    = errors.New("entity is not physical")
)

type Config struct {
	// Workers bounds the goroutines of the terrain pass
	Workers int
	// CellSize and GridCells size the entity broad phase
	CellSize  float64
	GridCells int
	// Gravity is the force given to physical entities that do not declare one
	Gravity mgl64.Vec3
	Logger  *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		Workers:   DEFAULT_WORKERS,
		CellSize:  4,
		GridCells: 1024,
		Gravity:   mgl64.Vec3{0, -0.1, 0},
	}
}

type World struct {
	mu     sync.Mutex
	tick   atomic.Int64
	nextID uint64

	// entities sorted by id
	entities []*Entity

	config      Config
	voxels      terrain.Voxels
	generator   terrain.Generator
	SpatialGrid *SpatialGrid
	logger      *slog.Logger

	Events Events
}

// NewWorld builds an empty world at tick 0. Zero config fields take their default.
func NewWorld(cfg Config, materials *material.Table, voxels terrain.Voxels) *World {
	def := DefaultConfig()
	cfg.Workers = max(DEFAULT_WORKERS, cfg.Workers)
	if cfg.CellSize <= 0 {
		cfg.CellSize = def.CellSize
	}
	if cfg.GridCells <= 0 {
		cfg.GridCells = def.GridCells
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &World{
		config: cfg,
		voxels: voxels,
		generator: terrain.Generator{
			Materials: materials,
			Logger:    cfg.Logger.With("component", "terrain"),
		},
		SpatialGrid: NewSpatialGrid(cfg.CellSize, cfg.GridCells),
		logger:      cfg.Logger,
		Events:      NewEvents(),
	}
}

// Tick returns the last stepped tick
func (w *World) Tick() int64 {
	return w.tick.Load()
}

// AddEntity registers an entity built from a motion record. An empty model means
// linear; a missing start tick means now. Physical entities get the world gravity
// unless they declare their own.
func (w *World) AddEntity(p motion.Params) (*Entity, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p.StartTick == nil {
		tick := w.Tick()
		p.StartTick = &tick
	}
	if p.Model == motion.ModelPhysical.String() {
		if _, ok := p.Forces[GravityForce]; !ok {
			p.Forces = maps.Clone(p.Forces)
			if p.Forces == nil {
				p.Forces = make(map[string][3]float64)
			}
			p.Forces[GravityForce] = [3]float64(w.config.Gravity)
		}
	}

	state, err := motion.NewState(p)
	if err != nil {
		return nil, fmt.Errorf("voxmotion: add entity: %w", err)
	}

	w.nextID++
	e := &Entity{id: w.nextID, state: state, world: w}
	w.entities = append(w.entities, e)

	w.logger.Debug("entity added", "id", e.id, "model", state.Model)
	return e, nil
}

// RemoveEntity unregisters e. Entity contacts other bodies held with it are
// pruned at the next step.
func (w *World) RemoveEntity(e *Entity) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	k, found := slices.BinarySearchFunc(w.entities, e.id, func(x *Entity, id uint64) int {
		return cmp.Compare(x.id, id)
	})
	if !found || w.entities[k] != e {
		return fmt.Errorf("voxmotion: remove entity %d: %w", e.id, ErrUnknownEntity)
	}

	w.entities = slices.Delete(w.entities, k, k+1)
	w.logger.Debug("entity removed", "id", e.id)
	return nil
}

// Entity looks an entity up by id
func (w *World) Entity(id uint64) (*Entity, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	k, found := slices.BinarySearchFunc(w.entities, id, func(x *Entity, id uint64) int {
		return cmp.Compare(x.id, id)
	})
	if !found {
		return nil, false
	}
	return w.entities[k], true
}

// Len returns the number of entities
func (w *World) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entities)
}

// SetMaterials swaps the material table used from the next step on
func (w *World) SetMaterials(materials *material.Table) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.generator.Materials = materials
}

// Step advances the world to tick: terrain contacts of every physical entity,
// then contacts between entities, then event delivery. Stepping the same tick
// twice is allowed, going back is not. Listeners run once the world is
// unlocked, before Step returns.
func (w *World) Step(tick int64) error {
	events, err := w.step(tick)
	if err != nil {
		return err
	}

	w.Events.deliver(events)
	return nil
}

func (w *World) step(tick int64) ([]Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if current := w.Tick(); tick < current {
		return nil, fmt.Errorf("voxmotion: step %d: %w (at %d)", tick, ErrTickRegression, current)
	}
	w.tick.Store(tick)

	bodies := w.physicalEntities()

	// Phase 1: terrain, one entity per goroutine
	reports, err := w.collideTerrain(tick, bodies)
	if err != nil {
		return nil, fmt.Errorf("voxmotion: step %d: %w", tick, err)
	}
	w.recordTerrain(tick, bodies, reports)

	// Phase 2: entity pairs, sequential so resolutions do not depend on scheduling
	pairs := w.collideEntities(tick, bodies)

	w.logger.Debug("step", "tick", tick, "entities", len(w.entities), "physical", len(bodies), "pairs", pairs)

	return w.Events.take(), nil
}

func (w *World) physicalEntities() []*Entity {
	bodies := make([]*Entity, 0, len(w.entities))
	for _, e := range w.entities {
		if e.Model() == motion.ModelPhysical {
			bodies = append(bodies, e)
		}
	}
	return bodies
}

func (w *World) collideTerrain(tick int64, bodies []*Entity) ([]terrain.Report, error) {
	type job struct {
		index  int
		entity *Entity
	}
	jobs := make([]job, len(bodies))
	for i, e := range bodies {
		jobs[i] = job{i, e}
	}

	reports := make([]terrain.Report, len(bodies))
	err := task(w.config.Workers, jobs, func(j job) error {
		j.entity.mu.Lock()
		defer j.entity.mu.Unlock()
		reports[j.index] = w.generator.Step(tick, j.entity.state, w.voxels)
		return nil
	})

	return reports, err
}

func (w *World) recordTerrain(tick int64, bodies []*Entity, reports []terrain.Report) {
	for i, e := range bodies {
		r := reports[i]

		e.mu.Lock()
		for _, id := range r.Added {
			w.Events.emit(ContactAddedEvent{Entity: e, ContactID: id, Plane: e.state.Contacts[id], Tick: tick})
		}
		e.mu.Unlock()

		for _, id := range r.Removed {
			w.Events.emit(ContactRemovedEvent{Entity: e, ContactID: id, Tick: tick})
		}
		if r.Bounces > 0 {
			w.Events.emit(BounceEvent{Entity: e, Count: r.Bounces, Tick: tick})
		}
	}
}
