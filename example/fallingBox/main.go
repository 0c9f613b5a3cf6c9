package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/akmonengine/voxmotion"
	"github.com/akmonengine/voxmotion/material"
	"github.com/akmonengine/voxmotion/motion"
	"github.com/akmonengine/voxmotion/voxel"
	"gopkg.in/yaml.v3"
)

const (
	stone uint16 = 1
	ice   uint16 = 2
)

const defaultMaterials = `
materials:
  - id: 0
    name: air
    friction: 0.02
  - id: 1
    name: stone
    solid: true
    friction: 0.6
  - id: 2
    name: ice
    solid: true
    friction: 0.05
    restitution: 0.5
`

// scene lists the entities to drop, in the motion record layout
type scene struct {
	Entities []motion.Params `yaml:"entities"`
}

func defaultScene() scene {
	return scene{Entities: []motion.Params{
		{Model: "physical", Position: &[3]float64{0.5, 6, 0.5}},
		{Model: "physical", Position: &[3]float64{0.5, 8, 0.5}, Restitution: ptr(0.0)},
		{Model: "physical", Position: &[3]float64{4.5, 5, 2.5}, Velocity: &[3]float64{-0.2, 0, 0}},
		{Model: "linear", Position: &[3]float64{-6, 3, -6}, Velocity: &[3]float64{0.1, 0, 0.1}},
	}}
}

func ptr[T any](v T) *T {
	return &v
}

// SetupScene builds a stone floor with an ice patch and drops the entities on it
func SetupScene(materials *material.Table, sc scene, logger *slog.Logger) (*voxmotion.World, []*voxmotion.Entity, error) {
	grid := voxel.NewGrid()
	grid.Fill([3]int{-8, -3, -8}, [3]int{8, 0, 8}, stone)
	grid.Fill([3]int{2, -1, 0}, [3]int{6, 0, 4}, ice)

	cfg := voxmotion.DefaultConfig()
	cfg.Workers = 4
	cfg.Logger = logger
	world := voxmotion.NewWorld(cfg, materials, grid)

	entities := make([]*voxmotion.Entity, 0, len(sc.Entities))
	for _, p := range sc.Entities {
		e, err := world.AddEntity(p)
		if err != nil {
			return nil, nil, err
		}
		entities = append(entities, e)
	}

	world.Events.Subscribe(voxmotion.CONTACT_ADDED, func(event voxmotion.Event) {
		e := event.(voxmotion.ContactAddedEvent)
		logger.Info("contact", "tick", e.Tick, "entity", e.Entity.ID(), "id", e.ContactID)
	})
	world.Events.Subscribe(voxmotion.BOUNCE, func(event voxmotion.Event) {
		e := event.(voxmotion.BounceEvent)
		logger.Info("bounce", "tick", e.Tick, "entity", e.Entity.ID(), "count", e.Count)
	})
	world.Events.Subscribe(voxmotion.ENTITY_STICK, func(event voxmotion.Event) {
		e := event.(voxmotion.EntityStickEvent)
		logger.Info("stacked", "tick", e.Tick, "a", e.EntityA.ID(), "b", e.EntityB.ID())
	})

	return world, entities, nil
}

func loadScene(filename string) (scene, error) {
	if filename == "" {
		return defaultScene(), nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return scene{}, err
	}
	var sc scene
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return scene{}, err
	}
	return sc, nil
}

func loadMaterials(filename string) (*material.Table, error) {
	if filename == "" {
		return material.Parse([]byte(defaultMaterials))
	}
	return material.Load(filename)
}

func main() {
	materialsFile := flag.String("materials", "", "YAML material file (built-in table when empty)")
	sceneFile := flag.String("scene", "", "YAML entity file (built-in scene when empty)")
	ticks := flag.Int64("ticks", 120, "number of ticks to simulate")
	watch := flag.Bool("watch", false, "reload the material file when it changes")
	debug := flag.Bool("debug", false, "log contact resolution details")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	materials, err := loadMaterials(*materialsFile)
	if err != nil {
		logger.Error("load materials", "err", err)
		os.Exit(1)
	}
	sc, err := loadScene(*sceneFile)
	if err != nil {
		logger.Error("load scene", "err", err)
		os.Exit(1)
	}

	world, entities, err := SetupScene(materials, sc, logger)
	if err != nil {
		logger.Error("setup scene", "err", err)
		os.Exit(1)
	}

	var watcher *material.Watcher
	if *watch && *materialsFile != "" {
		watcher, err = material.Watch(*materialsFile)
		if err != nil {
			logger.Error("watch materials", "err", err)
			os.Exit(1)
		}
		defer watcher.Close()
	}

	for tick := int64(0); tick < *ticks; tick++ {
		if watcher != nil {
			select {
			case t := <-watcher.Tables:
				world.SetMaterials(t)
				logger.Info("materials reloaded", "tick", tick, "count", t.Len())
			case err := <-watcher.Errors:
				logger.Warn("materials reload failed", "err", err)
			default:
			}
		}

		if err := world.Step(tick); err != nil {
			logger.Error("step", "tick", tick, "err", err)
			os.Exit(1)
		}

		if tick%20 == 0 {
			for _, e := range entities {
				logger.Info("entity",
					"tick", tick,
					"id", e.ID(),
					"position", e.Position(),
					"velocity", e.Velocity(),
					"on_ground", e.OnGround(),
				)
			}
		}
	}

	for _, e := range entities {
		record, err := motion.Marshal(e.Params())
		if err != nil {
			logger.Error("marshal", "id", e.ID(), "err", err)
			continue
		}
		logger.Info("final record", "id", e.ID(), "bytes", len(record), "contacts", e.Contacts())
	}
}
