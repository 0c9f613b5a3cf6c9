// Package material holds the per voxel type properties consumed by the collision
// code. A Table is immutable once built; reloading produces a new Table.
package material

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidMaterial = errors.New("invalid material")

// Material describes how a voxel type interacts with bodies
type Material struct {
	ID          uint16  `yaml:"id"`
	Name        string  `yaml:"name"`
	Solid       bool    `yaml:"solid"`
	Friction    float64 `yaml:"friction"`
	Restitution float64 `yaml:"restitution"`
}

// Table maps voxel type ids to materials
type Table struct {
	materials []Material
	defined   []bool
}

type document struct {
	Materials []Material `yaml:"materials"`
}

// NewTable builds a table. Ids must be unique, friction and restitution non-negative.
func NewTable(materials ...Material) (*Table, error) {
	size := 0
	for _, m := range materials {
		size = max(size, int(m.ID)+1)
	}

	t := &Table{
		materials: make([]Material, size),
		defined:   make([]bool, size),
	}
	for _, m := range materials {
		if t.defined[m.ID] {
			return nil, fmt.Errorf("%w: duplicate id %d (%s)", ErrInvalidMaterial, m.ID, m.Name)
		}
		if m.Friction < 0 || m.Restitution < 0 {
			return nil, fmt.Errorf("%w: %s has negative friction or restitution", ErrInvalidMaterial, m.Name)
		}
		t.materials[m.ID] = m
		t.defined[m.ID] = true
	}
	return t, nil
}

// Parse reads a YAML material document
func Parse(data []byte) (*Table, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("material: unmarshal: %w", err)
	}
	return NewTable(doc.Materials...)
}

// Load reads a YAML material file
func Load(filename string) (*Table, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("material: load %s: %w", filename, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("material: %s: %w", filename, err)
	}
	return t, nil
}

// Get returns the material of a voxel type. Unknown ids behave as frictionless empty space.
func (t *Table) Get(id uint16) Material {
	if int(id) < len(t.materials) && t.defined[id] {
		return t.materials[id]
	}
	return Material{ID: id}
}

// Solid reports whether a voxel type blocks bodies
func (t *Table) Solid(id uint16) bool {
	return t.Get(id).Solid
}

// Len returns the number of defined materials
func (t *Table) Len() int {
	n := 0
	for _, d := range t.defined {
		if d {
			n++
		}
	}
	return n
}
