// Package motion evaluates entity position and velocity as closed-form functions
// of the simulation tick.
//
// Every motion state carries a Model discriminant selecting one Kinematics
// implementation from a fixed table. Adding a model means adding a constant and a
// table entry; callers never branch on the model themselves.
package motion

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Tolerance is the magnitude under which friction and relative motion are treated as zero
const Tolerance = 1e-6

var (
	ErrUnknownModel = errors.New("unknown motion model")
	ErrInvalidMass  = errors.New("mass must be positive")
)

// Model selects the kinematics applied to a State
type Model uint8

const (
	// ModelNone never moves, position and velocity are always zero
	ModelNone Model = iota
	// ModelConstant holds a fixed position
	ModelConstant
	// ModelLinear extrapolates position with a constant velocity
	ModelLinear
	// ModelPhysical integrates forces, drag and contact constraints in closed form
	ModelPhysical
)

var modelNames = [...]string{
	ModelNone:     "none",
	ModelConstant: "constant",
	ModelLinear:   "linear",
	ModelPhysical: "physical",
}

func (m Model) String() string {
	if int(m) < len(modelNames) {
		return modelNames[m]
	}
	return fmt.Sprintf("Model(%d)", uint8(m))
}

// ParseModel resolves a record discriminator. An empty name selects ModelLinear.
func ParseModel(name string) (Model, error) {
	if name == "" {
		return ModelLinear, nil
	}
	for i, n := range modelNames {
		if n == name {
			return Model(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownModel, name)
}

// Kinematics is the contract every motion model satisfies.
// Position and Velocity are pure functions of the state and the tick.
type Kinematics interface {
	Position(tick int64, s *State) mgl64.Vec3
	SetPosition(tick int64, s *State, p mgl64.Vec3)
	Velocity(tick int64, s *State) mgl64.Vec3
	SetVelocity(tick int64, s *State, v mgl64.Vec3)
	// FastForward folds the state evaluated at tick back into its reference point
	FastForward(tick int64, s *State)
	// Fields lists the record keys owned by the model
	Fields() []string
	// ApplyDefaults fills the absent fields of a record
	ApplyDefaults(p *Params)
}

var models = [...]Kinematics{
	ModelNone:     noneModel{},
	ModelConstant: constantModel{},
	ModelLinear:   linearModel{},
	ModelPhysical: physicalModel{},
}

// Kinematics returns the implementation of the model.
// An unknown tag is a configuration error and panics.
func (m Model) Kinematics() Kinematics {
	if int(m) >= len(models) {
		panic(fmt.Sprintf("motion: %v has no kinematics", m))
	}
	return models[m]
}

// elapsed returns the ticks since the reference instant, never negative
func elapsed(tick int64, s *State) float64 {
	return float64(max(tick-s.StartTick, 0))
}
