package constraint

import (
	"math"

	"github.com/akmonengine/voxmotion/motion"
)

const (
	// StickThreshold scales the net normal force under which an impact sticks
	StickThreshold = 1.0
	// ContactThreshold is the distance under which two bodies are touching
	ContactThreshold = 0.01
	// Tolerance is the smallest change written back to a body
	Tolerance = motion.Tolerance
	// WallMass stands in for the infinite mass of static terrain
	WallMass = 10000.0
)

// SeparationRestitution replaces the restitution when bodies already move apart
// along the normal without sticking. It is a tuning knob, not a material property:
// a negative value pushes the bodies apart harder instead of damping them.
var SeparationRestitution = -2.0

// Result classifies the outcome of a resolution
type Result uint8

const (
	CollideNone Result = iota
	CollideStick
	CollideBounce
	// CollideRest is reserved for persistent resting contacts
	CollideRest
)

func (r Result) String() string {
	switch r {
	case CollideNone:
		return "none"
	case CollideStick:
		return "stick"
	case CollideBounce:
		return "bounce"
	case CollideRest:
		return "rest"
	}
	return "unknown"
}

// CombineRestitution returns the restitution applied between two bodies
func CombineRestitution(a, b float64) float64 {
	// the less bouncy surface wins
	return math.Min(a, b)
}

// Wall returns the static body standing for terrain in a resolution
func Wall(restitution, friction float64) *motion.State {
	return &motion.State{
		Model:       motion.ModelConstant,
		Mass:        WallMass,
		Restitution: restitution,
		Friction:    friction,
	}
}
