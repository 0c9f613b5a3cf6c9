package motion

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// physicalModel solves dv/dt = a - mu·v per axis, a being the net acceleration
// after contact projection and mu the total friction.
type physicalModel struct{}

// PhysicalParams sums the forces, removes the components pushing into active
// contacts and accumulates friction. It returns the total friction and the
// resulting acceleration.
func PhysicalParams(s *State) (float64, mgl64.Vec3) {
	f := s.NetForce()

	mu := s.AirFriction
	for _, id := range s.ContactIDs() {
		contact := s.Contacts[id]
		mu += contact.Mu

		nf := f.Dot(contact.Normal)
		if nf > Tolerance {
			// pulling away from the surface
			continue
		}
		f = f.Sub(contact.Normal.Mul(nf))
	}

	return mu, f.Mul(1.0 / s.Mass)
}

func (physicalModel) Position(tick int64, s *State) mgl64.Vec3 {
	mu, a := PhysicalParams(s)
	return IntegratePosition(s.Position, s.Velocity, a, mu, elapsed(tick, s))
}

func (physicalModel) Velocity(tick int64, s *State) mgl64.Vec3 {
	mu, a := PhysicalParams(s)
	return IntegrateVelocity(s.Velocity, a, mu, elapsed(tick, s))
}

func (m physicalModel) SetPosition(tick int64, s *State, p mgl64.Vec3) {
	s.Velocity = m.Velocity(tick, s)
	s.Position = p
	s.StartTick = tick
}

func (m physicalModel) SetVelocity(tick int64, s *State, v mgl64.Vec3) {
	s.Position = m.Position(tick, s)
	s.Velocity = v
	s.StartTick = tick
}

func (m physicalModel) FastForward(tick int64, s *State) {
	p := m.Position(tick, s)
	v := m.Velocity(tick, s)
	s.Position = p
	s.Velocity = v
	s.StartTick = tick
}

func (physicalModel) Fields() []string {
	return []string{
		"model",
		"flags",
		"aabb",
		"position",
		"velocity",
		"start_tick",
		"friction",
		"air_friction",
		"forces",
		"contacts",
		"mass",
		"restitution",
	}
}

func (physicalModel) ApplyDefaults(p *Params) {
	linearModel{}.ApplyDefaults(p)
	if p.Friction == nil {
		p.Friction = new(float64)
	}
	if p.Forces == nil {
		p.Forces = map[string][3]float64{}
	}
	if p.Contacts == nil {
		p.Contacts = map[string][5]float64{}
	}
	if p.Mass == nil {
		p.Mass = ptr(1.0)
	}
	if p.Restitution == nil {
		p.Restitution = ptr(1.0)
	}
	if p.AirFriction == nil {
		p.AirFriction = ptr(1.0)
	}
	if p.AABB == nil {
		p.AABB = &[3]float64{0.5, 0.5, 0.5}
	}
}

// IntegratePosition evaluates the position after t ticks under acceleration a and drag mu
func IntegratePosition(p, v, a mgl64.Vec3, mu, t float64) mgl64.Vec3 {
	var r mgl64.Vec3
	if mu < Tolerance {
		for i := range 3 {
			r[i] = p[i] + (v[i]+0.5*a[i]*t)*t
		}
		return r
	}

	// 1 - e^(-mu·t)
	decay := -math.Expm1(-mu * t)
	for i := range 3 {
		terminal := a[i] / mu
		r[i] = p[i] + terminal*t + (v[i]-terminal)*decay/mu
	}
	return r
}

// IntegrateVelocity evaluates the velocity after t ticks, decaying toward the terminal velocity a/mu
func IntegrateVelocity(v, a mgl64.Vec3, mu, t float64) mgl64.Vec3 {
	var r mgl64.Vec3
	if mu < Tolerance {
		for i := range 3 {
			r[i] = v[i] + a[i]*t
		}
		return r
	}

	f := math.Exp(-mu * t)
	for i := range 3 {
		terminal := a[i] / mu
		r[i] = terminal + (v[i]-terminal)*f
	}
	return r
}
