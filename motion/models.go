package motion

import "github.com/go-gl/mathgl/mgl64"

// noneModel never moves
type noneModel struct{}

func (noneModel) Position(int64, *State) mgl64.Vec3 { return mgl64.Vec3{} }
func (noneModel) SetPosition(int64, *State, mgl64.Vec3) {}
func (noneModel) Velocity(int64, *State) mgl64.Vec3 { return mgl64.Vec3{} }
func (noneModel) SetVelocity(int64, *State, mgl64.Vec3) {}
func (noneModel) FastForward(int64, *State) {}
func (noneModel) Fields() []string { return []string{"model"} }
func (noneModel) ApplyDefaults(*Params) {}

// constantModel holds a fixed position
type constantModel struct{}

func (constantModel) Position(_ int64, s *State) mgl64.Vec3 {
	return s.Position
}

func (constantModel) SetPosition(_ int64, s *State, p mgl64.Vec3) {
	s.Position = p
}

func (constantModel) Velocity(int64, *State) mgl64.Vec3 { return mgl64.Vec3{} }
func (constantModel) SetVelocity(int64, *State, mgl64.Vec3) {}
func (constantModel) FastForward(int64, *State) {}

func (constantModel) Fields() []string {
	return []string{"model", "flags", "position"}
}

func (constantModel) ApplyDefaults(p *Params) {
	if p.Position == nil {
		p.Position = &[3]float64{}
	}
	if p.Flags == nil {
		p.Flags = map[string]any{}
	}
}

// linearModel moves at constant velocity from StartTick
type linearModel struct{}

func (linearModel) Position(tick int64, s *State) mgl64.Vec3 {
	return s.Position.Add(s.Velocity.Mul(elapsed(tick, s)))
}

func (linearModel) SetPosition(tick int64, s *State, p mgl64.Vec3) {
	// velocity does not depend on time, nothing to fold
	s.Position = p
	s.StartTick = tick
}

func (linearModel) Velocity(_ int64, s *State) mgl64.Vec3 {
	return s.Velocity
}

func (m linearModel) SetVelocity(tick int64, s *State, v mgl64.Vec3) {
	s.Position = m.Position(tick, s)
	s.Velocity = v
	s.StartTick = tick
}

func (m linearModel) FastForward(tick int64, s *State) {
	s.Position = m.Position(tick, s)
	s.StartTick = tick
}

func (linearModel) Fields() []string {
	return []string{"model", "flags", "position", "velocity", "start_tick"}
}

func (linearModel) ApplyDefaults(p *Params) {
	constantModel{}.ApplyDefaults(p)
	if p.Velocity == nil {
		p.Velocity = &[3]float64{}
	}
	if p.StartTick == nil {
		p.StartTick = new(int64)
	}
}
