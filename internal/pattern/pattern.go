package pattern

import "math/rand"

// Pattern computes the next value for a register from its current value.
// Implementations must wrap explicitly within [0, 65535] instead of relying
// on integer overflow.
type Pattern interface {
	Next(current uint16) uint16
}

const valueSpan = 65536

// Increment counts the register up by Step, wrapping to the bottom.
type Increment struct {
	Step uint16
}

func (p Increment) Next(current uint16) uint16 {
	step := p.Step
	if step == 0 {
		step = 1
	}
	return uint16((uint32(current) + uint32(step)) % valueSpan)
}

// Decrement counts the register down by Step, wrapping to the top.
type Decrement struct {
	Step uint16
}

func (p Decrement) Next(current uint16) uint16 {
	step := p.Step
	if step == 0 {
		step = 1
	}
	return uint16((uint32(current) + valueSpan - uint32(step)%valueSpan) % valueSpan)
}

// Ramp sweeps from Min up to Max by Step, then restarts at Min. A current
// value outside the range snaps to Min.
type Ramp struct {
	Min  uint16
	Max  uint16
	Step uint16
}

func (p Ramp) Next(current uint16) uint16 {
	step := p.Step
	if step == 0 {
		step = 1
	}
	if current < p.Min || current >= p.Max {
		return p.Min
	}
	next := uint32(current) + uint32(step)
	if next > uint32(p.Max) {
		return p.Max
	}
	return uint16(next)
}

// Random draws a uniform value in [Min, Max].
type Random struct {
	Min uint16
	Max uint16
}

func (p Random) Next(current uint16) uint16 {
	if p.Max <= p.Min {
		return p.Min
	}
	span := int(p.Max) - int(p.Min) + 1
	return p.Min + uint16(rand.Intn(span))
}
