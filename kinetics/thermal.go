package kinetics

import (
	"fmt"
	"math"
)

// DefaultAmbient is the ambient temperature in kelvin assumed before the
// first schedule breakpoint.
const DefaultAmbient = 298.0

// Thermal scales a base rate constant with temperature.
type Thermal interface {
	Factor(temperature float64) float64
	String() string
}

// Isothermal ignores temperature.
type Isothermal struct{}

func (Isothermal) Factor(float64) float64 { return 1 }
func (Isothermal) String() string         { return "isothermal" }

// Linear scales the rate by Scale·T. A zero Scale means 1.
type Linear struct {
	Scale float64
}

func (l Linear) Factor(t float64) float64 { return coefficient(l.Scale) * t }
func (l Linear) String() string           { return scaled("linear", l.Scale) }

// Quadratic scales the rate by Scale·T². A zero Scale means 1.
type Quadratic struct {
	Scale float64
}

func (q Quadratic) Factor(t float64) float64 { return coefficient(q.Scale) * t * t }
func (q Quadratic) String() string           { return scaled("quadratic", q.Scale) }

func coefficient(scale float64) float64 {
	if scale == 0 {
		return 1
	}
	return scale
}

func scaled(law string, scale float64) string {
	if scale == 0 || scale == 1 {
		return law
	}
	return fmt.Sprintf("%s(scale=%g)", law, scale)
}

// Arrhenius scales the rate by exp(Ea·(1 − Tref/T)), with Ea in the same
// dimensionless units the reference models use. The factor is 1 at Tref.
type Arrhenius struct {
	Activation float64
	Reference  float64
}

func (a Arrhenius) Factor(t float64) float64 {
	if t <= 0 {
		return 0
	}
	ref := a.Reference
	if ref == 0 {
		ref = DefaultAmbient
	}
	return math.Exp(a.Activation * (1 - ref/t))
}

func (a Arrhenius) String() string {
	return fmt.Sprintf("arrhenius(Ea=%g, Tref=%g)", a.Activation, a.Reference)
}

func thermalFactor(th Thermal, temperature float64) float64 {
	if th == nil {
		return 1
	}
	return th.Factor(temperature)
}
