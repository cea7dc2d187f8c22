package config

// Reaction kinds.
const (
	KindProduction          = "production"
	KindDegradation         = "degradation"
	KindConversion          = "conversion"
	KindCatalyzedConversion = "catalyzed_conversion"
	KindDimerization        = "dimerization"
	KindSurfaceInactivation = "surface_inactivation"
	KindInverseProduction   = "inverse_production"
	KindInducedProduction   = "induced_production"
)

// Thermal laws.
const (
	ThermalNone      = "none"
	ThermalLinear    = "linear"
	ThermalQuadratic = "quadratic"
	ThermalArrhenius = "arrhenius"
)

var thermalLaws = map[string]struct{}{
	ThermalNone:      {},
	ThermalLinear:    {},
	ThermalQuadratic: {},
	ThermalArrhenius: {},
}

// KindSpec is the minimum arity of a kind's input and output lists.
//
// Positional roles:
//
//	production            outputs[0] product
//	degradation           inputs[0]  decaying species
//	conversion            inputs[0] -> outputs[0]
//	catalyzed_conversion  inputs[0] substrate, inputs[1] catalyst -> outputs[0] product
//	dimerization          inputs[0] monomer -> outputs[0] dimer
//	surface_inactivation  inputs[0] active -> outputs[0] aggregate
//	inverse_production    inputs[0] repressor -> outputs[0] product
//	induced_production    inputs[0] inducer -> outputs[0] product
type KindSpec struct {
	Inputs         int
	Outputs        int
	DefaultThermal string
}

// Kinds lists every reaction kind a config may name.
var Kinds = map[string]KindSpec{
	KindProduction:          {Inputs: 0, Outputs: 1, DefaultThermal: ThermalNone},
	KindDegradation:         {Inputs: 1, Outputs: 0, DefaultThermal: ThermalNone},
	KindConversion:          {Inputs: 1, Outputs: 1, DefaultThermal: ThermalNone},
	KindCatalyzedConversion: {Inputs: 2, Outputs: 1, DefaultThermal: ThermalNone},
	KindDimerization:        {Inputs: 1, Outputs: 1, DefaultThermal: ThermalLinear},
	KindSurfaceInactivation: {Inputs: 1, Outputs: 1, DefaultThermal: ThermalNone},
	KindInverseProduction:   {Inputs: 1, Outputs: 1, DefaultThermal: ThermalNone},
	KindInducedProduction:   {Inputs: 1, Outputs: 1, DefaultThermal: ThermalNone},
}
