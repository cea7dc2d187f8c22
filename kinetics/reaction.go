package kinetics

// Reaction is one channel of a reaction network.
//
// Propensity must be a pure function of the registry counts and the supplied
// temperature and must return a finite, non-negative value. Fire applies the
// reaction's stoichiometric effect and is only called on the channel the
// engine selected for the current step.
type Reaction interface {
	Name() string
	Propensity(s *Registry, temperature float64) float64
	Fire(s *Registry) error
}

// Term is the net change a reaction applies to one species when it fires.
type Term struct {
	Species SpeciesID
	Delta   int64
}

// Stoichiometric is implemented by reactions that declare their net effect.
type Stoichiometric interface {
	Stoichiometry() []Term
}

// Referencer is implemented by reactions that read species handles. The
// network validates every reference before a run.
type Referencer interface {
	References() []SpeciesID
}

// Func adapts a pair of closures to Reaction. It is the extension point for
// laws not covered by the built-in types.
type Func struct {
	Label        string
	PropensityFn func(s *Registry, temperature float64) float64
	FireFn       func(s *Registry) error
	Terms        []Term
	Refs         []SpeciesID
}

func (f *Func) Name() string { return f.Label }

func (f *Func) Propensity(s *Registry, temperature float64) float64 {
	return f.PropensityFn(s, temperature)
}

func (f *Func) Fire(s *Registry) error { return f.FireFn(s) }

// Stoichiometry returns the declared terms, which may be nil.
func (f *Func) Stoichiometry() []Term { return f.Terms }

// References returns the declared handles, which may be nil.
func (f *Func) References() []SpeciesID { return f.Refs }
