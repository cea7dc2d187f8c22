package kinetics

import "math"

// Production is zeroth-order synthesis: 0 -> A.
type Production struct {
	Label   string
	Output  SpeciesID
	Rate    float64
	Thermal Thermal
}

func (r *Production) Name() string { return r.Label }

func (r *Production) Propensity(_ *Registry, temperature float64) float64 {
	return r.Rate * thermalFactor(r.Thermal, temperature)
}

func (r *Production) Fire(s *Registry) error {
	s.Produce(r.Output, 1)
	return nil
}

func (r *Production) Stoichiometry() []Term   { return []Term{{r.Output, 1}} }
func (r *Production) References() []SpeciesID { return []SpeciesID{r.Output} }

// Degradation is first-order decay: A -> 0.
type Degradation struct {
	Label   string
	Input   SpeciesID
	Rate    float64
	Thermal Thermal
}

func (r *Degradation) Name() string { return r.Label }

func (r *Degradation) Propensity(s *Registry, temperature float64) float64 {
	return r.Rate * thermalFactor(r.Thermal, temperature) * float64(s.Count(r.Input))
}

func (r *Degradation) Fire(s *Registry) error {
	return s.Destroy(r.Input, 1)
}

func (r *Degradation) Stoichiometry() []Term   { return []Term{{r.Input, -1}} }
func (r *Degradation) References() []SpeciesID { return []SpeciesID{r.Input} }

// Conversion is first-order conversion of one species into another: A -> iA.
// With a Linear thermal law it is the temperature-driven deactivation of an
// aggregation-prone protein.
type Conversion struct {
	Label   string
	Input   SpeciesID
	Output  SpeciesID
	Rate    float64
	Thermal Thermal
}

func (r *Conversion) Name() string { return r.Label }

func (r *Conversion) Propensity(s *Registry, temperature float64) float64 {
	return r.Rate * thermalFactor(r.Thermal, temperature) * float64(s.Count(r.Input))
}

func (r *Conversion) Fire(s *Registry) error {
	if err := s.Destroy(r.Input, 1); err != nil {
		return err
	}
	s.Produce(r.Output, 1)
	return nil
}

func (r *Conversion) Stoichiometry() []Term {
	return netTerms(Term{r.Input, -1}, Term{r.Output, 1})
}

func (r *Conversion) References() []SpeciesID { return []SpeciesID{r.Input, r.Output} }

// CatalyzedConversion converts a substrate into Yield units of product in the
// presence of an unconsumed catalyst: iA + C -> y·A + C. This is coupled
// disaggregation and reactivation by a chaperone.
//
// The propensity is Rate·iA, or Rate·iA·C when CatalystOrder is set.
type CatalyzedConversion struct {
	Label         string
	Substrate     SpeciesID
	Catalyst      SpeciesID
	Product       SpeciesID
	Yield         int64
	Rate          float64
	CatalystOrder bool
	Thermal       Thermal
}

func (r *CatalyzedConversion) Name() string { return r.Label }

func (r *CatalyzedConversion) Propensity(s *Registry, temperature float64) float64 {
	a := r.Rate * thermalFactor(r.Thermal, temperature) * float64(s.Count(r.Substrate))
	if r.CatalystOrder {
		a *= float64(s.Count(r.Catalyst))
	}
	return a
}

func (r *CatalyzedConversion) Fire(s *Registry) error {
	if err := s.Destroy(r.Substrate, 1); err != nil {
		return err
	}
	s.Produce(r.Product, r.yield())
	return nil
}

func (r *CatalyzedConversion) yield() int64 {
	if r.Yield <= 0 {
		return 1
	}
	return r.Yield
}

func (r *CatalyzedConversion) Stoichiometry() []Term {
	return netTerms(Term{r.Substrate, -1}, Term{r.Product, r.yield()})
}

func (r *CatalyzedConversion) References() []SpeciesID {
	return []SpeciesID{r.Substrate, r.Catalyst, r.Product}
}

// Dimerization pairs two monomers: A + A -> AA. The propensity uses the
// combinatorial pair count A·(A−1), so a single monomer never reacts.
type Dimerization struct {
	Label   string
	Monomer SpeciesID
	Dimer   SpeciesID
	Rate    float64
	Thermal Thermal
}

func (r *Dimerization) Name() string { return r.Label }

func (r *Dimerization) Propensity(s *Registry, temperature float64) float64 {
	n := float64(s.Count(r.Monomer))
	if n < 2 {
		return 0
	}
	return r.Rate * thermalFactor(r.Thermal, temperature) * n * (n - 1)
}

func (r *Dimerization) Fire(s *Registry) error {
	if err := s.Destroy(r.Monomer, 2); err != nil {
		return err
	}
	s.Produce(r.Dimer, 1)
	return nil
}

func (r *Dimerization) Stoichiometry() []Term {
	return netTerms(Term{r.Monomer, -2}, Term{r.Dimer, 1})
}

func (r *Dimerization) References() []SpeciesID { return []SpeciesID{r.Monomer, r.Dimer} }

// SurfaceInactivation moves active molecules onto an aggregate: A -> iA.
//
// Without an aggregate the channel nucleates at Rate·A. Once iA > 0 growth
// scales with the aggregate surface, approximated by √iA, and the thermal law
// applies: Rate·θ(T)·A·√iA. ScaleNucleation applies θ(T) to the nucleation
// branch as well.
type SurfaceInactivation struct {
	Label           string
	Active          SpeciesID
	Aggregate       SpeciesID
	Rate            float64
	Thermal         Thermal
	ScaleNucleation bool
}

func (r *SurfaceInactivation) Name() string { return r.Label }

func (r *SurfaceInactivation) Propensity(s *Registry, temperature float64) float64 {
	active := float64(s.Count(r.Active))
	agg := s.Count(r.Aggregate)
	if agg == 0 {
		a := r.Rate * active
		if r.ScaleNucleation {
			a *= thermalFactor(r.Thermal, temperature)
		}
		return a
	}
	return r.Rate * thermalFactor(r.Thermal, temperature) * active * math.Sqrt(float64(agg))
}

func (r *SurfaceInactivation) Fire(s *Registry) error {
	if err := s.Destroy(r.Active, 1); err != nil {
		return err
	}
	s.Produce(r.Aggregate, 1)
	return nil
}

func (r *SurfaceInactivation) Stoichiometry() []Term {
	return netTerms(Term{r.Active, -1}, Term{r.Aggregate, 1})
}

func (r *SurfaceInactivation) References() []SpeciesID {
	return []SpeciesID{r.Active, r.Aggregate}
}

// InverseProduction synthesizes C at a rate inversely proportional to a
// dependent species: Rate/D, or Rate when D is zero. It models translational
// feedback where a free RNA-binding protein represses chaperone synthesis.
type InverseProduction struct {
	Label     string
	Output    SpeciesID
	Dependent SpeciesID
	Rate      float64
	Thermal   Thermal
}

func (r *InverseProduction) Name() string { return r.Label }

func (r *InverseProduction) Propensity(s *Registry, temperature float64) float64 {
	a := r.Rate * thermalFactor(r.Thermal, temperature)
	if d := s.Count(r.Dependent); d > 0 {
		a /= float64(d)
	}
	return a
}

func (r *InverseProduction) Fire(s *Registry) error {
	s.Produce(r.Output, 1)
	return nil
}

func (r *InverseProduction) Stoichiometry() []Term { return []Term{{r.Output, 1}} }

func (r *InverseProduction) References() []SpeciesID {
	return []SpeciesID{r.Output, r.Dependent}
}

// InducedProduction synthesizes C at a rate proportional to an inducer that is
// not consumed: Rate·θ(T)·I. Heat-induced chaperone expression driven by the
// aggregate load uses this law.
type InducedProduction struct {
	Label   string
	Inducer SpeciesID
	Output  SpeciesID
	Rate    float64
	Thermal Thermal
}

func (r *InducedProduction) Name() string { return r.Label }

func (r *InducedProduction) Propensity(s *Registry, temperature float64) float64 {
	return r.Rate * thermalFactor(r.Thermal, temperature) * float64(s.Count(r.Inducer))
}

func (r *InducedProduction) Fire(s *Registry) error {
	s.Produce(r.Output, 1)
	return nil
}

func (r *InducedProduction) Stoichiometry() []Term { return []Term{{r.Output, 1}} }

func (r *InducedProduction) References() []SpeciesID {
	return []SpeciesID{r.Inducer, r.Output}
}

// netTerms folds terms that touch the same species.
func netTerms(terms ...Term) []Term {
	out := make([]Term, 0, len(terms))
	for _, t := range terms {
		merged := false
		for i := range out {
			if out[i].Species == t.Species {
				out[i].Delta += t.Delta
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, t)
		}
	}
	return out
}
