package chemistry

// SubstanceChangedListener is notified of a Contents or Temperature
// change on a standalone Substance (outside of a Mixture).
type SubstanceChangedListener func(s *Substance, kind ChangeKind)

// Substance is one material type at one temperature, with a scalar
// mass and an optional set of named material specs (e.g. "city water",
// "distilled water"), each holding the kg of the mass attributed to it.
type Substance struct {
	Type        *MaterialType
	Mass        float64 // kg
	Temperature float64 // Kelvin
	Specs       map[string]float64

	listeners []SubstanceChangedListener
}

// NewSubstance constructs a Substance of the given material, mass, and
// temperature with no specs.
func NewSubstance(t *MaterialType, mass, temperatureK float64) *Substance {
	return &Substance{Type: t, Mass: mass, Temperature: temperatureK, Specs: make(map[string]float64)}
}

// OnChanged registers a listener for this substance's own mutations.
func (s *Substance) OnChanged(l SubstanceChangedListener) {
	s.listeners = append(s.listeners, l)
}

func (s *Substance) fire(kind ChangeKind) {
	for _, l := range s.listeners {
		l(s, kind)
	}
}

// AddSpec attributes amountKg of this substance's mass to a named
// spec (e.g. distinguishing "city water" from "distilled water" within
// one Water substance).
func (s *Substance) AddSpec(specID string, amountKg float64) {
	s.Specs[specID] += amountKg
}

// ConvertMaterialSpec moves all amount tracked under fromID to toID.
func (s *Substance) ConvertMaterialSpec(fromID, toID string) {
	amt, ok := s.Specs[fromID]
	if !ok {
		return
	}
	delete(s.Specs, fromID)
	s.Specs[toID] += amt
}

// scaleSpecs scales every spec amount by factor, used when
// mass is removed proportionally across specs.
func (s *Substance) scaleSpecs(factor float64) {
	for id, amt := range s.Specs {
		s.Specs[id] = amt * factor
	}
}

// combineSpecsFrom adds other's per-spec amounts into s, used when two
// Substances of the same MaterialType are merged.
func (s *Substance) combineSpecsFrom(other *Substance) {
	for id, amt := range other.Specs {
		s.Specs[id] += amt
	}
}

// AddMass merges other's mass into s at the mass*specificHeat-weighted
// average temperature, adding other's per-spec amounts to its own, and
// fires a Contents change.
func (s *Substance) AddMass(other *Substance) {
	totalMass := s.Mass + other.Mass
	if totalMass > 0 {
		cp := s.Type.SpecificHeat
		s.Temperature = (s.Mass*cp*s.Temperature + other.Mass*cp*other.Temperature) / (totalMass * cp)
	}
	s.Mass = totalMass
	s.combineSpecsFrom(other)
	s.fire(Contents)
}

// RemoveMass removes exactly massKg from s, scaling specs
// proportionally, and fires a Contents change. ErrInsufficientMass is
// returned if massKg exceeds what is present.
func (s *Substance) RemoveMass(massKg float64) (*Substance, error) {
	if massKg > s.Mass {
		return nil, ErrInsufficientMass
	}
	if s.Mass == 0 {
		return NewSubstance(s.Type, 0, s.Temperature), nil
	}
	fraction := massKg / s.Mass
	removed := NewSubstance(s.Type, massKg, s.Temperature)
	for id, amt := range s.Specs {
		removed.Specs[id] = amt * fraction
	}
	s.Mass -= massKg
	s.scaleSpecs(1 - fraction)
	s.fire(Contents)
	return removed, nil
}

// SetTemperature mutates temperature directly and fires a Temperature
// change.
func (s *Substance) SetTemperature(k float64) {
	s.Temperature = k
	s.fire(Temperature)
}
