package chemistry

import "math"

// vaporPressure evaluates the Antoine correlation at temperatureK,
// returning Pascal. log10(Psat_mmHg) = A - B/(T+C) with T in degrees
// Celsius, so temperatureK is converted to Celsius first; the result is
// converted from mmHg to Pascal.
func vaporPressure(a *AntoineCoefficients, temperatureK float64) float64 {
	exponent := a.A - a.B/((temperatureK-CelsiusToKelvin)+a.C)
	// Antoine correlations are fit against mmHg; clamp the exponent
	// before calling Pow to avoid overflow on badly out-of-range
	// temperatures.
	if exponent > 12 {
		exponent = 12
	}
	mmHg := math.Pow(10, exponent)
	return mmHg * PascalsPerMmHg
}

// GetVaporFor estimates the equilibrium vapor composition in a free
// headspace of volumeM3 at temperatureK, using Raoult's law
// (mole-fraction-weighted Antoine partial pressures) and the ideal gas
// law to convert partial pressure to moles. Evaporated mass is capped
// at what each constituent actually has present in the liquid.
func (m *Mixture) GetVaporFor(volumeM3, temperatureK float64) *Mixture {
	m.mu.Lock()
	type liquidEntry struct {
		sub   *Substance
		moles float64
	}
	var liquids []liquidEntry
	totalMoles := 0.0
	for _, id := range m.order {
		s := m.constituents[id]
		if s.Type.State != Liquid || !s.Type.IsVolatile() {
			continue
		}
		moles := (s.Mass * 1000) / s.Type.MolecularWeight
		liquids = append(liquids, liquidEntry{sub: s, moles: moles})
		totalMoles += moles
	}
	m.mu.Unlock()

	vapor := NewMixture()
	if totalMoles == 0 {
		return vapor
	}

	for _, entry := range liquids {
		xi := entry.moles / totalMoles
		partial := xi * vaporPressure(entry.sub.Type.Antoine, temperatureK)
		evaporatedMoles := (partial * volumeM3) / (GasConstant * temperatureK)
		if evaporatedMoles > entry.moles {
			evaporatedMoles = entry.moles
		}
		evaporatedMass := evaporatedMoles * entry.sub.Type.MolecularWeight / 1000
		if evaporatedMass <= 0 {
			continue
		}
		vapor.AddMaterial(NewSubstance(entry.sub.Type, evaporatedMass, temperatureK))
	}
	return vapor
}

// EstimatedBoilingPoint root-finds the temperature T at which the
// Raoult-weighted sum of liquid constituents' Antoine vapor pressures
// equals pressurePa, then adds boiling-point elevation from any
// non-volatile dissolved solids carried against a solvent with an
// Ebullioscopic constant.
func (m *Mixture) EstimatedBoilingPoint(pressurePa float64) (float64, error) {
	m.mu.Lock()
	type liquidEntry struct {
		sub   *Substance
		moles float64
	}
	var liquids []liquidEntry
	totalMoles := 0.0
	for _, id := range m.order {
		s := m.constituents[id]
		if s.Type.State != Liquid || !s.Type.IsVolatile() {
			continue
		}
		moles := (s.Mass * 1000) / s.Type.MolecularWeight
		liquids = append(liquids, liquidEntry{sub: s, moles: moles})
		totalMoles += moles
	}
	solids := append([]*Substance(nil), m.nonVolatileSolidsLocked()...)
	solvents := append([]*Substance(nil), m.solventsWithEbullioscopicLocked()...)
	m.mu.Unlock()

	if len(liquids) == 0 || totalMoles == 0 {
		return 0, ErrNoLiquidConstituents
	}

	f := func(t float64) float64 {
		sum := 0.0
		for _, entry := range liquids {
			xi := entry.moles / totalMoles
			sum += xi * vaporPressure(entry.sub.Type.Antoine, t)
		}
		return sum - pressurePa
	}

	bp, err := bisect(f, 150.0, 600.0, 100)
	if err != nil {
		return 0, ErrIncalculableTimeToSetpoint
	}

	elevation := 0.0
	for _, solvent := range solvents {
		for _, solute := range solids {
			if solute.Type.MolecularWeight <= 0 || solvent.Mass <= 0 {
				continue
			}
			moles := (solute.Mass * 1000) / solute.Type.MolecularWeight
			molality := moles / solvent.Mass
			elevation += *solvent.Type.Ebullioscopic * molality
		}
	}
	return bp + elevation, nil
}

func (m *Mixture) nonVolatileSolidsLocked() []*Substance {
	var out []*Substance
	for _, id := range m.order {
		s := m.constituents[id]
		if s.Type.State == Solid {
			out = append(out, s)
		}
	}
	return out
}

func (m *Mixture) solventsWithEbullioscopicLocked() []*Substance {
	var out []*Substance
	for _, id := range m.order {
		s := m.constituents[id]
		if s.Type.State == Liquid && s.Type.Ebullioscopic != nil {
			out = append(out, s)
		}
	}
	return out
}

// bisect finds a root of f within [lo, hi] to within a tight numeric
// tolerance, or returns an error if f does not change sign across the
// bracket.
func bisect(f func(float64) float64, lo, hi float64, maxIter int) (float64, error) {
	flo, fhi := f(lo), f(hi)
	if flo == 0 {
		return lo, nil
	}
	if fhi == 0 {
		return hi, nil
	}
	if (flo > 0) == (fhi > 0) {
		return 0, ErrIncalculableTimeToSetpoint
	}
	for i := 0; i < maxIter; i++ {
		mid := (lo + hi) / 2
		fmid := f(mid)
		if math.Abs(fmid) < 1e-6 || (hi-lo) < 1e-9 {
			return mid, nil
		}
		if (fmid > 0) == (flo > 0) {
			lo, flo = mid, fmid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, nil
}
