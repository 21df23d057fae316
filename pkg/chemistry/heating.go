package chemistry

import "math"

// TimeToSetpoint estimates the seconds needed to drive the mixture's
// current temperature to targetK at a constant heatDutyWatts (positive
// for heating, negative for cooling). Returns
// ErrIncalculableTimeToSetpoint when the duty cannot move the mixture
// toward the target (zero duty, or duty sign opposing the needed
// direction) or the mixture is empty.
func (m *Mixture) TimeToSetpoint(targetK, heatDutyWatts float64) (float64, error) {
	mass := m.Mass()
	if mass == 0 {
		return 0, ErrIncalculableTimeToSetpoint
	}
	current := m.Temperature()
	delta := targetK - current
	if delta == 0 {
		return 0, nil
	}
	if heatDutyWatts == 0 || math.Signbit(delta) != math.Signbit(heatDutyWatts) {
		return 0, ErrIncalculableTimeToSetpoint
	}

	cp := m.SpecificHeat()
	energyKJ := mass * cp * delta
	seconds := (energyKJ * 1000) / heatDutyWatts
	return math.Abs(seconds), nil
}

// SpecificHeat returns the mass-weighted average specific heat, in
// kJ/(kg*K), across all constituents.
func (m *Mixture) SpecificHeat() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	num, den := 0.0, 0.0
	for _, s := range m.constituents {
		num += s.Mass * s.Type.SpecificHeat
		den += s.Mass
	}
	if den == 0 {
		return 0
	}
	return num / den
}
