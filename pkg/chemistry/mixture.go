package chemistry

import (
	"fmt"
	"strings"
	"sync"
)

// Mixture is an ordered bag of substances sharing thermal equilibrium.
// Constituents are keyed by MaterialType.ID but iterated in insertion
// order, matching the insertion-ordered map the data model calls for.
type Mixture struct {
	mu           sync.Mutex
	order        []string
	constituents map[string]*Substance

	suspended          bool
	pendingContents    bool
	pendingTemperature bool

	listeners []MaterialChangedListener
}

// NewMixture constructs an empty Mixture.
func NewMixture() *Mixture {
	return &Mixture{constituents: make(map[string]*Substance)}
}

// OnChanged registers a listener for Contents/Temperature
// notifications.
func (m *Mixture) OnChanged(l MaterialChangedListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// pendingLocked records kind as suppressed (while suspended) or
// returns the listener snapshot to fire once the caller has released
// m.mu. Listeners must never run while m.mu is held: a reaction
// processor's listener routinely calls back into AddMaterial/
// RemoveMaterial on the same mixture.
func (m *Mixture) pendingLocked(kind ChangeKind) []MaterialChangedListener {
	if m.suspended {
		switch kind {
		case Contents:
			m.pendingContents = true
		case Temperature:
			m.pendingTemperature = true
		}
		return nil
	}
	return append([]MaterialChangedListener(nil), m.listeners...)
}

func fire(listeners []MaterialChangedListener, m *Mixture, kind ChangeKind) {
	for _, l := range listeners {
		l(m, kind)
	}
}

// SuspendChangeEvents batches Contents/Temperature notifications until
// ResumeChangeEvents is called.
func (m *Mixture) SuspendChangeEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suspended = true
}

// ResumeChangeEvents stops batching. If emitPending is true and any
// notification was suppressed while suspended, one aggregate Contents
// and/or Temperature event fires now.
func (m *Mixture) ResumeChangeEvents(emitPending bool) {
	m.mu.Lock()
	pendingContents := m.pendingContents
	pendingTemperature := m.pendingTemperature
	m.suspended = false
	m.pendingContents = false
	m.pendingTemperature = false
	listeners := append([]MaterialChangedListener(nil), m.listeners...)
	m.mu.Unlock()

	if !emitPending {
		return
	}
	if pendingContents {
		for _, l := range listeners {
			l(m, Contents)
		}
	}
	if pendingTemperature {
		for _, l := range listeners {
			l(m, Temperature)
		}
	}
}

// AddMaterial merges a Substance into the mixture by MaterialType: if
// already present, masses sum and temperature becomes the
// mass*specificHeat-weighted average; otherwise it is inserted at the
// end of iteration order.
func (m *Mixture) AddMaterial(s *Substance) {
	m.mu.Lock()
	id := s.Type.ID
	existing, ok := m.constituents[id]
	if !ok {
		copySub := NewSubstance(s.Type, s.Mass, s.Temperature)
		copySub.combineSpecsFrom(s)
		m.constituents[id] = copySub
		m.order = append(m.order, id)
	} else {
		existing.AddMass(s)
	}
	contentsListeners := m.pendingLocked(Contents)
	tempListeners := m.pendingLocked(Temperature)
	m.mu.Unlock()

	fire(contentsListeners, m, Contents)
	fire(tempListeners, m, Temperature)
}

// RemoveMaterial removes massKg of the named MaterialType (or all of
// it, if massKg is nil), returning the removed Substance.
// ErrInsufficientMass is returned if more is requested than present;
// ErrUnknownMaterial if the type is not in the mixture.
func (m *Mixture) RemoveMaterial(t *MaterialType, massKg *float64) (*Substance, error) {
	m.mu.Lock()

	existing, ok := m.constituents[t.ID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrUnknownMaterial
	}

	amount := existing.Mass
	if massKg != nil {
		amount = *massKg
	}
	if amount > existing.Mass {
		m.mu.Unlock()
		return nil, ErrInsufficientMass
	}

	removed, err := existing.RemoveMass(amount)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if existing.Mass == 0 {
		delete(m.constituents, t.ID)
		m.order = removeID(m.order, t.ID)
	}
	listeners := m.pendingLocked(Contents)
	m.mu.Unlock()

	fire(listeners, m, Contents)
	return removed, nil
}

func removeID(order []string, id string) []string {
	out := order[:0]
	for _, existing := range order {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

// Mass returns total mixture mass in kg.
func (m *Mixture) Mass() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.massLocked()
}

func (m *Mixture) massLocked() float64 {
	total := 0.0
	for _, s := range m.constituents {
		total += s.Mass
	}
	return total
}

// Temperature returns the mass*specificHeat-weighted average
// temperature in Kelvin across all constituents.
func (m *Mixture) Temperature() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.temperatureLocked()
}

func (m *Mixture) temperatureLocked() float64 {
	num, den := 0.0, 0.0
	for _, s := range m.constituents {
		w := s.Mass * s.Type.SpecificHeat
		num += w * s.Temperature
		den += w
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// AdjustTemperature raises or lowers every constituent's temperature
// by deltaK, preserving thermal equilibrium across the mixture, and
// fires a single Temperature change.
func (m *Mixture) AdjustTemperature(deltaK float64) {
	m.mu.Lock()
	for _, s := range m.constituents {
		s.Temperature += deltaK
	}
	listeners := m.pendingLocked(Temperature)
	m.mu.Unlock()

	fire(listeners, m, Temperature)
}

// Volume returns the mixture's volume in cubic meters: liquid and
// solid constituents contribute mass/density; gas constituents
// contribute free-expansion volume (ideal gas law) only when no
// liquid constituent is present.
func (m *Mixture) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	hasLiquid := false
	for _, s := range m.constituents {
		if s.Type.State == Liquid {
			hasLiquid = true
			break
		}
	}

	total := 0.0
	for _, s := range m.constituents {
		switch s.Type.State {
		case Gas:
			if hasLiquid {
				continue
			}
			moles := (s.Mass * 1000) / s.Type.MolecularWeight
			total += moles * GasConstant * s.Temperature / PascalsPerAtmosphere
		default:
			densityKgPerM3 := s.Type.SpecificGravity * 1000
			if densityKgPerM3 > 0 {
				total += s.Mass / densityKgPerM3
			}
		}
	}
	return total
}

// Constituents returns the mixture's Substances in insertion order.
func (m *Mixture) Constituents() []*Substance {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Substance, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.constituents[id])
	}
	return out
}

// String implements the "Mixture (T.TT deg C) of M.MMMM kg of NAME[,
// ...] and M.MMMM kg of NAME" format.
func (m *Mixture) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	tempC := m.temperatureLocked() - CelsiusToKelvin
	parts := make([]string, 0, len(m.order))
	for _, id := range m.order {
		s := m.constituents[id]
		parts = append(parts, fmt.Sprintf("%.4f kg of %s", s.Mass, s.Type.Name))
	}

	var joined string
	switch len(parts) {
	case 0:
		joined = "nothing"
	case 1:
		joined = parts[0]
	default:
		joined = strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
	return fmt.Sprintf("Mixture (%.2f deg C) of %s", tempC, joined)
}
