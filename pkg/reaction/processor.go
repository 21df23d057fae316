package reaction

import (
	"fmt"
	"sync"

	"github.com/eaglepoint/batchsim/pkg/chemistry"
)

// Listener is notified before ("going to happen") or after
// ("happened") a reaction step is applied to a mixture, carrying the
// extent (kg of reactant-basis mass consumed) of that step.
type Listener func(m *chemistry.Mixture, r Reaction, extent float64)

// Processor watches mixtures for Contents changes and drives any
// registered Reaction whose reactants are present to a fixpoint,
// re-examining after each step because products may enable further
// reactions. Grounded on the worklist-over-registered-set iteration
// shape of the task graph's propagateFrom, generalized from validity
// recomputation to stoichiometric extent computation.
type Processor struct {
	mu         sync.Mutex
	reactions  []Reaction
	going      []Listener
	happened   []Listener
	passStart  []FixpointStartListener
	passFinish []FixpointFinishListener
	reacting   map[*chemistry.Mixture]bool
}

// FixpointStartListener is notified when a mixture begins a fixpoint
// pass, before any reaction step is examined.
type FixpointStartListener func(m *chemistry.Mixture)

// FixpointFinishListener is notified when a mixture's fixpoint pass
// ends, with the error React/Watch's internal call returned (nil on
// convergence).
type FixpointFinishListener func(m *chemistry.Mixture, err error)

// NewProcessor constructs an empty Processor.
func NewProcessor() *Processor {
	return &Processor{reacting: make(map[*chemistry.Mixture]bool)}
}

// AddReaction validates and registers r.
func (p *Processor) AddReaction(r Reaction) error {
	if err := validate(r); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reactions = append(p.reactions, r)
	return nil
}

// OnReactionGoingToHappen registers a listener fired immediately
// before a reaction step is applied.
func (p *Processor) OnReactionGoingToHappen(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.going = append(p.going, l)
}

// OnReactionHappened registers a listener fired immediately after a
// reaction step is applied.
func (p *Processor) OnReactionHappened(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.happened = append(p.happened, l)
}

// OnFixpointStarting registers a listener fired when a mixture begins
// a fixpoint pass, whether driven by Watch's change hook or a direct
// React call.
func (p *Processor) OnFixpointStarting(l FixpointStartListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.passStart = append(p.passStart, l)
}

// OnFixpointFinished registers a listener fired when a mixture's
// fixpoint pass ends.
func (p *Processor) OnFixpointFinished(l FixpointFinishListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.passFinish = append(p.passFinish, l)
}

// Watch installs a Contents-change hook on m: every time m's contents
// change, the processor re-examines all registered reactions against
// it. Mutations react() itself makes (removing reactants, adding
// products) also fire Contents changes; beginReacting/endReacting guard against
// re-entering react() from inside its own apply step, since the
// running fixpoint loop already accounts for newly enabled reactions.
func (p *Processor) Watch(m *chemistry.Mixture) {
	m.OnChanged(func(mix *chemistry.Mixture, kind chemistry.ChangeKind) {
		if kind != chemistry.Contents {
			return
		}
		if !p.beginReacting(mix) {
			return
		}
		defer p.endReacting(mix)
		p.firePassStart(mix)
		err := p.react(mix)
		p.firePassFinish(mix, err)
	})
}

// React drives m to a fixpoint directly, the same as the hook Watch
// installs, returning ErrUnconvergedReaction if the iteration cap is
// exceeded. Callers that need to observe convergence failures (rather
// than relying on the passive Watch hook) call this after mutating m
// themselves.
func (p *Processor) React(m *chemistry.Mixture) error {
	if !p.beginReacting(m) {
		return nil
	}
	defer p.endReacting(m)
	p.firePassStart(m)
	err := p.react(m)
	p.firePassFinish(m, err)
	return err
}

// CheckClosure verifies that every material referenced by a
// registered reaction is still present in catalog, catching the case
// where a catalog reload dropped or replaced a MaterialType that a
// reaction was defined against.
func (p *Processor) CheckClosure(catalog *chemistry.MaterialCatalog) error {
	for _, r := range p.snapshotReactions() {
		for _, reactant := range r.Reactants {
			if !catalog.Contains(reactant.Type) {
				return fmt.Errorf("%w: reaction %q reactant %q not in catalog", ErrReactionDefinition, r.Name, reactant.Type.Name)
			}
		}
		for _, product := range r.Products {
			if !catalog.Contains(product.Type) {
				return fmt.Errorf("%w: reaction %q product %q not in catalog", ErrReactionDefinition, r.Name, product.Type.Name)
			}
		}
	}
	return nil
}

func (p *Processor) beginReacting(m *chemistry.Mixture) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reacting[m] {
		return false
	}
	p.reacting[m] = true
	return true
}

func (p *Processor) endReacting(m *chemistry.Mixture) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.reacting, m)
}

// react drives m to a fixpoint: in each pass it applies every reaction
// whose computed extent is at least epsilon*totalMass, stopping when a
// full pass applies nothing, or raising ErrUnconvergedReaction past
// the iteration cap.
func (p *Processor) react(m *chemistry.Mixture) error {
	for iter := 0; iter < maxFixpointIters; iter++ {
		reactions := p.snapshotReactions()
		applied := false

		for _, r := range reactions {
			extent, ok := limitingExtent(m, r)
			if !ok {
				continue
			}
			threshold := fractionTolerance * m.Mass()
			if extent < threshold {
				continue
			}

			p.fireGoing(m, r, extent)
			apply(m, r, extent)
			p.fireHappened(m, r, extent)
			applied = true
		}

		if !applied {
			return nil
		}
	}
	return ErrUnconvergedReaction
}

func (p *Processor) snapshotReactions() []Reaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Reaction(nil), p.reactions...)
}

func (p *Processor) fireGoing(m *chemistry.Mixture, r Reaction, extent float64) {
	p.mu.Lock()
	listeners := append([]Listener(nil), p.going...)
	p.mu.Unlock()
	for _, l := range listeners {
		l(m, r, extent)
	}
}

func (p *Processor) fireHappened(m *chemistry.Mixture, r Reaction, extent float64) {
	p.mu.Lock()
	listeners := append([]Listener(nil), p.happened...)
	p.mu.Unlock()
	for _, l := range listeners {
		l(m, r, extent)
	}
}

func (p *Processor) firePassStart(m *chemistry.Mixture) {
	p.mu.Lock()
	listeners := append([]FixpointStartListener(nil), p.passStart...)
	p.mu.Unlock()
	for _, l := range listeners {
		l(m)
	}
}

func (p *Processor) firePassFinish(m *chemistry.Mixture, err error) {
	p.mu.Lock()
	listeners := append([]FixpointFinishListener(nil), p.passFinish...)
	p.mu.Unlock()
	for _, l := range listeners {
		l(m, err)
	}
}

// limitingExtent computes the reaction extent bounded by the scarcest
// reactant: min over reactants of mass_present / fraction. ok is false
// if any reactant is entirely absent from the mixture.
func limitingExtent(m *chemistry.Mixture, r Reaction) (extent float64, ok bool) {
	present := make(map[string]float64)
	for _, s := range m.Constituents() {
		present[s.Type.ID] = s.Mass
	}

	extent = -1
	for _, reactant := range r.Reactants {
		mass, have := present[reactant.Type.ID]
		if !have || mass <= 0 {
			return 0, false
		}
		candidate := mass / reactant.Fraction
		if extent < 0 || candidate < extent {
			extent = candidate
		}
	}
	if extent < 0 {
		return 0, false
	}
	return extent, true
}

// apply consumes extent*fraction of each reactant, produces
// extent*fraction of each product, and adjusts the mixture's
// temperature by (extent*heatOfReaction)/(mass*specificHeat) of the
// resulting mixture.
func apply(m *chemistry.Mixture, r Reaction, extent float64) {
	for _, reactant := range r.Reactants {
		amount := extent * reactant.Fraction
		m.RemoveMaterial(reactant.Type, &amount)
	}
	for _, product := range r.Products {
		amount := extent * product.Fraction
		m.AddMaterial(chemistry.NewSubstance(product.Type, amount, m.Temperature()))
	}

	mass := m.Mass()
	cp := m.SpecificHeat()
	if mass > 0 && cp > 0 {
		deltaK := (extent * r.HeatOfReaction) / (mass * cp * 1000)
		m.AdjustTemperature(deltaK)
	}
}
