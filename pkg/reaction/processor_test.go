package reaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eaglepoint/batchsim/pkg/chemistry"
)

func newMat(catalog *chemistry.MaterialCatalog, name string) *chemistry.MaterialType {
	return catalog.Register(&chemistry.MaterialType{Name: name, State: chemistry.Liquid, SpecificHeat: 4.18, SpecificGravity: 1.0})
}

func TestAddReactionRejectsBadFractions(t *testing.T) {
	catalog := chemistry.NewMaterialCatalog()
	a := newMat(catalog, "A")
	b := newMat(catalog, "B")

	p := NewProcessor()
	err := p.AddReaction(Reaction{
		Name:      "bad",
		Reactants: []Component{{Type: a, Fraction: 0.5}},
		Products:  []Component{{Type: b, Fraction: 1.0}},
	})
	assert.ErrorIs(t, err, ErrReactionDefinition)
}

func TestAddReactionRejectsSharedMaterial(t *testing.T) {
	catalog := chemistry.NewMaterialCatalog()
	a := newMat(catalog, "A")
	b := newMat(catalog, "B")

	p := NewProcessor()
	err := p.AddReaction(Reaction{
		Name:      "shares-a",
		Reactants: []Component{{Type: a, Fraction: 1.0}},
		Products:  []Component{{Type: a, Fraction: 0.5}, {Type: b, Fraction: 0.5}},
	})
	assert.ErrorIs(t, err, ErrReactionDefinition)
}

func TestReactionConsumesLimitingReactant(t *testing.T) {
	catalog := chemistry.NewMaterialCatalog()
	a := newMat(catalog, "A")
	b := newMat(catalog, "B")
	c := newMat(catalog, "C")

	p := NewProcessor()
	require.NoError(t, p.AddReaction(Reaction{
		Name:           "A+B->C",
		Reactants:      []Component{{Type: a, Fraction: 0.5}, {Type: b, Fraction: 0.5}},
		Products:       []Component{{Type: c, Fraction: 1.0}},
		HeatOfReaction: 0,
	}))

	m := chemistry.NewMixture()
	p.Watch(m)

	m.AddMaterial(chemistry.NewSubstance(a, 10, 300))
	m.AddMaterial(chemistry.NewSubstance(b, 6, 300))

	cSub, err := m.RemoveMaterial(c, nil)
	require.NoError(t, err)
	assert.InDelta(t, 12.0, cSub.Mass, 1e-6)

	remainingA, err := m.RemoveMaterial(a, nil)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, remainingA.Mass, 1e-6)
}

func TestReactionFiresGoingAndHappenedListeners(t *testing.T) {
	catalog := chemistry.NewMaterialCatalog()
	a := newMat(catalog, "A")
	b := newMat(catalog, "B")

	p := NewProcessor()
	require.NoError(t, p.AddReaction(Reaction{
		Name:      "A->B",
		Reactants: []Component{{Type: a, Fraction: 1.0}},
		Products:  []Component{{Type: b, Fraction: 1.0}},
	}))

	var goingCount, happenedCount int
	p.OnReactionGoingToHappen(func(_ *chemistry.Mixture, _ Reaction, _ float64) { goingCount++ })
	p.OnReactionHappened(func(_ *chemistry.Mixture, _ Reaction, _ float64) { happenedCount++ })

	m := chemistry.NewMixture()
	p.Watch(m)
	m.AddMaterial(chemistry.NewSubstance(a, 5, 300))

	assert.Equal(t, 1, goingCount)
	assert.Equal(t, 1, happenedCount)
}

func TestFixpointPassListenersBracketReact(t *testing.T) {
	catalog := chemistry.NewMaterialCatalog()
	a := newMat(catalog, "A")
	b := newMat(catalog, "B")

	p := NewProcessor()
	require.NoError(t, p.AddReaction(Reaction{
		Name:      "A->B",
		Reactants: []Component{{Type: a, Fraction: 1.0}},
		Products:  []Component{{Type: b, Fraction: 1.0}},
	}))

	var started, finished int
	var finishErr error
	p.OnFixpointStarting(func(_ *chemistry.Mixture) { started++ })
	p.OnFixpointFinished(func(_ *chemistry.Mixture, err error) {
		finished++
		finishErr = err
	})

	m := chemistry.NewMixture()
	p.Watch(m)
	m.AddMaterial(chemistry.NewSubstance(a, 5, 300))

	assert.Equal(t, 1, started)
	assert.Equal(t, 1, finished)
	assert.NoError(t, finishErr)
}

func TestReactionChainToFixpoint(t *testing.T) {
	catalog := chemistry.NewMaterialCatalog()
	a := newMat(catalog, "A")
	b := newMat(catalog, "B")
	c := newMat(catalog, "C")

	p := NewProcessor()
	require.NoError(t, p.AddReaction(Reaction{
		Name:      "A->B",
		Reactants: []Component{{Type: a, Fraction: 1.0}},
		Products:  []Component{{Type: b, Fraction: 1.0}},
	}))
	require.NoError(t, p.AddReaction(Reaction{
		Name:      "B->C",
		Reactants: []Component{{Type: b, Fraction: 1.0}},
		Products:  []Component{{Type: c, Fraction: 1.0}},
	}))

	m := chemistry.NewMixture()
	p.Watch(m)
	m.AddMaterial(chemistry.NewSubstance(a, 5, 300))

	cSub, err := m.RemoveMaterial(c, nil)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, cSub.Mass, 1e-6)
}
