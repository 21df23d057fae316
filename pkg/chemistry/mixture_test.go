package chemistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMaterial(name string, cp float64) *MaterialType {
	return &MaterialType{Name: name, State: Liquid, SpecificHeat: cp, SpecificGravity: 1.0}
}

func TestThermalMixing(t *testing.T) {
	catalog := NewMaterialCatalog()
	nitrousAcid := catalog.Register(newTestMaterial("Nitrous Acid", 4.18))
	potassiumHydroxide := catalog.Register(newTestMaterial("Potassium Hydroxide", 4.18))
	water := catalog.Register(newTestMaterial("Water", 4.18))

	m := NewMixture()
	m.AddMaterial(NewSubstance(nitrousAcid, 100, 20+CelsiusToKelvin))
	m.AddMaterial(NewSubstance(potassiumHydroxide, 150, 41+CelsiusToKelvin))
	m.AddMaterial(NewSubstance(water, 100, 100+CelsiusToKelvin))

	assert.InDelta(t, 350.0, m.Mass(), 1e-9)

	wantC := (100*20.0 + 150*41.0 + 100*100.0) / 350.0
	gotC := m.Temperature() - CelsiusToKelvin
	assert.InDelta(t, wantC, gotC, 1e-6)
}

func TestBoilingPointElevation(t *testing.T) {
	catalog := NewMaterialCatalog()
	kb := 0.512
	water := catalog.Register(&MaterialType{
		Name: "Water", State: Liquid, SpecificHeat: 4.18, SpecificGravity: 1.0,
		MolecularWeight: 18.015,
		Antoine:         &AntoineCoefficients{A: 8.07131, B: 1730.63, C: 233.426},
		Ebullioscopic:   &kb,
	})
	salt := catalog.Register(&MaterialType{
		Name: "Sodium Chloride", State: Solid, MolecularWeight: 58.443,
	})

	pureWater := NewMixture()
	pureWater.AddMaterial(NewSubstance(water, 1.0, 100+CelsiusToKelvin))
	pureBP, err := pureWater.EstimatedBoilingPoint(PascalsPerAtmosphere)
	require.NoError(t, err)

	saline := NewMixture()
	saline.AddMaterial(NewSubstance(water, 1.0, 100+CelsiusToKelvin))
	saline.AddMaterial(NewSubstance(salt, 0.058443, 100+CelsiusToKelvin))
	salineBP, err := saline.EstimatedBoilingPoint(PascalsPerAtmosphere)
	require.NoError(t, err)

	assert.InDelta(t, 0.512, salineBP-pureBP, 1e-6)
}

func TestMassConservedAcrossAddRemove(t *testing.T) {
	catalog := NewMaterialCatalog()
	water := catalog.Register(newTestMaterial("Water", 4.18))

	m := NewMixture()
	m.AddMaterial(NewSubstance(water, 10, 300))
	removed, err := m.RemoveMaterial(water, nil)
	require.NoError(t, err)

	assert.InDelta(t, 10.0, removed.Mass, 1e-9)
	assert.InDelta(t, 0.0, m.Mass(), 1e-9)
}

func TestRemoveMaterialInsufficientMass(t *testing.T) {
	catalog := NewMaterialCatalog()
	water := catalog.Register(newTestMaterial("Water", 4.18))

	m := NewMixture()
	m.AddMaterial(NewSubstance(water, 5, 300))

	tooMuch := 10.0
	_, err := m.RemoveMaterial(water, &tooMuch)
	assert.ErrorIs(t, err, ErrInsufficientMass)
}

func TestMixtureStringFormat(t *testing.T) {
	catalog := NewMaterialCatalog()
	water := catalog.Register(newTestMaterial("Water", 4.18))
	salt := catalog.Register(&MaterialType{Name: "Sodium Chloride", State: Solid})

	m := NewMixture()
	m.AddMaterial(NewSubstance(water, 1.5, 25+CelsiusToKelvin))
	m.AddMaterial(NewSubstance(salt, 0.25, 25+CelsiusToKelvin))

	s := m.String()
	assert.Contains(t, s, "25.00 deg C")
	assert.Contains(t, s, "1.5000 kg of Water")
	assert.Contains(t, s, "and 0.2500 kg of Sodium Chloride")
}

func TestSuspendAndResumeChangeEvents(t *testing.T) {
	catalog := NewMaterialCatalog()
	water := catalog.Register(newTestMaterial("Water", 4.18))

	m := NewMixture()
	var kinds []ChangeKind
	m.OnChanged(func(_ *Mixture, kind ChangeKind) { kinds = append(kinds, kind) })

	m.SuspendChangeEvents()
	m.AddMaterial(NewSubstance(water, 1, 300))
	m.AddMaterial(NewSubstance(water, 1, 310))
	assert.Empty(t, kinds)

	m.ResumeChangeEvents(true)
	assert.Contains(t, kinds, Contents)
	assert.Contains(t, kinds, Temperature)
}

func TestGetVaporForCapsAtAvailableLiquid(t *testing.T) {
	catalog := NewMaterialCatalog()
	water := catalog.Register(&MaterialType{
		Name: "Water", State: Liquid, SpecificHeat: 4.18, SpecificGravity: 1.0,
		MolecularWeight: 18.015,
		Antoine:         &AntoineCoefficients{A: 8.07131, B: 1730.63, C: 233.426},
	})

	m := NewMixture()
	m.AddMaterial(NewSubstance(water, 0.000001, 100+CelsiusToKelvin))

	vapor := m.GetVaporFor(1000.0, 100+CelsiusToKelvin)
	assert.LessOrEqual(t, vapor.Mass(), 0.000001+1e-12)
}
