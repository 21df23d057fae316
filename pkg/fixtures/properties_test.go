package fixtures

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPropertiesParsesRowsAndSkipsHeader(t *testing.T) {
	csvText := `name,casNumber,classification,density_g_per_L,density_lb_per_gal,molWeight,diffusivity_air,henrys,antoineA,antoineB,antoineC,calcVP_mmHg,calcVP_psi
; comment rows are ignored
Water,7732-18-5,Solvent,998,8.33,18.015,0.282,0.00067,8.07131,1730.63,233.426,17.5,0.338
Sodium Chloride,7647-14-5,Salt,2160,18.0,58.44,,,,,,,
`
	components, err := LoadProperties(strings.NewReader(csvText))
	require.NoError(t, err)
	require.Len(t, components, 2)

	water := components[0]
	assert.Equal(t, "Water", water.Name)
	assert.Equal(t, "7732-18-5", water.CASNumber)
	assert.InDelta(t, 998, water.DensityGPerL, 1e-9)
	assert.InDelta(t, 18.015, water.MolWeight, 1e-9)
	require.NotNil(t, water.Antoine)
	assert.InDelta(t, 8.07131, water.Antoine.A, 1e-9)
	assert.InDelta(t, 1730.63, water.Antoine.B, 1e-9)
	assert.InDelta(t, 233.426, water.Antoine.C, 1e-9)

	salt := components[1]
	assert.Equal(t, "Sodium Chloride", salt.Name)
	assert.Nil(t, salt.Antoine, "blank antoine cells mean not volatile")
}

func TestLoadPropertiesRejectsShortRow(t *testing.T) {
	_, err := LoadProperties(strings.NewReader("Water,7732-18-5\n"))
	assert.Error(t, err)
}

func TestLoadPropertiesRejectsEmptyName(t *testing.T) {
	_, err := LoadProperties(strings.NewReader(",7732-18-5,Solvent,998,8.33,18.015,0.282,0.00067,8.07131,1730.63,233.426,17.5,0.338\n"))
	assert.Error(t, err)
}
