// Package fixtures loads the external test-data formats consumed by
// property-based tests: the pure-component properties CSV and the
// emission-test XML. Neither format touches a running simulation
// directly; pkg/chemistry.MaterialCatalog.LoadCSV parses the same CSV
// shape straight into MaterialTypes, while this package hands back
// plain data for tests that want to assert against the raw fixture
// values rather than a catalog.
package fixtures

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// PureComponent is one row of the pure-component properties file:
// name, casNumber, classification, density_g_per_L, density_lb_per_gal,
// molWeight, diffusivity_air, henrys, antoineA, antoineB, antoineC,
// calcVP_mmHg, calcVP_psi. Temperatures are Celsius; pressures are
// mmHg unless noted. A nil Antoine pointer means the row had blank
// Antoine cells, i.e. the component is not volatile.
type PureComponent struct {
	Name            string
	CASNumber       string
	Classification  string
	DensityGPerL    float64
	DensityLbPerGal float64
	MolWeight       float64
	DiffusivityAir  float64
	Henrys          float64
	Antoine         *AntoineCoefficients
	CalcVPmmHg      float64
	CalcVPpsi       float64
}

// AntoineCoefficients holds the A, B, C constants of the Antoine
// vapor-pressure correlation for one component.
type AntoineCoefficients struct {
	A, B, C float64
}

const (
	propName = iota
	propCAS
	propClassification
	propDensityGPerL
	propDensityLbPerGal
	propMolWeight
	propDiffusivityAir
	propHenrys
	propAntoineA
	propAntoineB
	propAntoineC
	propCalcVPmmHg
	propCalcVPpsi
	propColumnCount
)

// LoadProperties parses a semicolon-comment-prefixed pure-component
// properties CSV into a slice of PureComponent, one per data row, in
// file order.
func LoadProperties(r io.Reader) ([]PureComponent, error) {
	reader := csv.NewReader(r)
	reader.Comment = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("fixtures: reading properties csv: %w", err)
	}

	components := make([]PureComponent, 0, len(rows))
	for i, row := range rows {
		if i == 0 && strings.EqualFold(strings.TrimSpace(row[propName]), "name") {
			continue
		}
		if len(row) < propColumnCount {
			return nil, fmt.Errorf("fixtures: properties csv row %d has %d columns, want %d", i, len(row), propColumnCount)
		}
		pc, err := parsePureComponent(row)
		if err != nil {
			return nil, fmt.Errorf("fixtures: properties csv row %d: %w", i, err)
		}
		components = append(components, pc)
	}
	return components, nil
}

func parsePureComponent(row []string) (PureComponent, error) {
	name := strings.TrimSpace(row[propName])
	if name == "" {
		return PureComponent{}, fmt.Errorf("empty name")
	}

	pc := PureComponent{
		Name:           name,
		CASNumber:      strings.TrimSpace(row[propCAS]),
		Classification: strings.TrimSpace(row[propClassification]),
	}

	fields := []struct {
		dst *float64
		col int
		tag string
	}{
		{&pc.DensityGPerL, propDensityGPerL, "density_g_per_L"},
		{&pc.DensityLbPerGal, propDensityLbPerGal, "density_lb_per_gal"},
		{&pc.MolWeight, propMolWeight, "molWeight"},
		{&pc.DiffusivityAir, propDiffusivityAir, "diffusivity_air"},
		{&pc.Henrys, propHenrys, "henrys"},
		{&pc.CalcVPmmHg, propCalcVPmmHg, "calcVP_mmHg"},
		{&pc.CalcVPpsi, propCalcVPpsi, "calcVP_psi"},
	}
	for _, f := range fields {
		v, err := parseOptionalFloat(row[f.col])
		if err != nil {
			return PureComponent{}, fmt.Errorf("%s: %w", f.tag, err)
		}
		*f.dst = v
	}

	a, errA := parseOptionalFloat(row[propAntoineA])
	b, errB := parseOptionalFloat(row[propAntoineB])
	c, errC := parseOptionalFloat(row[propAntoineC])
	if errA != nil || errB != nil || errC != nil {
		return PureComponent{}, fmt.Errorf("antoine coefficients: malformed")
	}
	if strings.TrimSpace(row[propAntoineA]) != "" {
		pc.Antoine = &AntoineCoefficients{A: a, B: b, C: c}
	}

	return pc, nil
}

func parseOptionalFloat(field string) (float64, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return 0, nil
	}
	return strconv.ParseFloat(field, 64)
}
