package chemistry

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// csvColumn indices for the pure-component properties file format:
// name, casNumber, classification, density_g_per_L, density_lb_per_gal,
// molWeight, diffusivity_air, henrys, antoineA, antoineB, antoineC,
// calcVP_mmHg, calcVP_psi.
const (
	colName = iota
	colCAS
	colClassification
	colDensityGPerL
	colDensityLbPerGal
	colMolWeight
	colDiffusivityAir
	colHenrys
	colAntoineA
	colAntoineB
	colAntoineC
	colCalcVPmmHg
	colCalcVPpsi
	csvColumnCount
)

// LoadCSV parses a semicolon-comment-prefixed pure-component
// properties CSV and registers one MaterialType per row. Blank
// Antoine cells mean the material is not volatile. Density is read in
// g/L and converted to specific gravity (density of water = 1000 g/L).
func (c *MaterialCatalog) LoadCSV(r io.Reader) error {
	reader := csv.NewReader(r)
	reader.Comment = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("chemistry: reading properties csv: %w", err)
	}

	for i, row := range rows {
		if i == 0 && looksLikeHeader(row) {
			continue
		}
		if len(row) < csvColumnCount {
			return fmt.Errorf("chemistry: properties csv row %d has %d columns, want %d", i, len(row), csvColumnCount)
		}
		m, err := parseMaterialRow(row)
		if err != nil {
			return fmt.Errorf("chemistry: properties csv row %d: %w", i, err)
		}
		c.Register(m)
	}
	return nil
}

func looksLikeHeader(row []string) bool {
	return strings.EqualFold(strings.TrimSpace(row[colName]), "name")
}

func parseMaterialRow(row []string) (*MaterialType, error) {
	name := strings.TrimSpace(row[colName])
	if name == "" {
		return nil, fmt.Errorf("empty name")
	}

	densityGPerL, err := parseOptionalFloat(row[colDensityGPerL])
	if err != nil {
		return nil, fmt.Errorf("density_g_per_L: %w", err)
	}
	molWeight, err := parseOptionalFloat(row[colMolWeight])
	if err != nil {
		return nil, fmt.Errorf("molWeight: %w", err)
	}
	henrys, err := parseOptionalFloat(row[colHenrys])
	if err != nil {
		return nil, fmt.Errorf("henrys: %w", err)
	}

	m := &MaterialType{
		Name:            name,
		MolecularWeight: molWeight,
		State:           Liquid,
		SpecificHeat:    4.18,
	}
	if densityGPerL > 0 {
		m.SpecificGravity = densityGPerL / 1000.0
	}
	if henrys > 0 {
		m.Henry = &henrys
	}

	a, errA := parseOptionalFloat(row[colAntoineA])
	b, errB := parseOptionalFloat(row[colAntoineB])
	cc, errC := parseOptionalFloat(row[colAntoineC])
	if errA != nil || errB != nil || errC != nil {
		return nil, fmt.Errorf("antoine coefficients: malformed")
	}
	if strings.TrimSpace(row[colAntoineA]) != "" {
		m.Antoine = &AntoineCoefficients{A: a, B: b, C: cc}
	}

	return m, nil
}

func parseOptionalFloat(field string) (float64, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return 0, nil
	}
	return strconv.ParseFloat(field, 64)
}
