package fixtures

import (
	"encoding/xml"
	"fmt"
	"io"
)

// EmissionTest is one <Test> element of an emission-test fixture
// document: a stimulus (starting materials and named parameters) and
// the expected response, broken down per named model.
type EmissionTest struct {
	Num      int      `xml:"num,attr"`
	Stimulus Stimulus `xml:"Stimulus"`
	Response Response `xml:"Response"`
}

// Stimulus lists the materials charged before the test runs and the
// named parameters driving it. Parameter names and units are fixed by
// convention: controlTemperature (C), initialTankTemperature (C),
// finalTankTemperature (C), fillVolumeInGallons, freeSpaceInGallons,
// initialPressureIn_mmHg, finalPressureIn_mmHg,
// batchCycleTimeForSweepInHours, gasSweepRateInSCFM,
// numberOfMolesOfGasEvolved, leakRateOfAirIntoSystem (lb/hour),
// batchCycleTimeForVacuumOps (hours), systemPressureForVacuumOpsIn_mmHg,
// systemPressure (mmHg).
type Stimulus struct {
	Materials  []StimulusMaterial `xml:"Material"`
	Parameters []Parameter        `xml:"Parameter"`
}

// StimulusMaterial is one charged material and its starting quantity.
type StimulusMaterial struct {
	Name     string  `xml:"name,attr"`
	Quantity float64 `xml:"quantity,attr"`
}

// Parameter is a single named, valued test input.
type Parameter struct {
	Name  string  `xml:"name,attr"`
	Value float64 `xml:"value,attr"`
}

// Response holds the expected output of every model exercised by the
// test, each keyed by model name.
type Response struct {
	Models []ModelResult `xml:"Model"`
}

// ModelResult is the expected emission, per material, of one named
// model under the enclosing test's stimulus.
type ModelResult struct {
	Name      string           `xml:"name,attr"`
	Materials []ResultMaterial `xml:"Material"`
}

// ResultMaterial is the expected emitted mass, in kilograms, of one
// material under a model's result.
type ResultMaterial struct {
	Name      string  `xml:"name,attr"`
	Kilograms float64 `xml:"kilograms,attr"`
}

type emissionTestsDocument struct {
	XMLName xml.Name       `xml:"EmissionTests"`
	Tests   []EmissionTest `xml:"Test"`
}

// LoadEmissionTests parses an EmissionTests/Test[@num]/{Stimulus,
// Response} XML document into a slice of EmissionTest, in document
// order.
func LoadEmissionTests(r io.Reader) ([]EmissionTest, error) {
	var doc emissionTestsDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("fixtures: decoding emission tests xml: %w", err)
	}
	return doc.Tests, nil
}
