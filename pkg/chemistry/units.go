package chemistry

// Unit conversion constants used throughout the catalog loader and the
// vapor/boiling-point calculations.
const (
	CelsiusToKelvin      = 273.15
	KgPerPound           = 0.453592
	PascalsPerMmHg       = 133.322
	PascalsPerAtmosphere = 101325.0
	LitersPerGallon      = 3.7854118
	CubicFtPerCubicMeter = 35.314667

	// GasConstant is R in J/(mol*K).
	GasConstant = 8.314
)
