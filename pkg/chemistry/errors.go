package chemistry

import "errors"

var (
	// ErrUnknownMaterial is returned when a MaterialCatalog lookup
	// misses.
	ErrUnknownMaterial = errors.New("chemistry: unknown material")

	// ErrInsufficientMass is returned when a removal requests more
	// mass than a Substance or Mixture constituent currently holds.
	ErrInsufficientMass = errors.New("chemistry: insufficient mass")

	// ErrIncalculableTimeToSetpoint is returned by heating/cooling
	// time estimates that cannot be computed (e.g. zero heat duty, a
	// duty whose sign opposes the needed change, or an empty mixture);
	// a target already reached yields zero time, not this error. Always
	// raised, never retried internally.
	ErrIncalculableTimeToSetpoint = errors.New("chemistry: incalculable time to setpoint")

	// ErrNotVolatile names the condition of a constituent that carries
	// no Antoine coefficients. The vapor and boiling-point calculations
	// do not return it; they skip such constituents.
	ErrNotVolatile = errors.New("chemistry: material has no Antoine coefficients")

	// ErrNoLiquidConstituents is returned by estimatedBoilingPoint
	// when a mixture has nothing to boil.
	ErrNoLiquidConstituents = errors.New("chemistry: mixture has no liquid constituents")
)
