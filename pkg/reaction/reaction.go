package reaction

import (
	"errors"
	"fmt"

	"github.com/eaglepoint/batchsim/pkg/chemistry"
)

// ErrReactionDefinition is returned by AddReaction when a proposed
// Reaction is malformed: fractions not summing to 1, or a material
// appearing as both reactant and product.
var ErrReactionDefinition = errors.New("reaction: invalid reaction definition")

// ErrUnconvergedReaction is returned when a watched mixture's
// fixpoint loop exceeds the iteration cap without every reaction's
// extent dropping below the convergence threshold.
var ErrUnconvergedReaction = errors.New("reaction: reaction set failed to converge")

const (
	fractionTolerance = 1e-6
	maxFixpointIters  = 100
)

// Component is one reactant or product entry: a material and the
// fraction of the reaction's mass it represents.
type Component struct {
	Type     *chemistry.MaterialType
	Fraction float64
}

// Reaction is a stoichiometric balance: reactant fractions consumed,
// product fractions produced, and a scalar heat of reaction in J/kg.
type Reaction struct {
	Name           string
	Reactants      []Component
	Products       []Component
	HeatOfReaction float64 // J/kg
}

func sumFractions(cs []Component) float64 {
	sum := 0.0
	for _, c := range cs {
		sum += c.Fraction
	}
	return sum
}

func validate(r Reaction) error {
	if absDiff(sumFractions(r.Reactants), 1.0) > fractionTolerance {
		return fmt.Errorf("%w: reactant fractions sum to %.6f, want 1.0", ErrReactionDefinition, sumFractions(r.Reactants))
	}
	if absDiff(sumFractions(r.Products), 1.0) > fractionTolerance {
		return fmt.Errorf("%w: product fractions sum to %.6f, want 1.0", ErrReactionDefinition, sumFractions(r.Products))
	}
	for _, reactant := range r.Reactants {
		for _, product := range r.Products {
			if reactant.Type.ID == product.Type.ID {
				return fmt.Errorf("%w: %s appears as both reactant and product", ErrReactionDefinition, reactant.Type.Name)
			}
		}
	}
	return nil
}

func absDiff(a, b float64) float64 {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}
