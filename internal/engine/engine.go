// Package engine implements the city simulation rules: building,
// demolition, and the monthly economic recomputation.
//
// Every operation is a synchronous state transition on a *city.State that
// the caller owns exclusively for the duration of the call. The engine
// keeps no reference to a city between calls, performs no I/O and does not
// log. Failed operations leave the state untouched.
package engine

import (
	"errors"

	"github.com/talgya/gridcity/internal/catalog"
)

// Build errors. Unknown kinds surface as catalog.ErrUnknownKey.
var (
	ErrOutOfBounds       = errors.New("cell index out of bounds")
	ErrInvalidKind       = errors.New("cannot build the empty kind")
	ErrCellOccupied      = errors.New("cell is occupied")
	ErrCellEmpty         = errors.New("cell is empty")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Economic constants.
const (
	RefundRate        = 0.5 // Share of the cost returned on demolition
	PowerCostPerUnit  = 10  // Money charged per unit of power deficit, before modifiers
	MaxDeficitPenalty = 5   // Largest monthly happiness loss from a deficit
	SurplusHappiness  = 1   // Monthly happiness gain without a deficit
	GrowthPivot       = 50  // Happiness at which population holds steady
	GrowthStep        = 10  // Happiness points per inhabitant of monthly growth
)

// Engine applies the rules using one catalog's building definitions.
// It is safe for concurrent use across different cities.
type Engine struct {
	catalog *catalog.Catalog
}

// New creates an engine backed by cat.
func New(cat *catalog.Catalog) *Engine {
	return &Engine{catalog: cat}
}

// Catalog returns the catalog the engine reads from.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Refund returns what demolishing a building of the given cost pays back.
func Refund(cost int) int {
	// cost >= 0, so truncation is the floor.
	return int(float64(cost) * RefundRate)
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
