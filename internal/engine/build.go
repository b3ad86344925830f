package engine

import (
	"fmt"

	"github.com/talgya/gridcity/internal/catalog"
	"github.com/talgya/gridcity/internal/city"
)

// Place builds kind on the empty cell at index and pays for it.
func (e *Engine) Place(s *city.State, index int, kind catalog.BuildingKind) error {
	if !s.InBounds(index) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfBounds, index, s.Len())
	}
	if kind == catalog.KindEmpty {
		return ErrInvalidKind
	}
	def, err := e.catalog.Building(kind)
	if err != nil {
		return err
	}
	if occupant := s.Cells[index].Kind; occupant != catalog.KindEmpty {
		return fmt.Errorf("%w: cell %d holds %s", ErrCellOccupied, index, occupant)
	}
	if s.Money < def.Cost {
		return fmt.Errorf("%w: %s costs %d, have %d", ErrInsufficientFunds, kind, def.Cost, s.Money)
	}

	s.Money -= def.Cost
	s.Power += def.PowerDelta
	s.Population += def.PopulationDelta
	s.Happiness = city.ClampHappiness(s.Happiness + def.HappinessDelta)
	s.Cells[index] = city.Cell{Kind: kind}
	return nil
}

// Demolish clears the cell at index, reverses the building's effects and
// refunds half its cost. Money is the only asymmetric counter.
func (e *Engine) Demolish(s *city.State, index int) (int, error) {
	if !s.InBounds(index) {
		return 0, fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfBounds, index, s.Len())
	}
	kind := s.Cells[index].Kind
	if kind == catalog.KindEmpty {
		return 0, fmt.Errorf("%w: cell %d", ErrCellEmpty, index)
	}
	def, err := e.catalog.Building(kind)
	if err != nil {
		return 0, err
	}

	refund := Refund(def.Cost)
	s.Money += refund
	s.Power -= def.PowerDelta
	s.Population = max(0, s.Population-def.PopulationDelta)
	s.Happiness = city.ClampHappiness(s.Happiness - def.HappinessDelta)
	s.Cells[index] = city.Cell{Kind: catalog.KindEmpty}
	return refund, nil
}
