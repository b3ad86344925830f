package engine

import (
	"math"

	"github.com/talgya/gridcity/internal/catalog"
	"github.com/talgya/gridcity/internal/city"
)

// Report describes one monthly recomputation.
type Report struct {
	Month          int `json:"month"` // The month that was closed
	Income         int `json:"income"`
	Deficit        int `json:"deficit"`
	PowerCost      int `json:"power_cost"`
	HappinessDelta int `json:"happiness_delta"` // After clamping
	Growth         int `json:"growth"`          // Requested, before the zero floor

	// Counters after the tick.
	Money      int `json:"money"`
	Power      int `json:"power"`
	Population int `json:"population"`
	Happiness  int `json:"happiness"`
}

// Net returns the month's change in money.
func (r Report) Net() int {
	return r.Income - r.PowerCost
}

// Advance closes the current month: collects income, charges for a power
// deficit, adjusts happiness, grows the population and settles the balance.
// It depends only on the state, so identical states advance identically.
func (e *Engine) Advance(s *city.State) Report {
	r := Report{Month: s.Month}

	// Income from every building, scaled by the city's modifier.
	sum := 0
	for _, c := range s.Cells {
		if c.Kind == catalog.KindEmpty {
			continue
		}
		def, err := e.catalog.Building(c.Kind)
		if err != nil {
			continue
		}
		sum += def.IncomeDelta
	}
	r.Income = int(math.Floor(float64(sum) * s.Modifiers.IncomeFactor))

	// A surplus is free; a deficit is bought in.
	r.Deficit = max(0, -s.Power)
	r.PowerCost = int(math.Floor(float64(r.Deficit*PowerCostPerUnit) * s.Modifiers.PowerCostFactor))

	before := s.Happiness
	if r.Deficit > 0 {
		s.Happiness = city.ClampHappiness(s.Happiness - min(MaxDeficitPenalty, r.Deficit))
	} else {
		s.Happiness = city.ClampHappiness(s.Happiness + SurplusHappiness)
	}
	r.HappinessDelta = s.Happiness - before

	// Growth reads the happiness set above, not the value the month opened with.
	r.Growth = floorDiv(s.Happiness-GrowthPivot, GrowthStep)
	s.Population = max(0, s.Population+r.Growth)

	s.Money += r.Income - r.PowerCost
	s.Month++

	r.Money = s.Money
	r.Power = s.Power
	r.Population = s.Population
	r.Happiness = s.Happiness
	return r
}
