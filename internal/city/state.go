// Package city holds the mutable per-city simulation state: the grid and
// the resource counters.
package city

import (
	"fmt"

	"github.com/talgya/gridcity/internal/catalog"
)

// StartPopulation is the population of every freshly founded city.
const StartPopulation = 10

// Happiness bounds.
const (
	MinHappiness = 0
	MaxHappiness = 100
)

// Cell is one grid position. Cells are value-replaced, never allocated.
type Cell struct {
	Kind catalog.BuildingKind `json:"kind"`
}

// State is the complete simulation state of one city.
//
// Invariants after every engine call: 0 <= Happiness <= 100,
// Population >= 0, len(Cells) == Cols*Rows, Month >= 1.
type State struct {
	Key  string `json:"key"`
	Name string `json:"name"`

	// Grid, row-major.
	Cols  int    `json:"cols"`
	Rows  int    `json:"rows"`
	Cells []Cell `json:"cells"`

	// Counters
	Money      int `json:"money"`      // May go negative
	Power      int `json:"power"`      // Negative is a deficit
	Population int `json:"population"`
	Happiness  int `json:"happiness"` // 0–100
	Month      int `json:"month"`     // Starts at 1, +1 per tick

	Modifiers catalog.CityModifiers `json:"modifiers"`
}

// New founds a city from its catalog preset. Every call returns an
// independent state; callers must not overwrite a city in progress.
func New(cat *catalog.Catalog, key string) (*State, error) {
	p, err := cat.City(key)
	if err != nil {
		return nil, err
	}

	return &State{
		Key:        p.Key,
		Name:       p.Name,
		Cols:       p.Cols,
		Rows:       p.Rows,
		Cells:      make([]Cell, p.Cols*p.Rows),
		Money:      p.StartMoney,
		Power:      p.StartPower,
		Population: StartPopulation,
		Happiness:  ClampHappiness(p.Modifiers.HappinessBase),
		Month:      1,
		Modifiers:  p.Modifiers,
	}, nil
}

// ClampHappiness bounds n to [MinHappiness, MaxHappiness].
func ClampHappiness(n int) int {
	return max(MinHappiness, min(MaxHappiness, n))
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	c := *s
	c.Cells = make([]Cell, len(s.Cells))
	copy(c.Cells, s.Cells)
	return &c
}

// Validate checks the state invariants.
func (s *State) Validate() error {
	if len(s.Cells) != s.Cols*s.Rows {
		return fmt.Errorf("city %s: %d cells for a %dx%d grid", s.Key, len(s.Cells), s.Cols, s.Rows)
	}
	if s.Happiness < MinHappiness || s.Happiness > MaxHappiness {
		return fmt.Errorf("city %s: happiness %d outside [0,100]", s.Key, s.Happiness)
	}
	if s.Population < 0 {
		return fmt.Errorf("city %s: negative population %d", s.Key, s.Population)
	}
	if s.Month < 1 {
		return fmt.Errorf("city %s: month %d before founding", s.Key, s.Month)
	}
	for i, c := range s.Cells {
		if !c.Kind.Valid() {
			return fmt.Errorf("city %s: cell %d holds %s", s.Key, i, c.Kind)
		}
	}
	return nil
}

// String returns a one-line summary of the counters.
func (s *State) String() string {
	return fmt.Sprintf("City(%s, month=%d, money=%d, power=%d, pop=%d, happy=%d)",
		s.Key, s.Month, s.Money, s.Power, s.Population, s.Happiness)
}
