package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/talgya/gridcity/internal/catalog"
	"github.com/talgya/gridcity/internal/city"
	"github.com/talgya/gridcity/internal/engine"
)

// Action names what changed a city.
type Action string

const (
	ActionFound    Action = "found"
	ActionBuild    Action = "build"
	ActionDemolish Action = "demolish"
	ActionTick     Action = "tick"
)

// maxEvents bounds the in-memory event history.
const maxEvents = 1000

// Event is a record of one successful change to a city.
type Event struct {
	ID      string               `json:"id"`
	Session string               `json:"session"`
	At      time.Time            `json:"at"`
	City    string               `json:"city"`
	Month   int                  `json:"month"` // Month the action happened in
	Action  Action               `json:"action"`
	Cell    int                  `json:"cell"` // -1 when no cell is involved
	Kind    catalog.BuildingKind `json:"kind"`
	Amount  int                  `json:"amount"` // Cost paid or refund received

	// Counters after the action.
	Money      int `json:"money"`
	Power      int `json:"power"`
	Population int `json:"population"`
	Happiness  int `json:"happiness"`

	Report *engine.Report `json:"report,omitempty"` // Ticks only
}

// Journal receives every event, in order.
type Journal interface {
	Append(e Event) error
}

func (s *Session) newEvent(c *city.State, month int, action Action) Event {
	return Event{
		ID:         uuid.NewString(),
		Session:    s.id,
		At:         s.now(),
		City:       c.Key,
		Month:      month,
		Action:     action,
		Cell:       -1,
		Money:      c.Money,
		Power:      c.Power,
		Population: c.Population,
		Happiness:  c.Happiness,
	}
}
