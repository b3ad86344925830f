// Package session owns the player's cities and interaction mode, and turns
// player intents into engine calls.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/gridcity/internal/catalog"
	"github.com/talgya/gridcity/internal/city"
	"github.com/talgya/gridcity/internal/engine"
)

var (
	// ErrNoTool is returned by Click when no tool is selected.
	ErrNoTool = errors.New("no tool selected")
	// ErrNoActiveCity is returned when an action targets the active city before one is chosen.
	ErrNoActiveCity = errors.New("no active city")
)

// Session holds the city-key → state mapping for one player. Cities are
// founded lazily the first time they are addressed and live for the
// lifetime of the session. All methods are safe for concurrent use; each
// call runs to completion before the next starts.
type Session struct {
	mu sync.Mutex
	id string

	engine *engine.Engine
	cities map[string]*city.State
	active string
	tool   Tool

	events  []Event // Most recent maxEvents
	journal Journal

	subs    map[int]chan Event
	nextSub int

	now func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithJournal sends every event to j.
func WithJournal(j Journal) Option {
	return func(s *Session) { s.journal = j }
}

// WithClock overrides the wall clock used to timestamp events.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates an empty session over cat.
func New(cat *catalog.Catalog, opts ...Option) *Session {
	s := &Session{
		id:     uuid.NewString(),
		engine: engine.New(cat),
		cities: make(map[string]*city.State),
		subs:   make(map[int]chan Event),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Catalog returns the session's catalog.
func (s *Session) Catalog() *catalog.Catalog {
	return s.engine.Catalog()
}

// ensure returns the city for key, founding it on first use. Caller holds mu.
func (s *Session) ensure(key string) (*city.State, error) {
	if c, ok := s.cities[key]; ok {
		return c, nil
	}
	c, err := city.New(s.engine.Catalog(), key)
	if err != nil {
		return nil, err
	}
	s.cities[key] = c
	slog.Info("city founded", "city", key, "grid", fmt.Sprintf("%dx%d", c.Cols, c.Rows), "money", c.Money)
	s.emit(s.newEvent(c, c.Month, ActionFound))
	return c, nil
}

// Activate makes key the active city, founding it if needed.
func (s *Session) Activate(key string) (*city.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.ensure(key)
	if err != nil {
		return nil, err
	}
	s.active = key
	return c.Clone(), nil
}

// Active returns the active city key, or "" before the first activation.
func (s *Session) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Snapshot returns a copy of the city's current state.
func (s *Session) Snapshot(key string) (*city.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.ensure(key)
	if err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

// Summary is the headline state of one catalog city.
type Summary struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	Founded    bool   `json:"founded"`
	Active     bool   `json:"active"`
	Month      int    `json:"month,omitempty"`
	Money      int    `json:"money,omitempty"`
	Power      int    `json:"power,omitempty"`
	Population int    `json:"population,omitempty"`
	Happiness  int    `json:"happiness,omitempty"`
	Built      int    `json:"built,omitempty"`
}

// Cities summarizes every city in the catalog, founded or not.
func (s *Session) Cities() []Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat := s.engine.Catalog()
	keys := cat.CityKeys()
	out := make([]Summary, 0, len(keys))
	for _, key := range keys {
		p, _ := cat.City(key)
		sum := Summary{Key: key, Name: p.Name, Active: key == s.active}
		if c, ok := s.cities[key]; ok {
			sum.Founded = true
			sum.Month = c.Month
			sum.Money = c.Money
			sum.Power = c.Power
			sum.Population = c.Population
			sum.Happiness = c.Happiness
			sum.Built = c.Built()
		}
		out = append(out, sum)
	}
	return out
}

// Place builds kind at index in the city key.
func (s *Session) Place(key string, index int, kind catalog.BuildingKind) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.place(key, index, kind)
}

func (s *Session) place(key string, index int, kind catalog.BuildingKind) (Event, error) {
	c, err := s.ensure(key)
	if err != nil {
		return Event{}, err
	}
	if err := s.engine.Place(c, index, kind); err != nil {
		return Event{}, err
	}

	def, _ := s.engine.Catalog().Building(kind)
	ev := s.newEvent(c, c.Month, ActionBuild)
	ev.Cell = index
	ev.Kind = kind
	ev.Amount = def.Cost
	slog.Debug("building placed", "city", key, "cell", index, "kind", kind, "cost", def.Cost, "money", c.Money)
	s.emit(ev)
	return ev, nil
}

// Demolish clears the building at index in the city key.
func (s *Session) Demolish(key string, index int) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.demolish(key, index)
}

func (s *Session) demolish(key string, index int) (Event, error) {
	c, err := s.ensure(key)
	if err != nil {
		return Event{}, err
	}
	var kind catalog.BuildingKind
	if c.InBounds(index) {
		kind = c.Cells[index].Kind
	}
	refund, err := s.engine.Demolish(c, index)
	if err != nil {
		return Event{}, err
	}

	ev := s.newEvent(c, c.Month, ActionDemolish)
	ev.Cell = index
	ev.Kind = kind
	ev.Amount = refund
	slog.Debug("building demolished", "city", key, "cell", index, "kind", kind, "refund", refund, "money", c.Money)
	s.emit(ev)
	return ev, nil
}

// Advance closes the current month of the city key.
func (s *Session) Advance(key string) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advance(key)
}

// AdvanceActive closes the current month of the active city.
func (s *Session) AdvanceActive() (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == "" {
		return Event{}, ErrNoActiveCity
	}
	return s.advance(s.active)
}

func (s *Session) advance(key string) (Event, error) {
	c, err := s.ensure(key)
	if err != nil {
		return Event{}, err
	}
	r := s.engine.Advance(c)

	ev := s.newEvent(c, r.Month, ActionTick)
	ev.Amount = r.Net()
	ev.Report = &r
	slog.Info("monthly report",
		"city", key,
		"month", r.Month,
		"income", r.Income,
		"deficit", r.Deficit,
		"power_cost", r.PowerCost,
		"growth", r.Growth,
		"money", r.Money,
		"population", r.Population,
		"happiness", r.Happiness,
	)
	s.emit(ev)
	return ev, nil
}

// Tool returns the selected tool.
func (s *Session) Tool() Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}

// SelectBuild arms the build tool with kind.
func (s *Session) SelectBuild(kind catalog.BuildingKind) error {
	if kind == catalog.KindEmpty {
		return engine.ErrInvalidKind
	}
	if _, err := s.engine.Catalog().Building(kind); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tool = Tool{Mode: ModeBuild, Kind: kind}
	return nil
}

// SelectBulldoze arms the bulldozer.
func (s *Session) SelectBulldoze() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tool = Tool{Mode: ModeBulldoze}
}

// ClearTool deselects any tool.
func (s *Session) ClearTool() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tool = Tool{}
}

// Click applies the selected tool to a cell of the active city.
func (s *Session) Click(index int) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == "" {
		return Event{}, ErrNoActiveCity
	}
	switch s.tool.Mode {
	case ModeBuild:
		return s.place(s.active, index, s.tool.Kind)
	case ModeBulldoze:
		return s.demolish(s.active, index)
	default:
		return Event{}, ErrNoTool
	}
}
