package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/talgya/gridcity/internal/catalog"
	"github.com/talgya/gridcity/internal/city"
	"github.com/talgya/gridcity/internal/clock"
	"github.com/talgya/gridcity/internal/engine"
	"github.com/talgya/gridcity/internal/session"
)

// maxTickMonths bounds one tick request.
const maxTickMonths = 120

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	active := s.Session.Active()
	status := map[string]any{
		"name":    "gridcity",
		"session": s.Session.ID(),
		"active":  active,
		"speed":   0.0,
		"running": false,
		"history": s.DB != nil,
	}
	if s.Clock != nil {
		status["speed"] = s.Clock.Speed()
		status["running"] = s.Clock.Running()
		status["clock_months"] = s.Clock.Months()
	}
	if s.Hub != nil {
		status["stream_clients"] = s.Hub.ClientCount()
	}
	if active != "" {
		if c, err := s.Session.Snapshot(active); err == nil {
			status["month"] = c.Month
			status["date"] = clock.Date(c.Month)
			status["money"] = c.Money
			status["population"] = c.Population
			status["happiness"] = c.Happiness
		}
	}
	writeJSON(w, status)
}

type buildingEntry struct {
	Kind catalog.BuildingKind `json:"kind"`
	catalog.BuildingDef
	Refund int `json:"refund"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cat := s.Session.Catalog()

	cities := make([]catalog.CityPreset, 0)
	for _, key := range cat.CityKeys() {
		p, _ := cat.City(key)
		cities = append(cities, p)
	}
	buildings := make([]buildingEntry, 0)
	for _, kind := range cat.Kinds() {
		def, _ := cat.Building(kind)
		buildings = append(buildings, buildingEntry{Kind: kind, BuildingDef: def, Refund: engine.Refund(def.Cost)})
	}

	writeJSON(w, map[string]any{
		"default_city": catalog.DefaultCity,
		"cities":       cities,
		"buildings":    buildings,
	})
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Session.Cities())
}

// cityView is a city with its calendar date.
type cityView struct {
	*city.State
	Date   string `json:"date"`
	Active bool   `json:"active"`
}

func (s *Server) view(c *city.State) cityView {
	return cityView{State: c, Date: clock.Date(c.Month), Active: s.Session.Active() == c.Key}
}

// snapshotView returns the current view of the city key.
func (s *Server) snapshotView(key string) (cityView, error) {
	c, err := s.Session.Snapshot(key)
	if err != nil {
		return cityView{}, err
	}
	return s.view(c), nil
}

func (s *Server) handleCity(w http.ResponseWriter, r *http.Request) {
	v, err := s.snapshotView(r.PathValue("key"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, v)
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	c, err := s.Session.Activate(r.PathValue("key"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, s.view(c))
}

// cellRequest addresses a cell by index or by column and row.
type cellRequest struct {
	Index *int `json:"index"`
	Col   *int `json:"col"`
	Row   *int `json:"row"`
}

var errNoCell = errors.New("index or col/row required")

// resolve returns the cell index in the city key.
func (s *Server) resolve(key string, req cellRequest) (int, error) {
	if req.Index != nil {
		return *req.Index, nil
	}
	if req.Col == nil || req.Row == nil {
		return 0, errNoCell
	}
	c, err := s.Session.Snapshot(key)
	if err != nil {
		return 0, err
	}
	i := c.Index(*req.Col, *req.Row)
	if i < 0 {
		return 0, fmt.Errorf("%w: (%d,%d) on a %dx%d grid", engine.ErrOutOfBounds, *req.Col, *req.Row, c.Cols, c.Rows)
	}
	return i, nil
}

// resolveOrFail resolves req and writes any error.
func (s *Server) resolveOrFail(w http.ResponseWriter, key string, req cellRequest) (int, bool) {
	i, err := s.resolve(key, req)
	switch {
	case err == nil:
		return i, true
	case errors.Is(err, errNoCell):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		fail(w, err)
	}
	return 0, false
}

// actionResult is the reply to a successful city action.
type actionResult struct {
	Event session.Event `json:"event"`
	City  cityView      `json:"city"`
}

func (s *Server) reply(w http.ResponseWriter, ev session.Event) {
	v, err := s.snapshotView(ev.City)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, actionResult{Event: ev, City: v})
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	var req struct {
		cellRequest
		Kind catalog.BuildingKind `json:"kind"`
	}
	if !decode(w, r, &req) {
		return
	}
	index, ok := s.resolveOrFail(w, key, req.cellRequest)
	if !ok {
		return
	}
	ev, err := s.Session.Place(key, index, req.Kind)
	if err != nil {
		fail(w, err)
		return
	}
	s.reply(w, ev)
}

func (s *Server) handleDemolish(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	var req cellRequest
	if !decode(w, r, &req) {
		return
	}
	index, ok := s.resolveOrFail(w, key, req)
	if !ok {
		return
	}
	ev, err := s.Session.Demolish(key, index)
	if err != nil {
		fail(w, err)
		return
	}
	s.reply(w, ev)
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	req := struct {
		Months int `json:"months"`
	}{Months: 1}
	if !decode(w, r, &req) {
		return
	}
	if req.Months < 1 || req.Months > maxTickMonths {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("months must be in [1,%d]", maxTickMonths))
		return
	}

	events := make([]session.Event, 0, req.Months)
	for i := 0; i < req.Months; i++ {
		ev, err := s.Session.Advance(key)
		if err != nil {
			fail(w, err)
			return
		}
		events = append(events, ev)
	}

	v, err := s.snapshotView(key)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, map[string]any{"events": events, "city": v})
}

func (s *Server) handleGetTool(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Session.Tool())
}

func (s *Server) handleSetTool(w http.ResponseWriter, r *http.Request) {
	var req session.Tool
	if !decode(w, r, &req) {
		return
	}
	switch req.Mode {
	case session.ModeBuild:
		if err := s.Session.SelectBuild(req.Kind); err != nil {
			fail(w, err)
			return
		}
	case session.ModeBulldoze:
		s.Session.SelectBulldoze()
	default:
		s.Session.ClearTool()
	}
	writeJSON(w, s.Session.Tool())
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req cellRequest
	if !decode(w, r, &req) {
		return
	}
	active := s.Session.Active()
	if active == "" {
		fail(w, session.ErrNoActiveCity)
		return
	}
	index, ok := s.resolveOrFail(w, active, req)
	if !ok {
		return
	}
	ev, err := s.Session.Click(index)
	if err != nil {
		fail(w, err)
		return
	}
	s.reply(w, ev)
}

// queryInt returns the integer query parameter name, or def if absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	writeJSON(w, s.Session.Events(r.URL.Query().Get("city"), limit))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "no_history", "history needs a journal database (--db)")
		return
	}
	key := r.URL.Query().Get("city")
	if key == "" {
		key = s.Session.Active()
	}
	if _, err := s.Session.Catalog().City(key); err != nil {
		fail(w, err)
		return
	}

	var from, to, limit int
	var err error
	if from, err = queryInt(r, "from", 1); err == nil {
		if to, err = queryInt(r, "to", math.MaxInt32); err == nil {
			limit, err = queryInt(r, "limit", 500)
		}
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	rows, err := s.DB.LoadHistory(key, from, to, limit)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, rows)
}

func (s *Server) handleGetSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Clock == nil {
		writeJSON(w, map[string]any{"speed": 0.0, "running": false})
		return
	}
	writeJSON(w, map[string]any{"speed": s.Clock.Speed(), "running": s.Clock.Running()})
}

func (s *Server) handleSetSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Clock == nil {
		writeError(w, http.StatusServiceUnavailable, "no_clock", "server started without a clock")
		return
	}
	var req struct {
		Speed float64 `json:"speed"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Speed < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "speed must be >= 0")
		return
	}
	s.Clock.SetSpeed(req.Speed)
	writeJSON(w, map[string]any{"speed": s.Clock.Speed(), "running": s.Clock.Running()})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.Hub == nil {
		writeError(w, http.StatusServiceUnavailable, "no_stream", "streaming disabled")
		return
	}
	s.Hub.ServeWS(w, r)
}
