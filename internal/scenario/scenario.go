// Package scenario runs scripted play sessions from YAML: a starting city
// and an ordered list of steps, each optionally checked against expected
// counters or an expected failure.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talgya/gridcity/internal/catalog"
	"github.com/talgya/gridcity/internal/city"
	"github.com/talgya/gridcity/internal/engine"
	"github.com/talgya/gridcity/internal/session"
)

// ErrExpectation is returned when a step's outcome differs from its expect block.
var ErrExpectation = errors.New("expectation failed")

// failures maps the names a script may use in "fails" to the errors they match.
var failures = map[string]error{
	"unknown_city":       catalog.ErrUnknownCityKey,
	"out_of_bounds":      engine.ErrOutOfBounds,
	"invalid_kind":       engine.ErrInvalidKind,
	"unknown_kind":       catalog.ErrUnknownKey,
	"cell_occupied":      engine.ErrCellOccupied,
	"cell_empty":         engine.ErrCellEmpty,
	"insufficient_funds": engine.ErrInsufficientFunds,
	"no_tool":            session.ErrNoTool,
}

// Script is a parsed scenario file.
type Script struct {
	Name            string `yaml:"name"`
	City            string `yaml:"city"` // Activated before the first step
	ContinueOnError bool   `yaml:"continue_on_error"`
	Steps           []Step `yaml:"steps"`
}

// Step is one action. Exactly one of Activate, Build, Demolish, Tick, Tool
// or Click is set, or none for a pure check.
type Step struct {
	Activate string     `yaml:"activate,omitempty"`
	Build    *BuildStep `yaml:"build,omitempty"`
	Demolish *int       `yaml:"demolish,omitempty"`
	Tick     int        `yaml:"tick,omitempty"` // Months to advance
	Tool     string     `yaml:"tool,omitempty"` // A building kind, "bulldoze" or "none"
	Click    *int       `yaml:"click,omitempty"`

	Fails  string  `yaml:"fails,omitempty"` // Expected failure name
	Expect *Expect `yaml:"expect,omitempty"`
}

// BuildStep places Kind at Index.
type BuildStep struct {
	Index int    `yaml:"index"`
	Kind  string `yaml:"kind"`
}

// Expect lists counters checked on the current city after a step. Unset
// fields are not checked.
type Expect struct {
	Money      *int `yaml:"money,omitempty"`
	Power      *int `yaml:"power,omitempty"`
	Population *int `yaml:"population,omitempty"`
	Happiness  *int `yaml:"happiness,omitempty"`
	Month      *int `yaml:"month,omitempty"`
	Built      *int `yaml:"built,omitempty"`
}

// String describes the step's action.
func (s Step) String() string {
	switch {
	case s.Activate != "":
		return "activate " + s.Activate
	case s.Build != nil:
		return fmt.Sprintf("build %s at %d", s.Build.Kind, s.Build.Index)
	case s.Demolish != nil:
		return fmt.Sprintf("demolish %d", *s.Demolish)
	case s.Tick > 0:
		return fmt.Sprintf("tick %d", s.Tick)
	case s.Tool != "":
		return "tool " + s.Tool
	case s.Click != nil:
		return fmt.Sprintf("click %d", *s.Click)
	default:
		return "check"
	}
}

func (s Step) actions() int {
	n := 0
	for _, set := range []bool{s.Activate != "", s.Build != nil, s.Demolish != nil, s.Tick > 0, s.Tool != "", s.Click != nil} {
		if set {
			n++
		}
	}
	return n
}

// Load reads a script from a YAML file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and checks a YAML script. Building kinds and failure names
// are validated here so a script fails before it starts, not midway.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}
	if s.City == "" {
		s.City = catalog.DefaultCity
	}

	for i, st := range s.Steps {
		if st.actions() > 1 {
			return nil, fmt.Errorf("step %d: more than one action", i+1)
		}
		if st.Tick < 0 {
			return nil, fmt.Errorf("step %d: negative tick %d", i+1, st.Tick)
		}
		if st.actions() == 0 && st.Expect == nil {
			return nil, fmt.Errorf("step %d: no action and nothing to check", i+1)
		}
		if st.Fails != "" {
			if _, ok := failures[st.Fails]; !ok {
				return nil, fmt.Errorf("step %d: unknown failure %q", i+1, st.Fails)
			}
		}
		if st.Build != nil && st.Fails == "" {
			if _, err := catalog.ParseKind(st.Build.Kind); err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
		}
		if st.Tool != "" && st.Tool != "bulldoze" && st.Tool != "none" {
			if _, err := catalog.ParseKind(st.Tool); err != nil {
				return nil, fmt.Errorf("step %d: tool: %w", i+1, err)
			}
		}
	}
	return &s, nil
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index  int // 1-based
	Step   Step
	Events []session.Event // Events the step produced
	City   *city.State     // Snapshot of the current city after the step
	Err    error           // Unexpected error or failed expectation
}

// OK reports whether the step went as scripted.
func (r StepResult) OK() bool {
	return r.Err == nil
}

// Result summarizes a run.
type Result struct {
	Steps    []StepResult
	Failures int
	Final    *city.State
}

// Run plays the script on sess, calling observe (if non-nil) after every
// step. It stops at the first failing step unless the script sets
// continue_on_error, in which case the error returned is nil and failures
// are counted in the result.
func Run(sess *session.Session, s *Script, observe func(StepResult)) (*Result, error) {
	cur := s.City
	if _, err := sess.Activate(cur); err != nil {
		return nil, fmt.Errorf("activating %s: %w", cur, err)
	}

	res := &Result{}
	for i, st := range s.Steps {
		sr := StepResult{Index: i + 1, Step: st}

		evs, err := apply(sess, &cur, st)
		sr.Events = evs
		sr.Err = check(st, err)
		if snap, serr := sess.Snapshot(cur); serr == nil {
			sr.City = snap
			if sr.Err == nil && st.Expect != nil {
				sr.Err = st.Expect.verify(snap)
			}
		}

		res.Steps = append(res.Steps, sr)
		if observe != nil {
			observe(sr)
		}
		if sr.Err != nil {
			res.Failures++
			if !s.ContinueOnError {
				res.Final = sr.City
				return res, fmt.Errorf("step %d (%s): %w", sr.Index, st, sr.Err)
			}
		}
	}

	final, err := sess.Snapshot(cur)
	if err != nil {
		return res, err
	}
	res.Final = final
	return res, nil
}

// apply performs the step's action on the current city.
func apply(sess *session.Session, cur *string, st Step) ([]session.Event, error) {
	one := func(ev session.Event, err error) ([]session.Event, error) {
		if err != nil {
			return nil, err
		}
		return []session.Event{ev}, nil
	}

	switch {
	case st.Activate != "":
		if _, err := sess.Activate(st.Activate); err != nil {
			return nil, err
		}
		*cur = st.Activate
		return nil, nil
	case st.Build != nil:
		kind, err := catalog.ParseKind(st.Build.Kind)
		if err != nil {
			return nil, err
		}
		return one(sess.Place(*cur, st.Build.Index, kind))
	case st.Demolish != nil:
		return one(sess.Demolish(*cur, *st.Demolish))
	case st.Tick > 0:
		var evs []session.Event
		for m := 0; m < st.Tick; m++ {
			ev, err := sess.Advance(*cur)
			if err != nil {
				return evs, err
			}
			evs = append(evs, ev)
		}
		return evs, nil
	case st.Tool != "":
		return nil, selectTool(sess, st.Tool)
	case st.Click != nil:
		return one(sess.Click(*st.Click))
	}
	return nil, nil
}

func selectTool(sess *session.Session, name string) error {
	switch name {
	case "bulldoze":
		sess.SelectBulldoze()
		return nil
	case "none":
		sess.ClearTool()
		return nil
	}
	kind, err := catalog.ParseKind(name)
	if err != nil {
		return err
	}
	return sess.SelectBuild(kind)
}

// check compares a step's error with what the script expects.
func check(st Step, err error) error {
	if st.Fails == "" {
		return err
	}
	if err == nil {
		return fmt.Errorf("%w: succeeded, want %s", ErrExpectation, st.Fails)
	}
	if !errors.Is(err, failures[st.Fails]) {
		return fmt.Errorf("%w: got %v, want %s", ErrExpectation, err, st.Fails)
	}
	return nil
}

func (e *Expect) verify(c *city.State) error {
	var diffs []string
	cmp := func(name string, want *int, got int) {
		if want != nil && *want != got {
			diffs = append(diffs, fmt.Sprintf("%s = %d, want %d", name, got, *want))
		}
	}
	cmp("money", e.Money, c.Money)
	cmp("power", e.Power, c.Power)
	cmp("population", e.Population, c.Population)
	cmp("happiness", e.Happiness, c.Happiness)
	cmp("month", e.Month, c.Month)
	cmp("built", e.Built, c.Built())

	if len(diffs) > 0 {
		return fmt.Errorf("%w: %s", ErrExpectation, strings.Join(diffs, ", "))
	}
	return nil
}
