// Package catalog provides the immutable lookup tables for city presets
// and building definitions.
package catalog

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownCityKey is returned when a city preset is not in the catalog.
	ErrUnknownCityKey = errors.New("unknown city key")
	// ErrUnknownKey is returned when a building kind has no definition.
	ErrUnknownKey = errors.New("unknown building kind")
)

// BuildingKind is the closed set of things a grid cell can hold.
type BuildingKind uint8

const (
	KindEmpty      BuildingKind = iota // Unbuilt cell (the default)
	KindHouse                          // Residential: population and a little tax
	KindFactory                        // Industry: income, costs power and happiness
	KindPowerPlant                     // Generates power
	KindPark                           // Happiness only

	kindCount
)

var kindTags = [kindCount]string{
	KindEmpty:      "empty",
	KindHouse:      "house",
	KindFactory:    "factory",
	KindPowerPlant: "power",
	KindPark:       "park",
}

// String returns the wire tag for the kind.
func (k BuildingKind) String() string {
	if k < kindCount {
		return kindTags[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is a member of the enumeration.
func (k BuildingKind) Valid() bool {
	return k < kindCount
}

// ParseKind returns the kind for a wire tag.
func ParseKind(tag string) (BuildingKind, error) {
	for k, t := range kindTags {
		if t == tag {
			return BuildingKind(k), nil
		}
	}
	return KindEmpty, fmt.Errorf("%w: %q", ErrUnknownKey, tag)
}

// MarshalText implements encoding.TextMarshaler.
func (k BuildingKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKey, uint8(k))
	}
	return []byte(kindTags[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *BuildingKind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// BuildingDef holds the cost and the per-building effects on city counters.
type BuildingDef struct {
	Label           string `json:"label" yaml:"label"`
	Cost            int    `json:"cost" yaml:"cost"`
	PowerDelta      int    `json:"power" yaml:"power"`
	PopulationDelta int    `json:"population" yaml:"population"`
	IncomeDelta     int    `json:"income" yaml:"income"` // Taxes per month
	HappinessDelta  int    `json:"happiness" yaml:"happiness"`
}

// CityModifiers are the per-city economic multipliers, fixed at creation.
type CityModifiers struct {
	IncomeFactor    float64 `json:"income_factor" yaml:"income"`
	PowerCostFactor float64 `json:"power_cost_factor" yaml:"power_cost"`
	HappinessBase   int     `json:"happiness_base" yaml:"happiness_base"`
}

// CityPreset is the starting configuration for one city.
type CityPreset struct {
	Key        string        `json:"key" yaml:"-"`
	Name       string        `json:"name" yaml:"name"`
	Terrain    string        `json:"terrain,omitempty" yaml:"terrain"`
	Cols       int           `json:"cols" yaml:"cols"`
	Rows       int           `json:"rows" yaml:"rows"`
	StartMoney int           `json:"start_money" yaml:"start_money"`
	StartPower int           `json:"start_power" yaml:"start_power"`
	Modifiers  CityModifiers `json:"modifiers" yaml:"modifiers"`
}

// Catalog is read-only after construction and safe for concurrent use.
type Catalog struct {
	cities    map[string]CityPreset
	buildings [kindCount]*BuildingDef
}

// New validates the tables and returns a catalog built from copies of them.
func New(presets []CityPreset, buildings map[BuildingKind]BuildingDef) (*Catalog, error) {
	c := &Catalog{cities: make(map[string]CityPreset, len(presets))}

	for _, p := range presets {
		if err := validatePreset(p); err != nil {
			return nil, fmt.Errorf("city %q: %w", p.Key, err)
		}
		if _, dup := c.cities[p.Key]; dup {
			return nil, fmt.Errorf("city %q: duplicate key", p.Key)
		}
		c.cities[p.Key] = p
	}

	for kind, def := range buildings {
		if kind == KindEmpty || !kind.Valid() {
			return nil, fmt.Errorf("%w: %s cannot be defined", ErrUnknownKey, kind)
		}
		if def.Cost < 0 {
			return nil, fmt.Errorf("building %s: negative cost %d", kind, def.Cost)
		}
		if def.PopulationDelta < 0 {
			return nil, fmt.Errorf("building %s: negative population delta %d", kind, def.PopulationDelta)
		}
		d := def
		c.buildings[kind] = &d
	}
	for k := KindHouse; k < kindCount; k++ {
		if c.buildings[k] == nil {
			return nil, fmt.Errorf("building %s: missing definition", k)
		}
	}

	return c, nil
}

func validatePreset(p CityPreset) error {
	switch {
	case p.Key == "":
		return errors.New("empty key")
	case p.Cols <= 0 || p.Rows <= 0:
		return fmt.Errorf("grid %dx%d must be positive", p.Cols, p.Rows)
	case p.Modifiers.IncomeFactor <= 0:
		return fmt.Errorf("income factor %v must be > 0", p.Modifiers.IncomeFactor)
	case p.Modifiers.PowerCostFactor <= 0:
		return fmt.Errorf("power cost factor %v must be > 0", p.Modifiers.PowerCostFactor)
	case p.Modifiers.HappinessBase < 0 || p.Modifiers.HappinessBase > 100:
		return fmt.Errorf("happiness base %d outside [0,100]", p.Modifiers.HappinessBase)
	}
	return nil
}

// City returns the preset for key.
func (c *Catalog) City(key string) (CityPreset, error) {
	p, ok := c.cities[key]
	if !ok {
		return CityPreset{}, fmt.Errorf("%w: %q", ErrUnknownCityKey, key)
	}
	return p, nil
}

// Building returns the definition for a non-Empty kind.
func (c *Catalog) Building(kind BuildingKind) (BuildingDef, error) {
	if !kind.Valid() || c.buildings[kind] == nil {
		return BuildingDef{}, fmt.Errorf("%w: %s", ErrUnknownKey, kind)
	}
	return *c.buildings[kind], nil
}

// CityKeys returns all preset keys in sorted order.
func (c *Catalog) CityKeys() []string {
	keys := make([]string, 0, len(c.cities))
	for k := range c.cities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Kinds returns the buildable kinds in enumeration order.
func (c *Catalog) Kinds() []BuildingKind {
	kinds := make([]BuildingKind, 0, kindCount-1)
	for k := KindHouse; k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}
