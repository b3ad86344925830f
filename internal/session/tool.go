package session

import (
	"fmt"

	"github.com/talgya/gridcity/internal/catalog"
)

// Mode is the player's interaction mode. It lives beside the cities, never
// inside a city's state.
type Mode uint8

const (
	ModeNone     Mode = iota // Clicks do nothing
	ModeBuild                // Clicks place Tool.Kind
	ModeBulldoze             // Clicks demolish
)

var modeNames = [...]string{
	ModeNone:     "none",
	ModeBuild:    "build",
	ModeBulldoze: "bulldoze",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// ParseMode returns the mode for its name.
func ParseMode(name string) (Mode, error) {
	for m, n := range modeNames {
		if n == name {
			return Mode(m), nil
		}
	}
	return ModeNone, fmt.Errorf("unknown mode %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Tool is the selected interaction: a building to place, the bulldozer, or nothing.
type Tool struct {
	Mode Mode                 `json:"mode"`
	Kind catalog.BuildingKind `json:"kind"` // Only meaningful in ModeBuild
}
