package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// file is the YAML shape of a catalog. Sections left out fall back to the
// built-in tables.
type file struct {
	Cities    map[string]CityPreset  `yaml:"cities"`
	Buildings map[string]BuildingDef `yaml:"buildings"`
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog YAML: %w", err)
	}

	presets := DefaultPresets()
	if len(f.Cities) > 0 {
		presets = make([]CityPreset, 0, len(f.Cities))
		for key, p := range f.Cities {
			p.Key = key
			presets = append(presets, p)
		}
	}

	buildings := DefaultBuildings()
	if len(f.Buildings) > 0 {
		buildings = make(map[BuildingKind]BuildingDef, len(f.Buildings))
		for tag, def := range f.Buildings {
			kind, err := ParseKind(tag)
			if err != nil {
				return nil, fmt.Errorf("buildings: %w", err)
			}
			buildings[kind] = def
		}
	}

	return New(presets, buildings)
}
