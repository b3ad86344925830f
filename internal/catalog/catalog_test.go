package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	keys := c.CityKeys()
	want := []string{"tres_coracoes", "tres_lagoas", "tres_rios"}
	if len(keys) != len(want) {
		t.Fatalf("CityKeys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("CityKeys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}

	p, err := c.City("tres_coracoes")
	if err != nil {
		t.Fatalf("City: %v", err)
	}
	if p.Cols != 16 || p.Rows != 12 {
		t.Errorf("grid = %dx%d, want 16x12", p.Cols, p.Rows)
	}
	if p.StartMoney != 3000 || p.StartPower != 20 {
		t.Errorf("start = %d/%d, want 3000/20", p.StartMoney, p.StartPower)
	}
	if p.Modifiers.HappinessBase != 60 {
		t.Errorf("happiness base = %d, want 60", p.Modifiers.HappinessBase)
	}

	house, err := c.Building(KindHouse)
	if err != nil {
		t.Fatalf("Building: %v", err)
	}
	if house.Cost != 100 || house.PowerDelta != -1 || house.PopulationDelta != 5 ||
		house.IncomeDelta != 2 || house.HappinessDelta != 1 {
		t.Errorf("house = %+v", house)
	}
}

func TestLookupErrors(t *testing.T) {
	c := Default()

	if _, err := c.City("atlantis"); !errors.Is(err, ErrUnknownCityKey) {
		t.Errorf("City(atlantis) err = %v, want ErrUnknownCityKey", err)
	}
	if _, err := c.Building(KindEmpty); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Building(empty) err = %v, want ErrUnknownKey", err)
	}
	if _, err := c.Building(BuildingKind(200)); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Building(200) err = %v, want ErrUnknownKey", err)
	}
}

func TestKindText(t *testing.T) {
	for _, k := range []BuildingKind{KindEmpty, KindHouse, KindFactory, KindPowerPlant, KindPark} {
		parsed, err := ParseKind(k.String())
		if err != nil {
			t.Errorf("ParseKind(%q): %v", k.String(), err)
			continue
		}
		if parsed != k {
			t.Errorf("ParseKind(%q) = %v, want %v", k.String(), parsed, k)
		}
	}

	if _, err := ParseKind("castle"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("ParseKind(castle) err = %v, want ErrUnknownKey", err)
	}

	var cell struct {
		Kind BuildingKind `json:"kind"`
	}
	if err := json.Unmarshal([]byte(`{"kind":"power"}`), &cell); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cell.Kind != KindPowerPlant {
		t.Errorf("kind = %v, want power", cell.Kind)
	}
}

func TestNewRejectsBadTables(t *testing.T) {
	good := DefaultPresets()[0]

	tests := []struct {
		name      string
		presets   []CityPreset
		buildings map[BuildingKind]BuildingDef
	}{
		{"zero grid", []CityPreset{{Key: "x", Modifiers: good.Modifiers}}, DefaultBuildings()},
		{"zero income factor", []CityPreset{{Key: "x", Cols: 1, Rows: 1, Modifiers: CityModifiers{PowerCostFactor: 1, HappinessBase: 50}}}, DefaultBuildings()},
		{"happiness base too high", []CityPreset{{Key: "x", Cols: 1, Rows: 1, Modifiers: CityModifiers{IncomeFactor: 1, PowerCostFactor: 1, HappinessBase: 101}}}, DefaultBuildings()},
		{"duplicate key", []CityPreset{good, good}, DefaultBuildings()},
		{"empty defined", []CityPreset{good}, map[BuildingKind]BuildingDef{KindEmpty: {}}},
		{"missing park", []CityPreset{good}, map[BuildingKind]BuildingDef{
			KindHouse: {Cost: 1}, KindFactory: {Cost: 1}, KindPowerPlant: {Cost: 1},
		}},
		{"negative cost", []CityPreset{good}, func() map[BuildingKind]BuildingDef {
			b := DefaultBuildings()
			b[KindPark] = BuildingDef{Cost: -5}
			return b
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.presets, tt.buildings); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestCatalogIsImmutable(t *testing.T) {
	presets := DefaultPresets()
	buildings := DefaultBuildings()
	c, err := New(presets, buildings)
	if err != nil {
		t.Fatal(err)
	}

	buildings[KindHouse] = BuildingDef{Cost: 1}
	presets[0].StartMoney = 1

	house, _ := c.Building(KindHouse)
	if house.Cost != 100 {
		t.Errorf("house cost changed through caller map: %d", house.Cost)
	}
	p, _ := c.City("tres_coracoes")
	if p.StartMoney != 3000 {
		t.Errorf("preset changed through caller slice: %d", p.StartMoney)
	}
}

func TestParseYAML(t *testing.T) {
	doc := `
cities:
  vila_nova:
    name: Vila Nova
    cols: 4
    rows: 3
    start_money: 500
    start_power: 5
    modifiers:
      income: 1.5
      power_cost: 2.0
      happiness_base: 40
buildings:
  house: {label: Casa, cost: 50, power: -1, population: 3, income: 1, happiness: 0}
  factory: {label: Fábrica, cost: 300, power: -2, income: 20, happiness: -2}
  power: {label: Usina, cost: 500, power: 8, happiness: -1}
  park: {label: Parque, cost: 150, happiness: 3}
`
	c, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	p, err := c.City("vila_nova")
	if err != nil {
		t.Fatalf("City: %v", err)
	}
	if p.Key != "vila_nova" || p.Cols != 4 || p.Rows != 3 {
		t.Errorf("preset = %+v", p)
	}
	if p.Modifiers.IncomeFactor != 1.5 || p.Modifiers.PowerCostFactor != 2.0 {
		t.Errorf("modifiers = %+v", p.Modifiers)
	}
	if _, err := c.City("tres_rios"); !errors.Is(err, ErrUnknownCityKey) {
		t.Errorf("built-in city should be replaced, got err = %v", err)
	}

	house, _ := c.Building(KindHouse)
	if house.Cost != 50 || house.PopulationDelta != 3 {
		t.Errorf("house = %+v", house)
	}
}

func TestParseFallsBackToDefaults(t *testing.T) {
	c, err := Parse([]byte("buildings:\n  house: {cost: 10}\n  factory: {cost: 10}\n  power: {cost: 10}\n  park: {cost: 10}\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := c.City(DefaultCity); err != nil {
		t.Errorf("default cities missing: %v", err)
	}
}

func TestParseRejectsUnknownBuilding(t *testing.T) {
	_, err := Parse([]byte("buildings:\n  castle: {cost: 10}\n"))
	if !errors.Is(err, ErrUnknownKey) {
		t.Errorf("err = %v, want ErrUnknownKey", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("cities: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.CityKeys()) != 3 {
		t.Errorf("CityKeys = %v, want the 3 defaults", c.CityKeys())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
