package catalog

// DefaultCity is the preset a fresh session starts on.
const DefaultCity = "tres_coracoes"

// DefaultPresets returns the built-in city presets.
func DefaultPresets() []CityPreset {
	return []CityPreset{
		{
			Key:        "tres_coracoes",
			Name:       "Três Corações (MG)",
			Terrain:    "vales e café",
			Cols:       16,
			Rows:       12,
			StartMoney: 3000,
			StartPower: 20,
			Modifiers:  CityModifiers{IncomeFactor: 1.0, PowerCostFactor: 1.0, HappinessBase: 60},
		},
		{
			Key:        "tres_lagoas",
			Name:       "Três Lagoas (MS)",
			Terrain:    "lagos e indústria de celulose",
			Cols:       18,
			Rows:       12,
			StartMoney: 3200,
			StartPower: 18,
			Modifiers:  CityModifiers{IncomeFactor: 1.1, PowerCostFactor: 1.0, HappinessBase: 58},
		},
		{
			Key:        "tres_rios",
			Name:       "Três Rios (RJ)",
			Terrain:    "confluência de rios e logística",
			Cols:       14,
			Rows:       12,
			StartMoney: 3100,
			StartPower: 22,
			Modifiers:  CityModifiers{IncomeFactor: 0.95, PowerCostFactor: 0.9, HappinessBase: 62},
		},
	}
}

// DefaultBuildings returns the built-in building table.
func DefaultBuildings() map[BuildingKind]BuildingDef {
	return map[BuildingKind]BuildingDef{
		KindHouse:      {Label: "Casa", Cost: 100, PowerDelta: -1, PopulationDelta: 5, IncomeDelta: 2, HappinessDelta: 1},
		KindFactory:    {Label: "Fábrica", Cost: 400, PowerDelta: -4, PopulationDelta: 0, IncomeDelta: 30, HappinessDelta: -3},
		KindPowerPlant: {Label: "Usina", Cost: 600, PowerDelta: 10, PopulationDelta: 0, IncomeDelta: 0, HappinessDelta: -1},
		KindPark:       {Label: "Parque", Cost: 200, PowerDelta: 0, PopulationDelta: 0, IncomeDelta: 0, HappinessDelta: 4},
	}
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(DefaultPresets(), DefaultBuildings())
	if err != nil {
		panic("catalog: invalid built-in tables: " + err.Error())
	}
	return c
}
