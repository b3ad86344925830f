package engine

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/talgya/gridcity/internal/catalog"
	"github.com/talgya/gridcity/internal/city"
)

func newCity(t *testing.T, key string) (*Engine, *city.State) {
	t.Helper()
	cat := catalog.Default()
	s, err := city.New(cat, key)
	if err != nil {
		t.Fatalf("city.New(%q): %v", key, err)
	}
	return New(cat), s
}

func assertCounters(t *testing.T, s *city.State, money, power, pop, happy int) {
	t.Helper()
	if s.Money != money || s.Power != power || s.Population != pop || s.Happiness != happy {
		t.Errorf("counters = money %d power %d pop %d happy %d, want %d %d %d %d",
			s.Money, s.Power, s.Population, s.Happiness, money, power, pop, happy)
	}
}

func TestPlaceHouse(t *testing.T) {
	e, s := newCity(t, "tres_coracoes")

	if err := e.Place(s, 0, catalog.KindHouse); err != nil {
		t.Fatalf("Place: %v", err)
	}
	assertCounters(t, s, 2900, 19, 15, 61)
	if s.Cells[0].Kind != catalog.KindHouse {
		t.Errorf("cell 0 = %s, want house", s.Cells[0].Kind)
	}
}

func TestAdvanceAfterHouse(t *testing.T) {
	e, s := newCity(t, "tres_coracoes")
	if err := e.Place(s, 0, catalog.KindHouse); err != nil {
		t.Fatal(err)
	}

	r := e.Advance(s)

	if r.Income != 2 || r.Deficit != 0 || r.PowerCost != 0 || r.Growth != 1 {
		t.Errorf("report = %+v", r)
	}
	if r.Month != 1 || s.Month != 2 {
		t.Errorf("report month %d, state month %d, want 1 and 2", r.Month, s.Month)
	}
	assertCounters(t, s, 2902, 19, 16, 62)
	if r.Money != s.Money || r.Population != s.Population || r.Happiness != s.Happiness || r.Power != s.Power {
		t.Errorf("report counters %+v disagree with state %s", r, s)
	}
}

func TestDemolishHouse(t *testing.T) {
	e, s := newCity(t, "tres_coracoes")
	if err := e.Place(s, 0, catalog.KindHouse); err != nil {
		t.Fatal(err)
	}

	refund, err := e.Demolish(s, 0)
	if err != nil {
		t.Fatalf("Demolish: %v", err)
	}
	if refund != 50 {
		t.Errorf("refund = %d, want 50", refund)
	}
	assertCounters(t, s, 2950, 20, 10, 60)
	if s.Cells[0].Kind != catalog.KindEmpty {
		t.Errorf("cell 0 = %s, want empty", s.Cells[0].Kind)
	}
}

func TestPowerDeficitTick(t *testing.T) {
	e, s := newCity(t, "tres_coracoes")
	s.Power = -12

	r := e.Advance(s)

	if r.Deficit != 12 || r.PowerCost != 120 {
		t.Errorf("deficit %d cost %d, want 12 and 120", r.Deficit, r.PowerCost)
	}
	if s.Happiness != 55 || r.HappinessDelta != -5 {
		t.Errorf("happiness %d (delta %d), want 55 (-5)", s.Happiness, r.HappinessDelta)
	}
	if r.Growth != 0 || s.Population != 10 {
		t.Errorf("growth %d pop %d, want 0 and 10", r.Growth, s.Population)
	}
	if s.Money != 2880 {
		t.Errorf("money = %d, want 2880", s.Money)
	}
}

func TestSmallDeficitPenalty(t *testing.T) {
	e, s := newCity(t, "tres_coracoes")
	s.Power = -2

	e.Advance(s)
	if s.Happiness != 58 {
		t.Errorf("happiness = %d, want 58", s.Happiness)
	}
}

func TestAdvanceModifiers(t *testing.T) {
	e, s := newCity(t, "tres_rios")
	// Three factories: 90 income * 0.95 = 85.5; power 22-12 = 10, no deficit.
	for i := 0; i < 3; i++ {
		if err := e.Place(s, i, catalog.KindFactory); err != nil {
			t.Fatal(err)
		}
	}
	r := e.Advance(s)
	if r.Income != 85 {
		t.Errorf("income = %d, want 85", r.Income)
	}

	// Drive into a 7 unit deficit: 70 * 0.9 = 63.
	s.Power = -7
	r = e.Advance(s)
	if r.PowerCost != 63 {
		t.Errorf("power cost = %d, want 63", r.PowerCost)
	}
}

func TestGrowthFloorsTowardNegativeInfinity(t *testing.T) {
	e, s := newCity(t, "tres_coracoes")
	// 44 + 1 surplus bonus = 45 -> (45-50)/10 = -0.5 -> -1.
	s.Happiness = 44

	r := e.Advance(s)
	if s.Happiness != 45 {
		t.Fatalf("happiness = %d, want 45", s.Happiness)
	}
	if r.Growth != -1 || s.Population != 9 {
		t.Errorf("growth %d pop %d, want -1 and 9", r.Growth, s.Population)
	}
}

func TestPopulationNeverNegativeOnTick(t *testing.T) {
	e, s := newCity(t, "tres_coracoes")
	s.Happiness = 0
	s.Population = 2
	s.Power = -1

	r := e.Advance(s)
	if r.Growth != -5 {
		t.Errorf("growth = %d, want -5", r.Growth)
	}
	if s.Population != 0 {
		t.Errorf("population = %d, want 0", s.Population)
	}
}

func TestHappinessClampsAtHundred(t *testing.T) {
	e, s := newCity(t, "tres_coracoes")
	s.Happiness = 100
	e.Advance(s)
	if s.Happiness != 100 {
		t.Errorf("happiness = %d, want 100", s.Happiness)
	}
}

func TestMoneyMayGoNegative(t *testing.T) {
	e, s := newCity(t, "tres_coracoes")
	s.Money = 10
	s.Power = -4

	e.Advance(s)
	if s.Money != -30 {
		t.Errorf("money = %d, want -30", s.Money)
	}
}

func TestPlaceErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Engine, *city.State)
		index int
		kind  catalog.BuildingKind
		want  error
	}{
		{"negative index", nil, -1, catalog.KindHouse, ErrOutOfBounds},
		{"past the end", nil, 16 * 12, catalog.KindHouse, ErrOutOfBounds},
		{"empty kind", nil, 0, catalog.KindEmpty, ErrInvalidKind},
		{"unknown kind", nil, 0, catalog.BuildingKind(42), catalog.ErrUnknownKey},
		{"occupied", func(e *Engine, s *city.State) { _ = e.Place(s, 3, catalog.KindPark) }, 3, catalog.KindHouse, ErrCellOccupied},
		{"occupied by same kind", func(e *Engine, s *city.State) { _ = e.Place(s, 3, catalog.KindHouse) }, 3, catalog.KindHouse, ErrCellOccupied},
		{"insufficient funds", func(_ *Engine, s *city.State) { s.Money = 50 }, 0, catalog.KindHouse, ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, s := newCity(t, "tres_coracoes")
			if tt.setup != nil {
				tt.setup(e, s)
			}
			before := s.Clone()

			err := e.Place(s, tt.index, tt.kind)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if !reflect.DeepEqual(before, s) {
				t.Errorf("failed Place mutated state:\nbefore %s\nafter  %s", before, s)
			}
		})
	}
}

func TestPlaceExactFunds(t *testing.T) {
	e, s := newCity(t, "tres_coracoes")
	s.Money = 100
	if err := e.Place(s, 0, catalog.KindHouse); err != nil {
		t.Fatalf("Place with exact funds: %v", err)
	}
	if s.Money != 0 {
		t.Errorf("money = %d, want 0", s.Money)
	}
}

func TestDemolishErrors(t *testing.T) {
	tests := []struct {
		name  string
		index int
		want  error
	}{
		{"negative index", -3, ErrOutOfBounds},
		{"past the end", 1000, ErrOutOfBounds},
		{"empty cell", 7, ErrCellEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, s := newCity(t, "tres_lagoas")
			if err := e.Place(s, 0, catalog.KindFactory); err != nil {
				t.Fatal(err)
			}
			before := s.Clone()

			refund, err := e.Demolish(s, tt.index)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if refund != 0 {
				t.Errorf("refund = %d on failure", refund)
			}
			if !reflect.DeepEqual(before, s) {
				t.Errorf("failed Demolish mutated state")
			}
		})
	}
}

func TestBuildDemolishAsymmetry(t *testing.T) {
	e, _ := newCity(t, "tres_coracoes")
	for _, kind := range e.Catalog().Kinds() {
		t.Run(kind.String(), func(t *testing.T) {
			_, s := newCity(t, "tres_coracoes")
			def, _ := e.Catalog().Building(kind)
			before := s.Clone()

			if err := e.Place(s, 10, kind); err != nil {
				t.Fatal(err)
			}
			if _, err := e.Demolish(s, 10); err != nil {
				t.Fatal(err)
			}

			wantMoney := before.Money - def.Cost + def.Cost/2
			if s.Money != wantMoney {
				t.Errorf("money = %d, want %d", s.Money, wantMoney)
			}
			if s.Power != before.Power || s.Population != before.Population || s.Happiness != before.Happiness {
				t.Errorf("effects not reversed: before %s after %s", before, s)
			}
			if s.Cells[10].Kind != catalog.KindEmpty {
				t.Errorf("cell not cleared")
			}
		})
	}
}

func TestDemolishClampsPopulation(t *testing.T) {
	e, s := newCity(t, "tres_coracoes")
	if err := e.Place(s, 0, catalog.KindHouse); err != nil {
		t.Fatal(err)
	}
	s.Population = 2 // shrank after the house was built

	if _, err := e.Demolish(s, 0); err != nil {
		t.Fatal(err)
	}
	if s.Population != 0 {
		t.Errorf("population = %d, want 0", s.Population)
	}
}

func TestDemolishClampsHappiness(t *testing.T) {
	e, s := newCity(t, "tres_coracoes")
	if err := e.Place(s, 0, catalog.KindFactory); err != nil {
		t.Fatal(err)
	}
	s.Happiness = 99

	if _, err := e.Demolish(s, 0); err != nil {
		t.Fatal(err)
	}
	if s.Happiness != 100 {
		t.Errorf("happiness = %d, want 100", s.Happiness)
	}
}

func TestAdvanceIsDeterministic(t *testing.T) {
	build := func() *city.State {
		e, s := newCity(t, "tres_lagoas")
		for i, k := range []catalog.BuildingKind{catalog.KindHouse, catalog.KindFactory, catalog.KindFactory, catalog.KindPark, catalog.KindFactory, catalog.KindFactory} {
			if err := e.Place(s, i*3, k); err != nil {
				t.Fatal(err)
			}
		}
		return s
	}

	e := New(catalog.Default())
	a, b := build(), build()
	for i := 0; i < 24; i++ {
		ra, rb := e.Advance(a), e.Advance(b)
		if ra != rb {
			t.Fatalf("month %d reports differ: %+v vs %+v", i+1, ra, rb)
		}
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("states diverged: %s vs %s", a, b)
	}
	if a.Month != 25 {
		t.Errorf("month = %d, want 25", a.Month)
	}
}

func TestInvariantsHoldUnderRandomPlay(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cat := catalog.Default()
	e := New(cat)

	for _, key := range cat.CityKeys() {
		s, err := city.New(cat, key)
		if err != nil {
			t.Fatal(err)
		}
		kinds := append([]catalog.BuildingKind{catalog.KindEmpty}, cat.Kinds()...)

		for step := 0; step < 5000; step++ {
			month := s.Month
			before := s.Clone()
			var opErr error

			switch rng.Intn(3) {
			case 0:
				opErr = e.Place(s, rng.Intn(s.Len()+4)-2, kinds[rng.Intn(len(kinds))])
			case 1:
				_, opErr = e.Demolish(s, rng.Intn(s.Len()+4)-2)
			default:
				e.Advance(s)
				if s.Month != month+1 {
					t.Fatalf("%s step %d: month %d -> %d", key, step, month, s.Month)
				}
			}

			if opErr != nil && !reflect.DeepEqual(before, s) {
				t.Fatalf("%s step %d: failed op mutated state: %v", key, step, opErr)
			}
			if opErr == nil && s.Month != month && s.Month != month+1 {
				t.Fatalf("%s step %d: month moved outside a tick", key, step)
			}
			if err := s.Validate(); err != nil {
				t.Fatalf("%s step %d: %v", key, step, err)
			}
		}
	}
}

func TestFloorDiv(t *testing.T) {
	tests := []struct{ a, b, want int }{
		{12, 10, 1}, {10, 10, 1}, {9, 10, 0}, {0, 10, 0},
		{-1, 10, -1}, {-5, 10, -1}, {-10, 10, -1}, {-11, 10, -2}, {-50, 10, -5},
	}
	for _, tt := range tests {
		if got := floorDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("floorDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRefund(t *testing.T) {
	tests := []struct{ cost, want int }{{0, 0}, {1, 0}, {100, 50}, {101, 50}, {600, 300}}
	for _, tt := range tests {
		if got := Refund(tt.cost); got != tt.want {
			t.Errorf("Refund(%d) = %d, want %d", tt.cost, got, tt.want)
		}
	}
}
