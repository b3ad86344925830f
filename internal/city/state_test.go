package city

import (
	"errors"
	"testing"

	"github.com/talgya/gridcity/internal/catalog"
)

func TestNewTresCoracoes(t *testing.T) {
	s, err := New(catalog.Default(), "tres_coracoes")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if s.Money != 3000 || s.Power != 20 || s.Population != 10 || s.Happiness != 60 || s.Month != 1 {
		t.Errorf("fresh city = %s, want money=3000 power=20 pop=10 happy=60 month=1", s)
	}
	if s.Len() != 16*12 {
		t.Errorf("Len = %d, want %d", s.Len(), 16*12)
	}
	if s.Built() != 0 {
		t.Errorf("Built = %d, want 0", s.Built())
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestNewUnknownCity(t *testing.T) {
	_, err := New(catalog.Default(), "nowhere")
	if !errors.Is(err, catalog.ErrUnknownCityKey) {
		t.Errorf("err = %v, want ErrUnknownCityKey", err)
	}
}

func TestNewIsIndependent(t *testing.T) {
	cat := catalog.Default()
	a, _ := New(cat, "tres_rios")
	b, _ := New(cat, "tres_rios")

	a.Cells[0].Kind = catalog.KindPark
	a.Money = 1

	if b.Cells[0].Kind != catalog.KindEmpty || b.Money != 3100 {
		t.Errorf("second city shares state with the first: %s", b)
	}
}

func TestClampHappiness(t *testing.T) {
	tests := []struct{ in, want int }{
		{-7, 0}, {0, 0}, {55, 55}, {100, 100}, {130, 100},
	}
	for _, tt := range tests {
		if got := ClampHappiness(tt.in); got != tt.want {
			t.Errorf("ClampHappiness(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	s, _ := New(catalog.Default(), "tres_lagoas")
	c := s.Clone()
	c.Cells[5].Kind = catalog.KindHouse
	c.Power = -3

	if s.Cells[5].Kind != catalog.KindEmpty {
		t.Error("clone shares cells with the original")
	}
	if s.Power != 18 {
		t.Errorf("original power = %d, want 18", s.Power)
	}
}

func TestValidate(t *testing.T) {
	base, _ := New(catalog.Default(), "tres_coracoes")

	tests := []struct {
		name   string
		mutate func(*State)
	}{
		{"short grid", func(s *State) { s.Cells = s.Cells[:10] }},
		{"happiness high", func(s *State) { s.Happiness = 101 }},
		{"happiness low", func(s *State) { s.Happiness = -1 }},
		{"negative population", func(s *State) { s.Population = -1 }},
		{"month zero", func(s *State) { s.Month = 0 }},
		{"bad kind", func(s *State) { s.Cells[3].Kind = catalog.BuildingKind(77) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base.Clone()
			tt.mutate(s)
			if err := s.Validate(); err == nil {
				t.Error("expected invariant violation")
			}
		})
	}
}

func TestGridIndexing(t *testing.T) {
	s, _ := New(catalog.Default(), "tres_coracoes")

	if got := s.Index(3, 2); got != 2*16+3 {
		t.Errorf("Index(3,2) = %d, want %d", got, 2*16+3)
	}
	col, row := s.Coord(2*16 + 3)
	if col != 3 || row != 2 {
		t.Errorf("Coord = (%d,%d), want (3,2)", col, row)
	}
	if s.Index(16, 0) != -1 || s.Index(0, 12) != -1 || s.Index(-1, 0) != -1 {
		t.Error("Index should reject off-grid coordinates")
	}
	if s.InBounds(-1) || s.InBounds(s.Len()) || !s.InBounds(s.Len()-1) {
		t.Error("InBounds wrong at the edges")
	}
}

func TestKindCounts(t *testing.T) {
	s, _ := New(catalog.Default(), "tres_rios")
	s.Cells[0].Kind = catalog.KindHouse
	s.Cells[1].Kind = catalog.KindHouse
	s.Cells[2].Kind = catalog.KindPark

	counts := s.KindCounts()
	if counts[catalog.KindHouse] != 2 || counts[catalog.KindPark] != 1 {
		t.Errorf("counts = %v", counts)
	}
	if counts[catalog.KindEmpty] != s.Len()-3 {
		t.Errorf("empty = %d, want %d", counts[catalog.KindEmpty], s.Len()-3)
	}
	if s.Built() != 3 {
		t.Errorf("Built = %d, want 3", s.Built())
	}
}
