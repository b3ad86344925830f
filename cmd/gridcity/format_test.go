package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/talgya/gridcity/internal/catalog"
	"github.com/talgya/gridcity/internal/city"
	"github.com/talgya/gridcity/internal/engine"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "$0"},
		{950, "$950"},
		{3000, "$3,000"},
		{-1250, "-$1,250"},
	}
	for _, tt := range tests {
		if got := money(tt.n); got != tt.want {
			t.Errorf("money(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
	if got := signed(4); got != "+4" {
		t.Errorf("signed(4) = %q", got)
	}
	if got := signed(-3); got != "-3" {
		t.Errorf("signed(-3) = %q", got)
	}
}

func TestPrintCity(t *testing.T) {
	cat := catalog.Default()
	c, err := city.New(cat, "tres_coracoes")
	if err != nil {
		t.Fatal(err)
	}
	eng := engine.New(cat)
	for i, kind := range []catalog.BuildingKind{catalog.KindHouse, catalog.KindHouse, catalog.KindPark} {
		if err := eng.Place(c, i, kind); err != nil {
			t.Fatal(err)
		}
	}

	var buf bytes.Buffer
	printCity(&buf, c)
	out := buf.String()
	for _, want := range []string{"January, Year 1", "money $2,600", "2 house, 1 park on 3 of 192 cells"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintCatalog(t *testing.T) {
	var buf bytes.Buffer
	printCatalog(&buf, catalog.Default())
	out := buf.String()
	for _, want := range []string{"CITIES (3)", "* tres_coracoes", "BUILDINGS (4)", "$600", "$300"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
