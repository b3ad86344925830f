package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/gridcity/internal/catalog"
	"github.com/talgya/gridcity/internal/city"
	"github.com/talgya/gridcity/internal/clock"
	"github.com/talgya/gridcity/internal/engine"
	"github.com/talgya/gridcity/internal/scenario"
)

// money formats an amount with thousands separators, keeping the sign.
func money(n int) string {
	if n < 0 {
		return "-$" + humanize.Comma(int64(-n))
	}
	return "$" + humanize.Comma(int64(n))
}

// signed formats a delta with an explicit sign.
func signed(n int) string {
	if n > 0 {
		return "+" + humanize.Comma(int64(n))
	}
	return humanize.Comma(int64(n))
}

func printCatalog(w io.Writer, cat *catalog.Catalog) {
	fmt.Fprintf(w, "CITIES (%d):\n", len(cat.CityKeys()))
	for _, key := range cat.CityKeys() {
		p, _ := cat.City(key)
		marker := " "
		if key == catalog.DefaultCity {
			marker = "*"
		}
		fmt.Fprintf(w, " %s %-14s %s, %dx%d grid\n", marker, key, p.Name, p.Cols, p.Rows)
		fmt.Fprintf(w, "    start %s, power %d, happiness %d; income x%.2f, power cost x%.2f\n",
			money(p.StartMoney), p.StartPower, p.Modifiers.HappinessBase,
			p.Modifiers.IncomeFactor, p.Modifiers.PowerCostFactor)
		if p.Terrain != "" {
			fmt.Fprintf(w, "    %s\n", p.Terrain)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "BUILDINGS (%d):\n", len(cat.Kinds()))
	fmt.Fprintf(w, "  %-8s %-10s %8s %8s %6s %6s %7s %6s\n", "KIND", "LABEL", "COST", "REFUND", "POWER", "POP", "INCOME", "HAPPY")
	for _, kind := range cat.Kinds() {
		d, _ := cat.Building(kind)
		fmt.Fprintf(w, "  %-8s %-10s %8s %8s %6s %6s %7s %6s\n",
			kind, d.Label, money(d.Cost), money(engine.Refund(d.Cost)),
			signed(d.PowerDelta), signed(d.PopulationDelta), signed(d.IncomeDelta), signed(d.HappinessDelta))
	}
}

func printCity(w io.Writer, c *city.State) {
	fmt.Fprintf(w, "%s (%s), %s\n", c.Name, c.Key, clock.Date(c.Month))
	fmt.Fprintf(w, "  money %s, power %d, population %s, happiness %d/%d\n",
		money(c.Money), c.Power, humanize.Comma(int64(c.Population)), c.Happiness, city.MaxHappiness)

	counts := c.KindCounts()
	var parts []string
	for _, kind := range []catalog.BuildingKind{catalog.KindHouse, catalog.KindFactory, catalog.KindPowerPlant, catalog.KindPark} {
		if n := counts[kind]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, kind))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "nothing built")
	}
	fmt.Fprintf(w, "  %s on %d of %d cells\n", strings.Join(parts, ", "), c.Built(), c.Len())
}

func printReportHeader(w io.Writer) {
	fmt.Fprintf(w, "%-22s %8s %8s %8s %10s %6s %11s\n", "MONTH", "INCOME", "DEFICIT", "POWER$", "MONEY", "HAPPY", "POPULATION")
}

func printReport(w io.Writer, r engine.Report) {
	fmt.Fprintf(w, "%-22s %8s %8d %8s %10s %6d %11s\n",
		clock.Date(r.Month), money(r.Income), r.Deficit, money(r.PowerCost),
		money(r.Money), r.Happiness, humanize.Comma(int64(r.Population)))
}

func printStep(w io.Writer, r scenario.StepResult) {
	status := "ok"
	if !r.OK() {
		status = "FAIL"
	}
	fmt.Fprintf(w, "%4s  %-28s %s\n", humanize.Ordinal(r.Index), r.Step, status)
	for _, ev := range r.Events {
		if ev.Report != nil {
			fmt.Fprintf(w, "      %s: net %s, money %s\n", clock.Date(ev.Report.Month), money(ev.Report.Net()), money(ev.Money))
		}
	}
	if r.Err != nil {
		fmt.Fprintf(w, "      %v\n", r.Err)
	}
}
