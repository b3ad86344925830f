package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/gridcity/internal/catalog"
	"github.com/talgya/gridcity/internal/scenario"
	"github.com/talgya/gridcity/internal/session"
)

type simulateOptions struct {
	dbPath string
	city   string
	months int
}

func simulateCmd(g *globals) *cobra.Command {
	var opts simulateOptions

	cmd := &cobra.Command{
		Use:   "simulate [script]",
		Short: "Run a YAML scenario, or advance an empty city month by month",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runScript(g, opts, args[0])
			}
			return runMonths(g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite event journal (empty: none)")
	cmd.Flags().StringVar(&opts.city, "city", "", "city to play (overrides the script's city)")
	cmd.Flags().IntVarP(&opts.months, "months", "n", 12, "months to advance without a script")
	return cmd
}

// newSession builds a session over the catalog, journaled when --db is set.
// The returned func closes the journal.
func newSession(g *globals, dbPath string) (*session.Session, func(), error) {
	cat, err := g.loadCatalog()
	if err != nil {
		return nil, nil, err
	}
	db, err := openJournal(dbPath)
	if err != nil {
		return nil, nil, err
	}
	if db == nil {
		return session.New(cat), func() {}, nil
	}
	return session.New(cat, session.WithJournal(db)), func() { db.Close() }, nil
}

func runScript(g *globals, opts simulateOptions, path string) error {
	script, err := scenario.Load(path)
	if err != nil {
		return err
	}
	if opts.city != "" {
		script.City = opts.city
	}

	sess, done, err := newSession(g, opts.dbPath)
	if err != nil {
		return err
	}
	defer done()

	if script.Name != "" {
		fmt.Printf("Scenario: %s\n", script.Name)
	}
	res, err := scenario.Run(sess, script, func(r scenario.StepResult) {
		printStep(os.Stdout, r)
	})
	if res != nil && res.Final != nil {
		fmt.Println()
		printCity(os.Stdout, res.Final)
	}
	if err != nil {
		return err
	}
	if res.Failures > 0 {
		return fmt.Errorf("%d of %d steps failed", res.Failures, len(res.Steps))
	}
	fmt.Printf("All %d steps passed.\n", len(res.Steps))
	return nil
}

func runMonths(g *globals, opts simulateOptions) error {
	if opts.months < 1 {
		return fmt.Errorf("--months must be at least 1, got %d", opts.months)
	}
	key := opts.city
	if key == "" {
		key = catalog.DefaultCity
	}

	sess, done, err := newSession(g, opts.dbPath)
	if err != nil {
		return err
	}
	defer done()

	if _, err := sess.Activate(key); err != nil {
		return err
	}
	printReportHeader(os.Stdout)
	for i := 0; i < opts.months; i++ {
		ev, err := sess.AdvanceActive()
		if err != nil {
			return err
		}
		printReport(os.Stdout, *ev.Report)
	}

	c, err := sess.Snapshot(key)
	if err != nil {
		return err
	}
	fmt.Println()
	printCity(os.Stdout, c)
	return nil
}
