// Command gridcity runs the grid city economy: an HTTP server for playing,
// a scenario runner, and a catalog viewer.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/talgya/gridcity/internal/catalog"
	"github.com/talgya/gridcity/internal/persistence"
)

// globals holds the flags shared by every subcommand.
type globals struct {
	catalogPath string
	verbose     bool
}

func main() {
	var g globals

	rootCmd := &cobra.Command{
		Use:   "gridcity",
		Short: "Grid city economy simulator",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if g.verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: level,
			}))
			slog.SetDefault(logger)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.catalogPath, "catalog", "", "YAML catalog file (default: built-in tables)")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log every action")

	rootCmd.AddCommand(serveCmd(&g))
	rootCmd.AddCommand(simulateCmd(&g))
	rootCmd.AddCommand(catalogCmd(&g))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadCatalog returns the catalog named by --catalog, or the built-in one.
func (g *globals) loadCatalog() (*catalog.Catalog, error) {
	if g.catalogPath == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.Load(g.catalogPath)
	if err != nil {
		return nil, err
	}
	slog.Info("catalog loaded", "path", g.catalogPath, "cities", len(cat.CityKeys()))
	return cat, nil
}

// openJournal opens the event journal at path, creating its directory.
// An empty path returns nil.
func openJournal(path string) (*persistence.DB, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}
	db, err := persistence.Open(path)
	if err != nil {
		return nil, err
	}
	slog.Info("journal opened", "path", path)
	return db, nil
}

func catalogCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the city presets and buildings",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cat, err := g.loadCatalog()
			if err != nil {
				return err
			}
			printCatalog(os.Stdout, cat)
			return nil
		},
	}
}
