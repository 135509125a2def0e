package main

import (
	"fmt"
	"os"

	"LiveTable/internal/config"
	"LiveTable/internal/extensions"
	"LiveTable/internal/logger"
	"LiveTable/internal/model"
	"LiveTable/internal/query"

	"github.com/spf13/cobra"
)

var debugFlag bool

func main() {
	root := &cobra.Command{
		Use:           "livetable",
		Short:         "Filterable, sortable, paginated tables over SQL resources",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetDebug(debugFlag)
		},
	}
	root.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "enable debug logging")
	root.AddCommand(newServeCmd(), newSQLCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadTables reads the resource files and the application table options.
func loadTables(cfg *config.Config) (map[string]*query.Table, map[string]any, error) {
	extensions.Register()
	if err := model.InitRegistry(cfg.ResourcesDir); err != nil {
		return nil, nil, fmt.Errorf("registry: %w", err)
	}
	tables, err := query.Tables()
	if err != nil {
		return nil, nil, fmt.Errorf("tables: %w", err)
	}
	app, err := config.LoadTableOptionsFile(cfg.TableOptionsFile)
	if err != nil {
		return nil, nil, err
	}
	// fail at startup rather than on the first request
	for name, t := range tables {
		if _, err := t.ResolveOptions(app); err != nil {
			return nil, nil, fmt.Errorf("resource %s: %w", name, err)
		}
	}
	logger.Info("tables_initialized", map[string]any{"count": len(tables)})
	return tables, app, nil
}
