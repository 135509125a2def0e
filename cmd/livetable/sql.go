package main

import (
	"fmt"
	"io"
	"os"

	"LiveTable/internal/config"
	"LiveTable/internal/logger"
	"LiveTable/internal/params"
	"LiveTable/internal/query"

	"github.com/Masterminds/squirrel"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type sqlMode string

const (
	modeList   sqlMode = "list"
	modeCount  sqlMode = "count"
	modeExport sqlMode = "export"
)

func newSQLCmd() *cobra.Command {
	var (
		dialectFlag string
		count       bool
		export      bool
	)
	cmd := &cobra.Command{
		Use:   "sql <resource> [query string]",
		Short: "Print the SQL a request would run, without touching the database",
		Example: `  livetable sql products 'filters[price][min]=10&sort_params[name]=desc&page=2'
  livetable sql products --count 'search=drill'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if debugFlag {
				logger.SetOutput(os.Stderr)
			}
			cfg := config.LoadConfig()
			if dialectFlag == "" {
				dialectFlag = cfg.Dialect
			}
			dialect, err := query.ParseDialect(dialectFlag)
			if err != nil {
				return err
			}
			tables, app, err := loadTables(cfg)
			if err != nil {
				return err
			}
			table, ok := tables[args[0]]
			if !ok {
				return fmt.Errorf("unknown resource %q", args[0])
			}
			raw := ""
			if len(args) == 2 {
				raw = args[1]
			}
			mode := modeList
			switch {
			case count:
				mode = modeCount
			case export:
				mode = modeExport
			}
			return renderSQL(cmd.OutOrStdout(), table, app, raw, dialect, mode)
		},
	}
	cmd.Flags().StringVar(&dialectFlag, "dialect", "", "postgres or sqlite (default from DB_DIALECT)")
	cmd.Flags().BoolVar(&count, "count", false, "print the count query")
	cmd.Flags().BoolVar(&export, "export", false, "print the export query")
	cmd.MarkFlagsMutuallyExclusive("count", "export")
	return cmd
}

// renderSQL composes the query for one request and writes it with its
// arguments.
func renderSQL(w io.Writer, table *query.Table, app map[string]any, raw string, dialect query.Dialect, mode sqlMode) error {
	root, err := params.ParseQuery(raw)
	if err != nil {
		color.New(color.FgYellow).Fprintf(w, "-- skipped malformed parameter: %v\n", err)
	}
	to, err := table.ResolveOptions(app)
	if err != nil {
		return err
	}
	opts := table.OptionsFromRequest(root, to, dialect)

	var q squirrel.SelectBuilder
	switch mode {
	case modeCount:
		q, err = table.Count(opts)
	case modeExport:
		var maxRows uint64
		if to.Exports.MaxRows > 0 {
			maxRows = uint64(to.Exports.MaxRows)
		}
		q, err = table.Export(opts, maxRows)
	default:
		q, err = table.List(opts)
	}
	if err != nil {
		return err
	}
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}

	color.New(color.FgCyan, color.Bold).Fprintln(w, sqlStr)
	for i, arg := range args {
		color.New(color.FgGreen).Fprintf(w, "  %d: ", i+1)
		fmt.Fprintf(w, "%v (%T)\n", arg, arg)
	}
	return nil
}
