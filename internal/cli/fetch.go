package cli

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/facetgrid/facetgrid/source"
)

// FetchOptions holds flags for the fetch command.
type FetchOptions struct {
	*RootOptions
	Params string
	DBPath string
}

// FetchResult is the JSON output shape of the fetch command.
type FetchResult struct {
	Count int              `json:"count"`
	Items []map[string]any `json:"items"`
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FetchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "fetch <definition.yaml>",
		Short:         "Run a definition's compiled query against a SQLite database",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Params, "params", "p", "", "URL query string")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to SQLite database (required)")
	cmd.MarkFlagRequired("db")

	return cmd
}

func runFetch(opts *FetchOptions, path string, cmd *cobra.Command) error {
	req, err := compileRequest(path, opts.Params)
	if err != nil {
		return err
	}

	db, err := sql.Open("sqlite3", opts.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return WrapExitError(ExitCommandError, "connect to database", err)
	}

	table, err := source.NewTable(db, scanRowMap)
	if err != nil {
		return WrapExitError(ExitCommandError, "table source", err)
	}

	res, err := table.Fetch(cmd.Context(), source.FetchContext{
		Page:     req.Range.From/(req.Range.To-req.Range.From+1) + 1,
		PageSize: req.Range.To - req.Range.From + 1,
		Skip:     req.Range.From,
		Query:    req,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "fetch", err)
	}

	result := FetchResult{Count: res.Count, Items: res.Items}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "%d of %d record(s):\n", len(result.Items), result.Count)
	for _, item := range result.Items {
		fmt.Fprintf(out, "  %v\n", item)
	}
	return nil
}

// scanRowMap scans any row into a column-keyed map, so the tool works
// against arbitrary tables without generated models.
func scanRowMap(rows *sql.Rows) (map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	row := make(map[string]any, len(columns))
	for i, col := range columns {
		if b, ok := values[i].([]byte); ok {
			row[col] = string(b)
		} else {
			row[col] = values[i]
		}
	}
	return row, nil
}
