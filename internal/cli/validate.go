package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/facetgrid/facetgrid/config"
)

// ValidationResult holds validation results for one definition file.
type ValidationResult struct {
	Path  string `json:"path"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "validate <definition.yaml>...",
		Short:         "Validate listing definition files against the schema",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	results := make([]ValidationResult, 0, len(paths))
	failed := false

	for _, path := range paths {
		res := ValidationResult{Path: path, Valid: true}
		if _, err := config.Load(path); err != nil {
			res.Valid = false
			res.Error = err.Error()
			failed = true
		}
		results = append(results, res)
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			if res.Valid {
				fmt.Fprintf(out, "ok    %s\n", res.Path)
			} else {
				fmt.Fprintf(out, "error %s: %s\n", res.Path, res.Error)
			}
		}
	}

	if failed {
		return NewExitError(ExitFailure, "one or more definitions are invalid")
	}
	return nil
}
