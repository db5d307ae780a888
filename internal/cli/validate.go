package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/collsync/internal/harness"
)

// FileValidation is the validation outcome of one scenario file.
type FileValidation struct {
	Path   string `json:"path"`
	Name   string `json:"name,omitempty"`
	Steps  int    `json:"steps,omitempty"`
	Error  string `json:"error,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml>...",
		Short: "Validate scenario files without running them",
		Long: `Validate scenario files against the scenario schema and structural rules.

Exit codes:
  0 - All files are valid
  1 - One or more files are invalid
  2 - Command error (file not found, etc.)`,
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
	formatter := newFormatter(opts, cmd)

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return WrapExitError(ExitCommandError, "scenario file not found", err)
		}
	}

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(paths))}
	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)
		result.Files = append(result.Files, validateFile(path))
		if result.Files[len(result.Files)-1].Error != "" {
			result.Valid = false
		}
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeInvalidScenario, Message: "invalid scenario"}
		}
		if err := formatter.JSON(resp); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, f := range result.Files {
			if f.Error != "" {
				fmt.Fprintf(w, "✗ %s\n  %s\n", f.Path, f.Error)
				continue
			}
			fmt.Fprintf(w, "✓ %s (%s, %d steps)\n", f.Path, f.Name, f.Steps)
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "invalid scenario")
	}
	return nil
}

func validateFile(path string) FileValidation {
	s, err := harness.LoadScenario(path)
	if err != nil {
		fv := FileValidation{Path: path, Error: err.Error()}
		var se *harness.SchemaError
		if errors.As(err, &se) {
			fv.Line = se.Line
			fv.Column = se.Column
		}
		return fv
	}
	return FileValidation{Path: path, Name: s.Name, Steps: len(s.Steps)}
}
