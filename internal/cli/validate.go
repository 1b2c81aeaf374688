package cli

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
	"github.com/spf13/cobra"

	"github.com/cleanslate/recordflow/internal/record"
)

//go:embed wire.cue
var wireCUE string

// ValidationError is one schema violation in a record document.
type ValidationError struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <record-file>",
		Short: "Validate a record document against the wire schema",
		Long: `Validate a nested record document (JSON or YAML) against the wire schema.

Checks the containment skeleton (person, cases, charges, sentences, aliases)
and entity ids. Unknown fields are allowed; the schema is open by design.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	doc, err := LoadDocument(path)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
			return NewExitError(ExitCommandError, loadErr.Error())
		}
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}
	formatter.VerboseLog("Loaded %s", path)

	validationErrors, err := ValidateRecordDocument(doc)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}
	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}
	return outputValidateSuccess(formatter)
}

// ValidateRecordDocument checks a record document against the embedded wire
// schema. Schema violations come back as ValidationErrors; a non-nil error
// means validation itself could not run.
func ValidateRecordDocument(doc record.Object) ([]ValidationError, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(wireCUE, cue.Filename("wire.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling wire schema: %w", err)
	}
	recordDef := schema.LookupPath(cue.ParsePath("#Record"))
	if !recordDef.Exists() {
		return nil, fmt.Errorf("wire schema has no #Record definition")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	expr, err := cuejson.Extract("record.json", data)
	if err != nil {
		return nil, fmt.Errorf("extracting document: %w", err)
	}
	value := ctx.BuildExpr(expr)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("building document value: %w", err)
	}

	unified := recordDef.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		var out []ValidationError
		for _, e := range cueerrors.Errors(err) {
			msg, args := e.Msg()
			out = append(out, ValidationError{
				Path:    strings.Join(e.Path(), "."),
				Message: fmt.Sprintf(msg, args...),
				Line:    e.Position().Line(),
			})
		}
		return out, nil
	}
	return nil, nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}
	fmt.Fprintln(formatter.Writer, "✓ Record document is valid")
	return nil
}

// outputValidationErrors outputs validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    ErrCodeInvalid,
				Message: errs[0].Message,
			},
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range errs {
		if e.Path != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", e.Path, e.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s\n", e.Message)
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
