package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleanslate/recordflow/internal/record"
	"github.com/cleanslate/recordflow/internal/schema"
	"github.com/cleanslate/recordflow/internal/session"
	"github.com/cleanslate/recordflow/internal/store"
)

// NewNormalizeCommand creates the normalize command.
func NewNormalizeCommand(rootOpts *RootOptions) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "normalize <record-file>",
		Short: "Normalize a nested record document into flat session state",
		Long: `Normalize a nested record document into the flat entity-store form.

The document is validated against the wire schema first, then decomposed into
per-type collections keyed by entity id. With --session the result replaces
the record portion of the session state; otherwise the flat state is written
as JSON.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(rootOpts, args[0], outPath, cmd)
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write the flat state to a file instead of stdout")
	return cmd
}

func runNormalize(opts *RootOptions, path, outPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	doc, err := LoadDocument(path)
	if err != nil {
		return reportLoadError(formatter, err)
	}

	validationErrors, err := ValidateRecordDocument(doc)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}
	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	sch := schema.Record()
	n, err := sch.Normalize(doc)
	if err != nil {
		_ = formatter.Error(ErrCodeMalformed, err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}
	formatter.VerboseLog("Normalized %d collection type(s)", len(sch.Types()))

	st, sess, err := openState(opts, sch)
	if err != nil {
		_ = formatter.Error(ErrCodeSession, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}
	if sess != nil {
		defer sess.Close()
	}
	st.ReplaceRecord(n)

	if sess != nil {
		if err := sess.Save(st); err != nil {
			_ = formatter.Error(ErrCodeSession, err.Error(), nil)
			return NewExitError(ExitCommandError, err.Error())
		}
		formatter.VerboseLog("Saved session %s", opts.Session)
	}

	data, err := st.MarshalSnapshot()
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}
	return writeOutput(formatter, outPath, data)
}

// stateExtraTypes are the collections that live outside the nested record
// document.
var stateExtraTypes = []string{record.TypeSourceRecords, record.TypePetitions}

// openState returns the working state tree: loaded from the session when one
// is configured and exists, empty otherwise. The returned session is nil for
// stateless runs.
func openState(opts *RootOptions, sch *schema.Schema) (*store.State, *session.Session, error) {
	if opts.Session == "" {
		return store.New(sch, stateExtraTypes...), nil, nil
	}

	_, statErr := os.Stat(opts.Session)
	fresh := os.IsNotExist(statErr)

	sess, err := session.Open(opts.Session)
	if err != nil {
		return nil, nil, err
	}
	if fresh {
		return store.New(sch, stateExtraTypes...), sess, nil
	}
	st, err := sess.Load(sch, stateExtraTypes...)
	if err != nil {
		sess.Close()
		return nil, nil, err
	}
	return st, sess, nil
}

func reportLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		return NewExitError(ExitCommandError, loadErr.Error())
	}
	_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
	return NewExitError(ExitCommandError, err.Error())
}

func writeOutput(formatter *OutputFormatter, outPath string, data []byte) error {
	if outPath == "" {
		fmt.Fprintln(formatter.Writer, string(data))
		return nil
	}
	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		_ = formatter.Error(ErrCodeWrite, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}
	formatter.VerboseLog("Wrote %s", outPath)
	return nil
}
