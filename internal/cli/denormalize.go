package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleanslate/recordflow/internal/payload"
	"github.com/cleanslate/recordflow/internal/record"
	"github.com/cleanslate/recordflow/internal/schema"
	"github.com/cleanslate/recordflow/internal/session"
	"github.com/cleanslate/recordflow/internal/store"
	"github.com/cleanslate/recordflow/internal/view"
)

// NewDenormalizeCommand creates the denormalize command.
func NewDenormalizeCommand(rootOpts *RootOptions) *cobra.Command {
	var outPath string
	var trim bool

	cmd := &cobra.Command{
		Use:   "denormalize [flat-state-file]",
		Short: "Rebuild the nested record document from flat session state",
		Long: `Rebuild the nested record document from the flat entity-store form.

Reads the flat state from the session database when --session is set,
otherwise from the given flat-state JSON file. The output is the full nested
document with aliases, charges, and sentences embedded back in place. With
--trim the document is shaped for submission: UI flags removed and empty
values stripped.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshotPath := ""
			if len(args) == 1 {
				snapshotPath = args[0]
			}
			return runDenormalize(rootOpts, snapshotPath, outPath, trim, cmd)
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write the document to a file instead of stdout")
	cmd.Flags().BoolVar(&trim, "trim", false, "emit the trimmed submission payload")
	return cmd
}

func runDenormalize(opts *RootOptions, snapshotPath, outPath string, trim bool, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	sch := schema.Record()

	st, err := loadFlatState(opts, sch, snapshotPath)
	if err != nil {
		_ = formatter.Error(ErrCodeSession, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	var doc record.Object
	if trim {
		doc, err = payload.RecordSubmission(st)
	} else {
		doc, err = view.FullRecord(st)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeMalformed, err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}
	return writeOutput(formatter, outPath, data)
}

func loadFlatState(opts *RootOptions, sch *schema.Schema, snapshotPath string) (*store.State, error) {
	if opts.Session != "" {
		sess, err := session.Open(opts.Session)
		if err != nil {
			return nil, err
		}
		defer sess.Close()
		return sess.Load(sch, stateExtraTypes...)
	}
	if snapshotPath == "" {
		return nil, &LoadError{Code: ErrCodeReadFailed, Path: "(none)", Message: "either --session or a flat-state file is required"}
	}
	data, err := os.ReadFile(snapshotPath)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Path: snapshotPath, Message: err.Error()}
	}
	return store.Restore(sch, data, stateExtraTypes...)
}
