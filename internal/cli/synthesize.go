package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleanslate/recordflow/internal/record"
	"github.com/cleanslate/recordflow/internal/schema"
	"github.com/cleanslate/recordflow/internal/session"
	"github.com/cleanslate/recordflow/internal/synth"
)

// SynthesisResult reports the outcome of a synthesize run.
type SynthesisResult struct {
	PetitionIDs []string `json:"petition_ids"`
	Skipped     []string `json:"skipped,omitempty"`
}

// NewSynthesizeCommand creates the synthesize command.
func NewSynthesizeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synthesize <analysis-file>",
		Short: "Synthesize draft petitions from a saved analysis document",
		Long: `Synthesize draft petitions from a server analysis document.

Walks the analysis decisions in order and creates one petition per eligible
template, completed with the session's attorney details. New petitions are
appended to the session state; malformed templates are skipped and reported
without aborting the batch. Requires --session.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSynthesize(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runSynthesize(opts *RootOptions, analysisPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if opts.Session == "" {
		msg := "synthesize requires --session"
		_ = formatter.Error(ErrCodeSession, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	analysis, err := LoadDocument(analysisPath)
	if err != nil {
		return reportLoadError(formatter, err)
	}

	sess, err := session.Open(opts.Session)
	if err != nil {
		_ = formatter.Error(ErrCodeSession, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}
	defer sess.Close()

	st, err := sess.Load(schema.Record(), stateExtraTypes...)
	if err != nil {
		_ = formatter.Error(ErrCodeSession, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	existing, err := st.Order(record.TypePetitions)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	cs, synthErrs := synth.FromAnalysis(analysis, st.Attorney, existing)
	st.Analysis = analysis.Clone()
	if err := st.Apply(cs); err != nil {
		_ = formatter.Error(ErrCodeSynthesis, err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}
	if err := sess.Save(st); err != nil {
		_ = formatter.Error(ErrCodeSession, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	result := SynthesisResult{PetitionIDs: make([]string, 0, len(cs.Ops))}
	for _, op := range cs.Ops {
		result.PetitionIDs = append(result.PetitionIDs, op.ID)
	}
	for _, serr := range synthErrs {
		result.Skipped = append(result.Skipped, serr.Error())
	}

	return outputSynthesisResult(formatter, result)
}

func outputSynthesisResult(formatter *OutputFormatter, result SynthesisResult) error {
	if formatter.Format == "json" {
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(CLIResponse{Status: "ok", Data: result}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "Created %d petition(s)\n", len(result.PetitionIDs))
		for _, id := range result.PetitionIDs {
			fmt.Fprintf(formatter.Writer, "  %s\n", id)
		}
		for _, skipped := range result.Skipped {
			fmt.Fprintf(formatter.Writer, "Skipped: %s\n", skipped)
		}
	}

	// Skipped templates are reported but do not fail the run unless nothing
	// was produced at all.
	if len(result.PetitionIDs) == 0 && len(result.Skipped) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("no petitions created; %d template(s) skipped", len(result.Skipped)))
	}
	return nil
}
