// Package engine orchestrates the flows that tie the state tree to the
// backend: analyzing the record into draft petitions, integrating source
// records, refreshing the user profile, and drafting petitions by hand.
//
// The engine is single-threaded: every store mutation runs to completion
// before the next externally triggered operation is observed, and every
// write is attributed to exactly one triggering flow. Network calls are the
// only suspension points; responses that resolve after a newer request has
// been issued for the same endpoint are discarded by sequence stamp.
package engine

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/cleanslate/recordflow/internal/payload"
	"github.com/cleanslate/recordflow/internal/record"
	"github.com/cleanslate/recordflow/internal/store"
	"github.com/cleanslate/recordflow/internal/synth"
	"github.com/cleanslate/recordflow/internal/view"
)

// Stamped endpoint names.
const (
	endpointAnalysis = "analysis"
	endpointProfile  = "profile"
	endpointRecord   = "record"
)

// Transport is the backend surface the engine consumes. *client.Client
// satisfies it; tests supply fakes.
type Transport interface {
	FetchUserProfile(ctx context.Context) (record.Object, error)
	Analyze(ctx context.Context, crecord record.Object) (record.Object, error)
	IntegrateDocs(ctx context.Context, crecord record.Object, sourceRecords []any) (record.Object, error)
	RenderPetitions(ctx context.Context, batch record.Object) ([]byte, error)
}

// Engine drives the record/petition flows over one state tree.
type Engine struct {
	state  *store.State
	api    Transport
	log    zerolog.Logger
	stamps *stampTable
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the flow logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New builds an engine over a state tree and a backend transport.
func New(state *store.State, api Transport, opts ...Option) *Engine {
	e := &Engine{
		state:  state,
		api:    api,
		log:    zerolog.Nop(),
		stamps: newStampTable(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the engine's state tree.
func (e *Engine) State() *store.State { return e.state }

// LoadRecord normalizes a fetched record document into the state tree,
// replacing the record-document collections. Draft petitions and source
// records survive a reload.
func (e *Engine) LoadRecord(doc record.Object) error {
	n, err := e.state.Schema().Normalize(doc)
	if err != nil {
		return err
	}
	e.state.ReplaceRecord(n)
	return nil
}

// AnalyzeRecord submits the current record for legal analysis and
// synthesizes a draft petition for every eligible template the analysis
// returns, in decision order.
//
// If the attorney has never been explicitly edited, the profile defaults are
// refreshed first so the new petitions carry current attorney details rather
// than stale ones. A profile fetch failure is logged and the flow continues
// with the attorney as it stands.
func (e *Engine) AnalyzeRecord(ctx context.Context) error {
	const op = "analyze record"

	if !e.state.Attorney.HasBeenEdited {
		if err := e.FetchUserProfile(ctx); err != nil {
			e.log.Warn().Err(err).Msg("could not refresh attorney defaults before analysis")
		}
	}

	submission, err := payload.RecordSubmission(e.state)
	if err != nil {
		return flowErr(ErrCodeState, op, err)
	}

	stamp := e.stamps.issue(endpointAnalysis)
	analysis, err := e.api.Analyze(ctx, submission)
	if err != nil {
		return flowErr(ErrCodeTransport, op, err)
	}
	if !e.stamps.current(endpointAnalysis, stamp) {
		return flowErrf(ErrCodeStale, op, "a newer analysis request superseded this one")
	}

	e.state.Analysis = analysis.Clone()

	existing, err := e.state.Order(record.TypePetitions)
	if err != nil {
		return flowErr(ErrCodeState, op, err)
	}
	cs, synthErrs := synth.FromAnalysis(analysis, e.state.Attorney, existing)
	for _, serr := range synthErrs {
		e.log.Warn().Err(serr).Msg("skipped petition template")
	}
	if err := e.state.Apply(cs); err != nil {
		return flowErr(ErrCodeState, op, err)
	}
	e.log.Info().Int("petitions", len(cs.Ops)).Msg("analysis applied")
	return nil
}

// UpdateRecord sends the record and pending source records to the server for
// integration and replaces the record-document collections with the
// integrated result.
func (e *Engine) UpdateRecord(ctx context.Context) error {
	const op = "update record"

	submission, err := payload.RecordSubmission(e.state)
	if err != nil {
		return flowErr(ErrCodeState, op, err)
	}
	sourceRecords, err := view.SourceRecordList(e.state)
	if err != nil {
		return flowErr(ErrCodeState, op, err)
	}

	stamp := e.stamps.issue(endpointRecord)
	resp, err := e.api.IntegrateDocs(ctx, submission, payload.SourceRecordBatch(sourceRecords))
	if err != nil {
		return flowErr(ErrCodeTransport, op, err)
	}
	if !e.stamps.current(endpointRecord, stamp) {
		return flowErrf(ErrCodeStale, op, "a newer record update superseded this one")
	}

	newRecord, ok := record.AsObject(resp["crecord"])
	if !ok {
		return flowErrf(ErrCodeBadResponse, op, "response carries no crecord document")
	}
	n, err := e.state.Schema().Normalize(newRecord)
	if err != nil {
		return flowErr(ErrCodeBadResponse, op, err)
	}

	var cs store.Changeset
	if raw, ok := resp["source_records"].([]any); ok {
		for _, item := range raw {
			sr, ok := record.AsObject(item)
			if !ok {
				continue
			}
			id := sr.Str("id")
			if id == "" {
				continue
			}
			cs.Upsert(record.TypeSourceRecords, id, sr)
		}
	}

	e.state.ReplaceRecord(n)
	if err := e.state.Apply(cs); err != nil {
		return flowErr(ErrCodeState, op, err)
	}
	return nil
}

// FetchUserProfile retrieves the user's stored defaults and merges the
// {user, profile} payload into the user singleton, then repopulates the
// attorney from the refreshed defaults unless the edit latch is set.
func (e *Engine) FetchUserProfile(ctx context.Context) error {
	const op = "fetch user profile"

	stamp := e.stamps.issue(endpointProfile)
	resp, err := e.api.FetchUserProfile(ctx)
	if err != nil {
		return flowErr(ErrCodeTransport, op, err)
	}
	if !e.stamps.current(endpointProfile, stamp) {
		return flowErrf(ErrCodeStale, op, "a newer profile fetch superseded this one")
	}

	user := e.state.User.Clone()
	if user == nil {
		user = record.Object{}
	}
	for _, key := range []string{"user", "profile"} {
		if part, ok := record.AsObject(resp[key]); ok {
			for k, v := range part {
				user[k] = record.CloneValue(v)
			}
		}
	}
	e.state.User = user
	e.state.Attorney = synth.RefreshFromProfile(e.state.Attorney, user)
	return nil
}

// SetAttorney replaces the attorney with a user edit and sets the one-way
// latch so later profile fetches leave it alone.
func (e *Engine) SetAttorney(a record.Attorney) {
	a.HasBeenEdited = true
	e.state.Attorney = a
}

// NewPetition drafts a single petition from the current applicant and
// attorney defaults and inserts it. Returns the new petition's id.
func (e *Engine) NewPetition(serviceAgencies []string) (string, error) {
	const op = "new petition"

	applicant, aliases, err := e.applicant()
	if err != nil {
		return "", flowErr(ErrCodeState, op, err)
	}
	existing, err := e.state.Order(record.TypePetitions)
	if err != nil {
		return "", flowErr(ErrCodeState, op, err)
	}

	id, pet := synth.NewPetition(applicant, aliases, serviceAgencies, e.state.Attorney, existing)
	var cs store.Changeset
	cs.Upsert(record.TypePetitions, id, pet)
	if err := e.state.Apply(cs); err != nil {
		return "", flowErr(ErrCodeState, op, err)
	}
	return id, nil
}

// RenderPetitions submits the trimmed petition batch for rendering and
// returns the resulting archive.
func (e *Engine) RenderPetitions(ctx context.Context, ids []string) ([]byte, error) {
	const op = "render petitions"

	petitions := make([]record.Object, 0, len(ids))
	for _, id := range ids {
		pet, err := e.state.Get(record.TypePetitions, id)
		if err != nil {
			return nil, flowErr(ErrCodeState, op, err)
		}
		petitions = append(petitions, pet)
	}
	data, err := e.api.RenderPetitions(ctx, payload.PetitionBatch(petitions))
	if err != nil {
		return nil, flowErr(ErrCodeTransport, op, err)
	}
	return data, nil
}

// applicant returns the record's person entity and its alias entities in
// order.
func (e *Engine) applicant() (record.Object, []record.Object, error) {
	ids, err := e.state.Order(record.TypePerson)
	if err != nil {
		return nil, nil, err
	}
	if len(ids) == 0 {
		return record.Object{}, nil, nil
	}
	person, err := e.state.Get(record.TypePerson, ids[0])
	if err != nil {
		return nil, nil, err
	}
	var aliases []record.Object
	for _, id := range aliasIDs(person["aliases"]) {
		alias, err := e.state.Get(record.TypeAliases, id)
		if err != nil {
			return nil, nil, err
		}
		aliases = append(aliases, alias)
	}
	// The person document embeds alias ids; the petition wants values, which
	// NewPetition substitutes. Strip the reference list here so it cannot
	// leak into the client snapshot.
	delete(person, "aliases")
	return person, aliases, nil
}

func aliasIDs(v any) []string {
	switch ids := v.(type) {
	case []string:
		return ids
	case []any:
		out := make([]string, 0, len(ids))
		for _, elem := range ids {
			if id, ok := elem.(string); ok {
				out = append(out, id)
			}
		}
		return out
	default:
		return nil
	}
}
