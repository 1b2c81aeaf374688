// Package payload shapes documents for the wire. Everything leaving the
// process goes through the same trimming rule: client-only flags are
// removed, then empty values are stripped recursively. Nothing in this
// package mutates the store.
package payload

import (
	"github.com/cleanslate/recordflow/internal/record"
	"github.com/cleanslate/recordflow/internal/store"
	"github.com/cleanslate/recordflow/internal/view"
)

// uiFlags are client-side markers that must never reach the server.
var uiFlags = []string{"editing", "hasBeenEdited"}

// RecordSubmission builds the record-submission payload: the full
// denormalized record with the person attached, UI flags removed, and empty
// values stripped.
func RecordSubmission(s *store.State) (record.Object, error) {
	doc, err := view.FullRecord(s)
	if err != nil {
		return nil, err
	}
	trimmed, _ := RemoveKeys(doc, uiFlags...).(record.Object)
	return StripObject(trimmed), nil
}

// PetitionBatch builds the petition-batch submission payload
// {"petitions": [...]}, each petition trimmed by the same rule as the
// record.
func PetitionBatch(petitions []record.Object) record.Object {
	out := make([]any, 0, len(petitions))
	for _, p := range petitions {
		trimmed, _ := RemoveKeys(p, uiFlags...).(record.Object)
		out = append(out, StripObject(trimmed))
	}
	return record.Object{"petitions": out}
}

// SourceRecordBatch trims a source-record list for submission alongside the
// record document.
func SourceRecordBatch(sourceRecords []record.Object) []any {
	out := make([]any, 0, len(sourceRecords))
	for _, sr := range sourceRecords {
		trimmed, _ := RemoveKeys(sr, uiFlags...).(record.Object)
		out = append(out, StripObject(trimmed))
	}
	return out
}
