// Package view holds read-only projections over the state tree. Selectors
// reconstruct denormalized documents for display or submission; none of them
// mutate the store.
package view

import (
	"github.com/cleanslate/recordflow/internal/record"
	"github.com/cleanslate/recordflow/internal/store"
)

// FullRecord reconstructs the complete nested record document: the applicant
// with aliases expanded, and the ordered case list with charges and
// sentences nested back in.
func FullRecord(s *store.State) (record.Object, error) {
	return s.Schema().Denormalize(s.Normalized())
}

// SourceRecordList returns the ingested source records in canonical order,
// integration status included (the status fields live on the entities
// themselves).
func SourceRecordList(s *store.State) ([]record.Object, error) {
	ids, err := s.Order(record.TypeSourceRecords)
	if err != nil {
		return nil, err
	}
	out := make([]record.Object, 0, len(ids))
	for _, id := range ids {
		sr, err := s.Get(record.TypeSourceRecords, id)
		if err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, nil
}

// PetitionView returns a petition prepared for rendering: referenced case
// ids are expanded into denormalized case documents. The expansion is a
// display convenience only; the stored petition keeps its id references and
// its snapshots stay authoritative.
func PetitionView(s *store.State, id string) (record.Object, error) {
	pet, err := s.Get(record.TypePetitions, id)
	if err != nil {
		return nil, err
	}
	ids, ok := caseIDs(pet["cases"])
	if !ok {
		return pet, nil
	}
	n := s.Normalized()
	cases := make([]any, 0, len(ids))
	for _, caseID := range ids {
		doc, err := s.Schema().DenormalizeFrom(n, record.TypeCases, caseID)
		if err != nil {
			return nil, err
		}
		cases = append(cases, doc)
	}
	pet["cases"] = cases
	return pet, nil
}

// caseIDs accepts a petition's case list only when it is a list of id
// references. Petitions created from server templates may already embed full
// case documents; those are returned as stored.
func caseIDs(v any) ([]string, bool) {
	switch ids := v.(type) {
	case []string:
		return ids, true
	case []any:
		out := make([]string, 0, len(ids))
		for _, elem := range ids {
			id, ok := elem.(string)
			if !ok {
				return nil, false
			}
			out = append(out, id)
		}
		return out, true
	default:
		return nil, false
	}
}
