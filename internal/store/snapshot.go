package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cleanslate/recordflow/internal/record"
	"github.com/cleanslate/recordflow/internal/schema"
)

// collectionJSON is the serialized form of one collection slice.
type collectionJSON struct {
	Entities map[string]record.Object `json:"entities"`
	Order    []string                 `json:"order"`
}

// MarshalSnapshot serializes the whole state tree: one {entities, order}
// pair per collection type, singleton slices stored bare. This is the layout
// persisted between sessions and written by the normalize command.
func (s *State) MarshalSnapshot() ([]byte, error) {
	tree := make(map[string]any, len(s.types)+3)
	for _, typ := range s.types {
		c := s.collections[typ]
		tree[typ] = collectionJSON{Entities: c.Entities, Order: c.Order}
	}
	tree[record.SliceAttorney] = s.Attorney
	tree[record.SliceUser] = s.User
	tree[record.SliceAnalysis] = s.Analysis
	return json.MarshalIndent(tree, "", "  ")
}

// Restore rebuilds a state tree from a serialized snapshot and verifies its
// consistency before returning it.
func Restore(sch *schema.Schema, data []byte, extraTypes ...string) (*State, error) {
	var tree map[string]json.RawMessage
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("store: decoding snapshot: %w", err)
	}

	s := New(sch, extraTypes...)
	for _, typ := range s.types {
		raw, ok := tree[typ]
		if !ok {
			continue
		}
		var c collectionJSON
		if err := decodeNumbers(raw, &c); err != nil {
			return nil, fmt.Errorf("store: decoding %s slice: %w", typ, err)
		}
		col := newCollection()
		for id, ent := range c.Entities {
			col.Entities[id] = ent
		}
		col.Order = c.Order
		s.collections[typ] = col
	}

	if raw, ok := tree[record.SliceAttorney]; ok {
		if err := json.Unmarshal(raw, &s.Attorney); err != nil {
			return nil, fmt.Errorf("store: decoding attorney slice: %w", err)
		}
	}
	if raw, ok := tree[record.SliceUser]; ok {
		if err := decodeNumbers(raw, &s.User); err != nil {
			return nil, fmt.Errorf("store: decoding user slice: %w", err)
		}
	}
	if raw, ok := tree[record.SliceAnalysis]; ok {
		if err := decodeNumbers(raw, &s.Analysis); err != nil {
			return nil, fmt.Errorf("store: decoding analysis slice: %w", err)
		}
	}

	if err := s.Check(); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeNumbers(data []byte, v any) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
