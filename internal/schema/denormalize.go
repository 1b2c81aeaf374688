package schema

import (
	"fmt"

	"github.com/cleanslate/recordflow/internal/record"
)

// Denormalize reconstructs the nested document from flattened entities,
// substituting every id reference with the denormalized child. It is the
// strict inverse of Normalize: for any well-formed document d,
// Denormalize(Normalize(d)) equals d, with child list order preserved.
func (s *Schema) Denormalize(n *Normalized) (record.Object, error) {
	return s.DenormalizeFrom(n, s.root, n.Root)
}

// DenormalizeFrom reconstructs the nested subtree rooted at one entity. Used
// by projections that expand a referenced entity (a petition's cases) without
// rebuilding the whole record.
func (s *Schema) DenormalizeFrom(n *Normalized, typ, id string) (record.Object, error) {
	def, ok := s.entities[typ]
	if !ok {
		return nil, fmt.Errorf("schema: unknown entity type %q", typ)
	}
	return s.build(n, def, id, typ)
}

func (s *Schema) build(n *Normalized, def Entity, id, path string) (record.Object, error) {
	ent, ok := n.Entities[def.Type][id]
	if !ok {
		return nil, malformed(path, "dangling reference to %s %q", def.Type, id)
	}

	doc := make(record.Object, len(ent))
	for k, v := range ent {
		if childOf(def, k) == nil {
			doc[k] = record.CloneValue(v)
		}
	}

	for _, c := range def.Children {
		childDef := s.entities[c.Type]
		raw, present := ent[c.Field]
		if c.List {
			if !present {
				return nil, malformed(joinPath(path, c.Field), "required child list missing")
			}
			ids, ok := toIDList(raw)
			if !ok {
				return nil, malformed(joinPath(path, c.Field), "expected a list of ids, got %T", raw)
			}
			items := make([]any, 0, len(ids))
			for i, childID := range ids {
				child, err := s.build(n, childDef, childID, fmt.Sprintf("%s[%d]", joinPath(path, c.Field), i))
				if err != nil {
					return nil, err
				}
				items = append(items, child)
			}
			doc[c.Field] = items
			continue
		}

		// nil is the explicit absent marker for an owned zero-or-one child;
		// the reconstructed document omits the key entirely.
		if !present || raw == nil {
			continue
		}
		childID, ok := raw.(string)
		if !ok {
			return nil, malformed(joinPath(path, c.Field), "expected an id reference, got %T", raw)
		}
		child, err := s.build(n, childDef, childID, joinPath(path, c.Field))
		if err != nil {
			return nil, err
		}
		doc[c.Field] = child
	}

	return doc, nil
}

// toIDList accepts either []string (normalizer output) or []any of strings
// (a state tree reloaded from JSON).
func toIDList(v any) ([]string, bool) {
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
