package schema

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cleanslate/recordflow/internal/record"
)

// Normalize flattens a nested record document into per-type entity maps.
//
// The walk is depth-first: at each node the entity's id is read (or the fixed
// root id assigned), children are recursed into, and the nested structures
// are replaced by id references in the stored entity. Child list order is
// preserved in both the reference lists and the per-type Order, so the
// original document order survives round-tripping.
func (s *Schema) Normalize(doc record.Object) (*Normalized, error) {
	w := &walker{
		schema: s,
		out:    s.NewNormalized(),
		seen:   make(map[string]map[string]bool),
	}
	rootID, err := w.walk(s.entities[s.root], doc, "")
	if err != nil {
		return nil, err
	}
	w.out.Root = rootID
	return w.out, nil
}

type walker struct {
	schema *Schema
	out    *Normalized
	// seen tracks ids already claimed by a parent, per type. An id showing
	// up under two parents means the document violates the single-owner
	// invariant and must be rejected, not silently merged.
	seen map[string]map[string]bool
}

func (w *walker) walk(def Entity, node record.Object, path string) (string, error) {
	id, err := w.entityID(def, node, path)
	if err != nil {
		return "", err
	}
	if w.seen[def.Type] == nil {
		w.seen[def.Type] = make(map[string]bool)
	}
	if w.seen[def.Type][id] {
		return "", malformed(path, "%s %q appears under more than one parent", def.Type, id)
	}
	w.seen[def.Type][id] = true

	flat := make(record.Object, len(node))
	for k, v := range node {
		if childOf(def, k) == nil {
			flat[k] = record.CloneValue(v)
		}
	}

	for _, c := range def.Children {
		childDef := w.schema.entities[c.Type]
		raw, present := node[c.Field]
		if c.List {
			if !present || raw == nil {
				return "", malformed(joinPath(path, c.Field), "required child list missing")
			}
			items, ok := raw.([]any)
			if !ok {
				return "", malformed(joinPath(path, c.Field), "expected a list, got %T", raw)
			}
			ids := make([]string, 0, len(items))
			for i, item := range items {
				itemPath := fmt.Sprintf("%s[%d]", joinPath(path, c.Field), i)
				child, ok := record.AsObject(item)
				if !ok {
					return "", malformed(itemPath, "expected an object, got %T", item)
				}
				childID, err := w.walk(childDef, child, itemPath)
				if err != nil {
					return "", err
				}
				ids = append(ids, childID)
			}
			flat[c.Field] = ids
			continue
		}

		// Owned zero-or-one child: absence becomes an explicit nil marker so
		// readers can tell "no sentence" from a reference they failed to
		// resolve.
		if !present || raw == nil {
			flat[c.Field] = nil
			continue
		}
		child, ok := record.AsObject(raw)
		if !ok {
			return "", malformed(joinPath(path, c.Field), "expected an object, got %T", raw)
		}
		childID, err := w.walk(childDef, child, joinPath(path, c.Field))
		if err != nil {
			return "", err
		}
		flat[c.Field] = childID
	}

	w.insert(def.Type, id, flat)
	return id, nil
}

func (w *walker) entityID(def Entity, node record.Object, path string) (string, error) {
	if def.IDField == "" {
		return w.schema.rootID, nil
	}
	raw, ok := node[def.IDField]
	if !ok || raw == nil {
		return "", malformed(path, "missing required id field %q", def.IDField)
	}
	id, ok := formatID(raw)
	if !ok || id == "" {
		return "", malformed(path, "id field %q holds unusable value %v", def.IDField, raw)
	}
	return id, nil
}

// insert records an entity, preserving an existing order position on
// replacement and appending otherwise.
func (w *walker) insert(typ, id string, ent record.Object) {
	if _, exists := w.out.Entities[typ][id]; !exists {
		w.out.Order[typ] = append(w.out.Order[typ], id)
	}
	w.out.Entities[typ][id] = ent
}

// formatID canonicalizes an id value to its string form. Ids are opaque
// strings or numbers on the wire.
func formatID(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, true
	case json.Number:
		return id.String(), true
	case int:
		return strconv.Itoa(id), true
	case int64:
		return strconv.FormatInt(id, 10), true
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	default:
		return "", false
	}
}

func childOf(def Entity, field string) *Child {
	for i := range def.Children {
		if def.Children[i].Field == field {
			return &def.Children[i]
		}
	}
	return nil
}

func joinPath(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}
