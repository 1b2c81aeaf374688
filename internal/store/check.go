package store

import "fmt"

// Check verifies the store-wide consistency invariants:
//
//   - every ordered id resolves to an entity and appears exactly once,
//   - every entity appears in its collection's order,
//   - every child reference resolves, and no child is claimed by two parents.
//
// Returns the first violation found as an INCONSISTENT_STATE error. Intended
// for tests and for guarding multi-entity operations.
func (s *State) Check() error {
	for _, typ := range s.types {
		c := s.collections[typ]
		seen := make(map[string]bool, len(c.Order))
		for _, id := range c.Order {
			if seen[id] {
				return &Error{Code: ErrCodeInconsistent, EntityType: typ, ID: id, Message: "duplicate id in order"}
			}
			seen[id] = true
			if _, ok := c.Entities[id]; !ok {
				return &Error{Code: ErrCodeInconsistent, EntityType: typ, ID: id, Message: "ordered id has no entity"}
			}
		}
		if len(c.Order) != len(c.Entities) {
			return &Error{Code: ErrCodeInconsistent, EntityType: typ, Message: fmt.Sprintf("order lists %d ids, map holds %d entities", len(c.Order), len(c.Entities))}
		}
	}

	// owners tracks which parent claims each child, per child type.
	owners := make(map[string]map[string]string)
	for _, typ := range s.types {
		def, ok := s.sch.Entity(typ)
		if !ok {
			continue
		}
		for id, ent := range s.collections[typ].Entities {
			for _, ch := range def.Children {
				var refs []string
				if ch.List {
					ids, ok := idList(ent[ch.Field])
					if !ok {
						return &Error{Code: ErrCodeInconsistent, EntityType: typ, ID: id, Message: fmt.Sprintf("child list %q is not an id list", ch.Field)}
					}
					refs = ids
				} else if childID, ok := ent[ch.Field].(string); ok && childID != "" {
					refs = []string{childID}
				}
				dup := make(map[string]bool, len(refs))
				for _, ref := range refs {
					if dup[ref] {
						return &Error{Code: ErrCodeInconsistent, EntityType: ch.Type, ID: ref, Message: fmt.Sprintf("referenced twice by %s/%s", typ, id)}
					}
					dup[ref] = true
					if _, ok := s.collections[ch.Type].Entities[ref]; !ok {
						return &Error{Code: ErrCodeInconsistent, EntityType: ch.Type, ID: ref, Message: fmt.Sprintf("referenced by %s/%s but absent", typ, id)}
					}
					if owners[ch.Type] == nil {
						owners[ch.Type] = make(map[string]string)
					}
					owner := typ + "/" + id
					if prev, claimed := owners[ch.Type][ref]; claimed && prev != owner {
						return &Error{Code: ErrCodeInconsistent, EntityType: ch.Type, ID: ref, Message: fmt.Sprintf("claimed by both %s and %s", prev, owner)}
					}
					owners[ch.Type][ref] = owner
				}
			}
		}
	}
	return nil
}
