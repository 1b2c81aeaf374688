package store

import (
	"slices"

	"github.com/cleanslate/recordflow/internal/record"
	"github.com/cleanslate/recordflow/internal/schema"
)

// Collection is one entity type's slice of the state tree: entities by id
// plus the canonical id order.
type Collection struct {
	Entities map[string]record.Object
	Order    []string
}

func newCollection() *Collection {
	return &Collection{Entities: make(map[string]record.Object)}
}

func (c *Collection) clone() *Collection {
	out := &Collection{
		Entities: make(map[string]record.Object, len(c.Entities)),
		Order:    slices.Clone(c.Order),
	}
	for id, ent := range c.Entities {
		out.Entities[id] = ent.Clone()
	}
	return out
}

// State is the full client-side state tree.
//
// State is not safe for concurrent use: the engine is single-threaded and
// every mutation runs to completion before the next operation is observed.
type State struct {
	sch         *schema.Schema
	types       []string
	collections map[string]*Collection

	// Singleton slices.
	Attorney record.Attorney
	User     record.Object
	Analysis record.Object
}

// New builds an empty state tree with a collection per schema entity type
// plus any extra collection types (source records, petitions) that live
// outside the nested record document.
func New(sch *schema.Schema, extraTypes ...string) *State {
	s := &State{
		sch:         sch,
		types:       append(sch.Types(), extraTypes...),
		collections: make(map[string]*Collection),
	}
	for _, typ := range s.types {
		s.collections[typ] = newCollection()
	}
	return s
}

// Schema returns the record schema the state tree was built around.
func (s *State) Schema() *schema.Schema { return s.sch }

// Types returns the collection types in canonical order.
func (s *State) Types() []string { return slices.Clone(s.types) }

func (s *State) collection(typ string) (*Collection, error) {
	c, ok := s.collections[typ]
	if !ok {
		return nil, unknownType(typ)
	}
	return c, nil
}

// Order returns the ordered ids of a collection.
func (s *State) Order(typ string) ([]string, error) {
	c, err := s.collection(typ)
	if err != nil {
		return nil, err
	}
	return slices.Clone(c.Order), nil
}

// Len returns the number of entities in a collection.
func (s *State) Len(typ string) int {
	if c, ok := s.collections[typ]; ok {
		return len(c.Entities)
	}
	return 0
}

// Get returns a copy of an entity. Mutations go through Upsert so the store
// remains the single owner of its entities.
func (s *State) Get(typ, id string) (record.Object, error) {
	c, err := s.collection(typ)
	if err != nil {
		return nil, err
	}
	ent, ok := c.Entities[id]
	if !ok {
		return nil, notFound(typ, id)
	}
	return ent.Clone(), nil
}

// Upsert inserts or replaces an entity. A replaced entity keeps its position
// in the ordered id list; a new one is appended.
func (s *State) Upsert(typ, id string, ent record.Object) error {
	c, err := s.collection(typ)
	if err != nil {
		return err
	}
	if id == "" {
		return &Error{Code: ErrCodeInvalidEntity, EntityType: typ, Message: "empty id"}
	}
	if ent == nil {
		return &Error{Code: ErrCodeInvalidEntity, EntityType: typ, ID: id, Message: "nil entity"}
	}
	if _, exists := c.Entities[id]; !exists {
		c.Order = append(c.Order, id)
	}
	c.Entities[id] = ent.Clone()
	return nil
}

// Remove deletes an entity, cascades to its owned children (a case takes its
// charges and their sentences with it), and prunes every ordered reference
// list that named any removed id.
func (s *State) Remove(typ, id string) error {
	c, err := s.collection(typ)
	if err != nil {
		return err
	}
	if _, ok := c.Entities[id]; !ok {
		return notFound(typ, id)
	}

	removed := make(map[string]map[string]bool)
	s.collect(typ, id, removed)

	for rtyp, ids := range removed {
		rc := s.collections[rtyp]
		for rid := range ids {
			delete(rc.Entities, rid)
		}
		rc.Order = slices.DeleteFunc(rc.Order, func(oid string) bool { return ids[oid] })
	}

	s.pruneReferences(removed)
	return nil
}

// collect gathers the closure of entities owned by (typ, id).
func (s *State) collect(typ, id string, removed map[string]map[string]bool) {
	if removed[typ] == nil {
		removed[typ] = make(map[string]bool)
	}
	if removed[typ][id] {
		return
	}
	removed[typ][id] = true

	def, ok := s.sch.Entity(typ)
	if !ok {
		return
	}
	ent, ok := s.collections[typ].Entities[id]
	if !ok {
		return
	}
	for _, c := range def.Children {
		if c.List {
			if ids, ok := idList(ent[c.Field]); ok {
				for _, childID := range ids {
					s.collect(c.Type, childID, removed)
				}
			}
			continue
		}
		if childID, ok := ent[c.Field].(string); ok && childID != "" {
			s.collect(c.Type, childID, removed)
		}
	}
}

// pruneReferences drops removed ids from the child-reference fields of every
// surviving entity.
func (s *State) pruneReferences(removed map[string]map[string]bool) {
	for _, typ := range s.types {
		def, ok := s.sch.Entity(typ)
		if !ok {
			continue
		}
		for _, c := range def.Children {
			gone := removed[c.Type]
			if len(gone) == 0 {
				continue
			}
			for _, ent := range s.collections[typ].Entities {
				if c.List {
					if ids, ok := idList(ent[c.Field]); ok {
						ent[c.Field] = slices.DeleteFunc(slices.Clone(ids), func(id string) bool { return gone[id] })
					}
					continue
				}
				if childID, ok := ent[c.Field].(string); ok && gone[childID] {
					ent[c.Field] = nil
				}
			}
		}
	}
}

// ReplaceRecord swaps the record-document collections for freshly normalized
// ones. Collections outside the record schema (petitions, source records) are
// untouched: a record fetch must never disturb drafted petitions.
func (s *State) ReplaceRecord(n *schema.Normalized) {
	for _, typ := range s.sch.Types() {
		c := newCollection()
		for id, ent := range n.Entities[typ] {
			c.Entities[id] = ent.Clone()
		}
		c.Order = slices.Clone(n.Order[typ])
		s.collections[typ] = c
	}
}

// Normalized exposes the record-document portion of the tree in the
// normalizer's flat form, for denormalization by projections.
func (s *State) Normalized() *schema.Normalized {
	n := s.sch.NewNormalized()
	n.Root = s.sch.RootID()
	for _, typ := range s.sch.Types() {
		c := s.collections[typ]
		for id, ent := range c.Entities {
			n.Entities[typ][id] = ent.Clone()
		}
		n.Order[typ] = slices.Clone(c.Order)
	}
	return n
}

func (s *State) clone() *State {
	out := &State{
		sch:         s.sch,
		types:       slices.Clone(s.types),
		collections: make(map[string]*Collection, len(s.collections)),
		Attorney:    s.Attorney,
		User:        s.User.Clone(),
		Analysis:    s.Analysis.Clone(),
	}
	for typ, c := range s.collections {
		out.collections[typ] = c.clone()
	}
	return out
}

func idList(v any) ([]string, bool) {
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
