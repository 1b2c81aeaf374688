package schema

import (
	"fmt"

	"github.com/cleanslate/recordflow/internal/record"
)

// Child declares a field of a parent entity that holds nested children.
type Child struct {
	// Field is the key in the parent document holding the nested value.
	Field string
	// Type is the entity type of the children.
	Type string
	// List marks an ordered list of children. A non-list child is owned
	// zero-or-one: absence is recorded as an explicit nil marker, never a
	// dangling id.
	List bool
}

// Entity declares one entity type of a nested document.
type Entity struct {
	// Type is the collection name the entities normalize into.
	Type string
	// IDField is the key holding the entity's identifier. Empty means the
	// entity is the document root and receives the schema's fixed root id.
	IDField string
	// Children lists the fields holding nested child entities.
	Children []Child
}

// Schema is a bidirectional description of a nested document: which entity
// types exist, where their ids live, and how they own each other.
type Schema struct {
	root     string
	rootID   string
	entities map[string]Entity
	types    []string
}

// New builds a Schema rooted at the entity type root. The root entity is
// assigned rootID during normalization when its declaration has no IDField.
// Every child reference must name a declared entity type.
func New(root, rootID string, defs ...Entity) (*Schema, error) {
	s := &Schema{
		root:     root,
		rootID:   rootID,
		entities: make(map[string]Entity, len(defs)),
	}
	for _, def := range defs {
		if def.Type == "" {
			return nil, fmt.Errorf("schema: entity with empty type")
		}
		if _, dup := s.entities[def.Type]; dup {
			return nil, fmt.Errorf("schema: duplicate entity type %q", def.Type)
		}
		if def.IDField == "" && def.Type != root {
			return nil, fmt.Errorf("schema: entity %q has no id field but is not the root", def.Type)
		}
		s.entities[def.Type] = def
		s.types = append(s.types, def.Type)
	}
	if _, ok := s.entities[root]; !ok {
		return nil, fmt.Errorf("schema: root type %q not declared", root)
	}
	for _, def := range defs {
		for _, c := range def.Children {
			if _, ok := s.entities[c.Type]; !ok {
				return nil, fmt.Errorf("schema: entity %q references undeclared child type %q", def.Type, c.Type)
			}
		}
	}
	return s, nil
}

// MustNew is New for statically known schemas.
func MustNew(root, rootID string, defs ...Entity) *Schema {
	s, err := New(root, rootID, defs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Root returns the root entity type.
func (s *Schema) Root() string { return s.root }

// RootID returns the fixed id assigned to the root entity.
func (s *Schema) RootID() string { return s.rootID }

// Types returns the declared entity types in declaration order.
func (s *Schema) Types() []string {
	out := make([]string, len(s.types))
	copy(out, s.types)
	return out
}

// Entity returns the declaration for an entity type.
func (s *Schema) Entity(typ string) (Entity, bool) {
	def, ok := s.entities[typ]
	return def, ok
}

// Record is the schema of a full criminal record document: the root owns the
// applicant and the ordered case list, the applicant owns aliases, cases own
// charges, and each charge owns at most one sentence.
func Record() *Schema {
	return MustNew(record.TypeRecord, record.RootRecordID,
		Entity{
			Type: record.TypeRecord,
			Children: []Child{
				{Field: "person", Type: record.TypePerson},
				{Field: "cases", Type: record.TypeCases, List: true},
			},
		},
		Entity{
			Type:    record.TypePerson,
			IDField: "id",
			Children: []Child{
				{Field: "aliases", Type: record.TypeAliases, List: true},
			},
		},
		Entity{Type: record.TypeAliases, IDField: "id"},
		Entity{
			Type:    record.TypeCases,
			IDField: "id",
			Children: []Child{
				{Field: "charges", Type: record.TypeCharges, List: true},
			},
		},
		Entity{
			Type:    record.TypeCharges,
			IDField: "id",
			Children: []Child{
				{Field: "sentence", Type: record.TypeSentences},
			},
		},
		Entity{Type: record.TypeSentences, IDField: "id"},
	)
}

// Normalized is the flat form of a nested document: per-type entity maps,
// per-type id order matching document order, and the root reference.
type Normalized struct {
	Root     string
	Entities map[string]map[string]record.Object
	Order    map[string][]string
}

// NewNormalized returns an empty Normalized with maps allocated for every
// type of the schema, so consumers always see explicit (possibly empty)
// collections rather than missing keys.
func (s *Schema) NewNormalized() *Normalized {
	n := &Normalized{
		Entities: make(map[string]map[string]record.Object, len(s.types)),
		Order:    make(map[string][]string, len(s.types)),
	}
	for _, typ := range s.types {
		n.Entities[typ] = make(map[string]record.Object)
		n.Order[typ] = nil
	}
	return n
}
