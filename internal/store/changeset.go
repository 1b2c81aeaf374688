package store

import "github.com/cleanslate/recordflow/internal/record"

// Op is one entity mutation inside a Changeset.
type Op struct {
	Remove bool
	Type   string
	ID     string
	Entity record.Object
}

// Changeset is an ordered batch of entity upserts and removals produced by
// one logical operation (a synthesis pass, a record-update response). It is
// applied atomically: operations whose effects span several collections
// either all land or none do, so a mid-batch failure can never leave the
// tree half-updated.
type Changeset struct {
	Ops []Op
}

// Upsert appends an upsert operation.
func (c *Changeset) Upsert(typ, id string, ent record.Object) {
	c.Ops = append(c.Ops, Op{Type: typ, ID: id, Entity: ent})
}

// Remove appends a removal operation.
func (c *Changeset) Remove(typ, id string) {
	c.Ops = append(c.Ops, Op{Remove: true, Type: typ, ID: id})
}

// Empty reports whether the changeset carries no operations.
func (c *Changeset) Empty() bool { return len(c.Ops) == 0 }

// Apply runs every operation of the changeset against a copy of the state
// and adopts the copy only if all of them succeed. On error the state is
// unchanged.
func (s *State) Apply(cs Changeset) error {
	if cs.Empty() {
		return nil
	}
	next := s.clone()
	for _, op := range cs.Ops {
		var err error
		if op.Remove {
			err = next.Remove(op.Type, op.ID)
		} else {
			err = next.Upsert(op.Type, op.ID, op.Entity)
		}
		if err != nil {
			return err
		}
	}
	s.collections = next.collections
	s.Attorney = next.Attorney
	s.User = next.User
	s.Analysis = next.Analysis
	return nil
}
