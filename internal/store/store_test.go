package store

import (
	"reflect"
	"testing"

	"github.com/cleanslate/recordflow/internal/record"
	"github.com/cleanslate/recordflow/internal/schema"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	return New(schema.Record(), record.TypeSourceRecords, record.TypePetitions)
}

func loadTestRecord(t *testing.T, s *State) {
	t.Helper()
	doc := record.Object{
		"person": record.Object{
			"id":         "p-1",
			"first_name": "Jane",
			"aliases":    []any{record.Object{"id": "a-1", "name": "Janie"}},
		},
		"cases": []any{
			record.Object{
				"id": "c-1",
				"charges": []any{
					record.Object{
						"id":       "ch-1",
						"offense":  "Theft",
						"sentence": record.Object{"id": "s-1", "type": "Probation"},
					},
					record.Object{"id": "ch-2", "offense": "Trespass"},
				},
			},
			record.Object{"id": "c-2", "charges": []any{}},
		},
	}
	n, err := s.Schema().Normalize(doc)
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}
	s.ReplaceRecord(n)
}

func TestUpsert_AppendsAndReplacesInPlace(t *testing.T) {
	s := newTestState(t)

	if err := s.Upsert(record.TypePetitions, "1", record.Object{"v": "first"}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if err := s.Upsert(record.TypePetitions, "2", record.Object{"v": "second"}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if err := s.Upsert(record.TypePetitions, "1", record.Object{"v": "replaced"}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	order, _ := s.Order(record.TypePetitions)
	if !reflect.DeepEqual(order, []string{"1", "2"}) {
		t.Errorf("order = %v, replacement must keep position", order)
	}
	got, _ := s.Get(record.TypePetitions, "1")
	if got["v"] != "replaced" {
		t.Errorf("entity not replaced: %v", got)
	}
}

func TestUpsert_RejectsBadInput(t *testing.T) {
	s := newTestState(t)
	if err := s.Upsert(record.TypePetitions, "", record.Object{}); err == nil {
		t.Error("empty id must be rejected")
	}
	if err := s.Upsert(record.TypePetitions, "1", nil); err == nil {
		t.Error("nil entity must be rejected")
	}
	if err := s.Upsert("unknown", "1", record.Object{}); err == nil {
		t.Error("unknown collection type must be rejected")
	}
}

func TestGet_ReturnsIndependentCopy(t *testing.T) {
	s := newTestState(t)
	if err := s.Upsert(record.TypePetitions, "1", record.Object{"client": record.Object{"name": "Jane"}}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	got, err := s.Get(record.TypePetitions, "1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	got["client"].(record.Object)["name"] = "changed"

	fresh, _ := s.Get(record.TypePetitions, "1")
	if fresh["client"].(record.Object)["name"] != "Jane" {
		t.Error("mutating a Get() result must not reach the store")
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newTestState(t)
	_, err := s.Get(record.TypePetitions, "missing")
	if !IsNotFound(err) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestRemove_CascadesAndPrunes(t *testing.T) {
	s := newTestState(t)
	loadTestRecord(t, s)

	if err := s.Remove(record.TypeCases, "c-1"); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}

	// The case takes its charges and their sentence with it.
	if s.Len(record.TypeCharges) != 0 {
		t.Errorf("charges left: %d", s.Len(record.TypeCharges))
	}
	if s.Len(record.TypeSentences) != 0 {
		t.Errorf("sentences left: %d", s.Len(record.TypeSentences))
	}
	// The root's case list no longer names the removed id.
	root, _ := s.Get(record.TypeRecord, record.RootRecordID)
	cases, _ := idList(root["cases"])
	if !reflect.DeepEqual(cases, []string{"c-2"}) {
		t.Errorf("root case refs = %v, want [c-2]", cases)
	}
	if err := s.Check(); err != nil {
		t.Errorf("state inconsistent after remove: %v", err)
	}
}

func TestRemove_SingleChildReferenceCleared(t *testing.T) {
	s := newTestState(t)
	loadTestRecord(t, s)

	if err := s.Remove(record.TypeSentences, "s-1"); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	charge, _ := s.Get(record.TypeCharges, "ch-1")
	if charge["sentence"] != nil {
		t.Errorf("charge sentence ref = %v, want nil marker", charge["sentence"])
	}
	if err := s.Check(); err != nil {
		t.Errorf("state inconsistent after remove: %v", err)
	}
}

func TestRemove_NotFound(t *testing.T) {
	s := newTestState(t)
	if err := s.Remove(record.TypeCases, "missing"); !IsNotFound(err) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestReplaceRecord_PreservesPetitions(t *testing.T) {
	s := newTestState(t)
	loadTestRecord(t, s)
	if err := s.Upsert(record.TypePetitions, "1", record.Object{"petition_type": "Expungement"}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	n, err := s.Schema().Normalize(record.Object{"cases": []any{}})
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}
	s.ReplaceRecord(n)

	if s.Len(record.TypeCases) != 0 {
		t.Errorf("cases not replaced: %d", s.Len(record.TypeCases))
	}
	if s.Len(record.TypePetitions) != 1 {
		t.Error("a record reload must not disturb drafted petitions")
	}
}

func TestApply_Atomic(t *testing.T) {
	s := newTestState(t)

	var cs Changeset
	cs.Upsert(record.TypePetitions, "1", record.Object{"v": 1})
	cs.Upsert(record.TypePetitions, "", record.Object{}) // invalid, aborts the batch

	if err := s.Apply(cs); err == nil {
		t.Fatal("Apply() should fail on the invalid op")
	}
	if s.Len(record.TypePetitions) != 0 {
		t.Error("a failed changeset must leave the state untouched")
	}
}

func TestApply_AllOrNothingSuccess(t *testing.T) {
	s := newTestState(t)

	var cs Changeset
	cs.Upsert(record.TypePetitions, "1", record.Object{"v": 1})
	cs.Upsert(record.TypePetitions, "2", record.Object{"v": 2})
	if err := s.Apply(cs); err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}

	order, _ := s.Order(record.TypePetitions)
	if !reflect.DeepEqual(order, []string{"1", "2"}) {
		t.Errorf("order = %v", order)
	}
}

func TestCheck_DetectsDanglingReference(t *testing.T) {
	s := newTestState(t)
	loadTestRecord(t, s)

	// Point a case at a charge that does not exist.
	c, _ := s.Get(record.TypeCases, "c-2")
	c["charges"] = []string{"ghost"}
	if err := s.Upsert(record.TypeCases, "c-2", c); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	err := s.Check()
	if err == nil {
		t.Fatal("Check() should flag the dangling reference")
	}
	se, ok := err.(*Error)
	if !ok || se.Code != ErrCodeInconsistent {
		t.Errorf("error = %v, want INCONSISTENT_STATE", err)
	}
}

func TestCheck_DetectsDoubleOwnership(t *testing.T) {
	s := newTestState(t)
	loadTestRecord(t, s)

	// Claim ch-2 from a second case.
	c, _ := s.Get(record.TypeCases, "c-2")
	c["charges"] = []string{"ch-2"}
	if err := s.Upsert(record.TypeCases, "c-2", c); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	if err := s.Check(); err == nil {
		t.Fatal("Check() should flag a child claimed by two parents")
	}
}
