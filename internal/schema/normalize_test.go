package schema

import (
	"errors"
	"reflect"
	"testing"

	"github.com/cleanslate/recordflow/internal/record"
)

// testRecord builds a two-case record document with nested aliases, charges,
// and one sentence, the shape the backend serves.
func testRecord() record.Object {
	return record.Object{
		"person": record.Object{
			"id":         "p-1",
			"first_name": "Jane",
			"last_name":  "Doe",
			"aliases": []any{
				record.Object{"id": "a-1", "name": "Janie Doe"},
			},
		},
		"cases": []any{
			record.Object{
				"id":     "CP-51-CR-0000001",
				"status": "Closed",
				"charges": []any{
					record.Object{
						"id":          "ch-1",
						"offense":     "Theft",
						"disposition": "Guilty",
						"sentence":    record.Object{"id": "s-1", "type": "Probation"},
					},
					record.Object{
						"id":          "ch-2",
						"offense":     "Trespass",
						"disposition": "Nolle Prossed",
					},
				},
			},
			record.Object{
				"id":      "MD-12-CR-0000002",
				"status":  "Active",
				"charges": []any{},
			},
		},
	}
}

func TestNormalize_FlattensEntities(t *testing.T) {
	n, err := Record().Normalize(testRecord())
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}

	if n.Root != record.RootRecordID {
		t.Errorf("Root = %q, want %q", n.Root, record.RootRecordID)
	}
	counts := map[string]int{
		record.TypeRecord:    1,
		record.TypePerson:    1,
		record.TypeAliases:   1,
		record.TypeCases:     2,
		record.TypeCharges:   2,
		record.TypeSentences: 1,
	}
	for typ, want := range counts {
		if got := len(n.Entities[typ]); got != want {
			t.Errorf("%s: %d entities, want %d", typ, got, want)
		}
	}
}

func TestNormalize_PreservesOrder(t *testing.T) {
	n, err := Record().Normalize(testRecord())
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}

	wantCases := []string{"CP-51-CR-0000001", "MD-12-CR-0000002"}
	if !reflect.DeepEqual(n.Order[record.TypeCases], wantCases) {
		t.Errorf("case order = %v, want %v", n.Order[record.TypeCases], wantCases)
	}
	wantCharges := []string{"ch-1", "ch-2"}
	if !reflect.DeepEqual(n.Order[record.TypeCharges], wantCharges) {
		t.Errorf("charge order = %v, want %v", n.Order[record.TypeCharges], wantCharges)
	}
}

func TestNormalize_ReplacesChildrenWithReferences(t *testing.T) {
	n, err := Record().Normalize(testRecord())
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}

	root := n.Entities[record.TypeRecord][record.RootRecordID]
	if root["person"] != "p-1" {
		t.Errorf("root person ref = %v, want %q", root["person"], "p-1")
	}
	caseOne := n.Entities[record.TypeCases]["CP-51-CR-0000001"]
	if !reflect.DeepEqual(caseOne["charges"], []string{"ch-1", "ch-2"}) {
		t.Errorf("case charges = %v, want id references", caseOne["charges"])
	}
	if caseOne["status"] != "Closed" {
		t.Errorf("non-child field lost: status = %v", caseOne["status"])
	}
	if n.Entities[record.TypeCharges]["ch-1"]["sentence"] != "s-1" {
		t.Errorf("charge sentence ref = %v", n.Entities[record.TypeCharges]["ch-1"]["sentence"])
	}
}

func TestNormalize_AbsentSentenceBecomesNilMarker(t *testing.T) {
	n, err := Record().Normalize(testRecord())
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}

	chargeTwo := n.Entities[record.TypeCharges]["ch-2"]
	v, present := chargeTwo["sentence"]
	if !present {
		t.Fatal("absent sentence must be recorded as an explicit nil marker")
	}
	if v != nil {
		t.Errorf("sentence marker = %v, want nil", v)
	}
}

func TestNormalize_MissingPersonBecomesNilMarker(t *testing.T) {
	n, err := Record().Normalize(record.Object{"cases": []any{}})
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}
	root := n.Entities[record.TypeRecord][record.RootRecordID]
	if v, present := root["person"]; !present || v != nil {
		t.Errorf("missing person should normalize to a nil marker, got (%v, %v)", v, present)
	}
}

func TestNormalize_NumericIDsCanonicalize(t *testing.T) {
	doc := record.Object{
		"person": record.Object{"id": 7, "aliases": []any{}},
		"cases":  []any{},
	}
	n, err := Record().Normalize(doc)
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}
	if _, ok := n.Entities[record.TypePerson]["7"]; !ok {
		t.Errorf("numeric id should canonicalize to %q, have %v", "7", n.Order[record.TypePerson])
	}
}

func TestNormalize_MissingCaseListFails(t *testing.T) {
	_, err := Record().Normalize(record.Object{
		"person": record.Object{"id": "p-1", "aliases": []any{}},
	})
	if err == nil {
		t.Fatal("record without a case list must be rejected")
	}
	if !IsMalformed(err) {
		t.Fatalf("error = %v, want MalformedRecordError", err)
	}
	var me *MalformedRecordError
	errors.As(err, &me)
	if me.Path != "cases" {
		t.Errorf("Path = %q, want %q", me.Path, "cases")
	}
}

func TestNormalize_MalformedChargeReportsPath(t *testing.T) {
	doc := record.Object{
		"cases": []any{
			record.Object{"id": "c-1", "charges": []any{}},
			record.Object{
				"id": "c-2",
				"charges": []any{
					record.Object{"offense": "Theft"}, // no id
				},
			},
		},
	}
	_, err := Record().Normalize(doc)
	if err == nil {
		t.Fatal("charge without an id must be rejected")
	}
	var me *MalformedRecordError
	if !errors.As(err, &me) {
		t.Fatalf("error = %v, want MalformedRecordError", err)
	}
	if me.Path != "cases[1].charges[0]" {
		t.Errorf("Path = %q, want %q", me.Path, "cases[1].charges[0]")
	}
}

func TestNormalize_SharedChildRejected(t *testing.T) {
	shared := record.Object{"id": "ch-1", "offense": "Theft"}
	doc := record.Object{
		"cases": []any{
			record.Object{"id": "c-1", "charges": []any{shared}},
			record.Object{"id": "c-2", "charges": []any{shared}},
		},
	}
	_, err := Record().Normalize(doc)
	if err == nil {
		t.Fatal("a charge under two cases must be rejected, not merged")
	}
	if !IsMalformed(err) {
		t.Fatalf("error = %v, want MalformedRecordError", err)
	}
}

func TestNormalize_ListOfWrongShapeFails(t *testing.T) {
	doc := record.Object{
		"cases": []any{"not-an-object"},
	}
	_, err := Record().Normalize(doc)
	if !IsMalformed(err) {
		t.Fatalf("error = %v, want MalformedRecordError", err)
	}
}
