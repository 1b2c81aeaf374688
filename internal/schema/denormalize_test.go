package schema

import (
	"errors"
	"reflect"
	"testing"

	"github.com/cleanslate/recordflow/internal/record"
)

func TestRoundTrip_ReconstructsDocumentExactly(t *testing.T) {
	doc := testRecord()
	sch := Record()

	n, err := sch.Normalize(doc)
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}
	rebuilt, err := sch.Denormalize(n)
	if err != nil {
		t.Fatalf("Denormalize() failed: %v", err)
	}

	if !reflect.DeepEqual(rebuilt, doc) {
		t.Errorf("round trip changed the document:\n got: %v\nwant: %v", rebuilt, doc)
	}
}

func TestRoundTrip_EmptyCollections(t *testing.T) {
	doc := record.Object{"cases": []any{}}
	sch := Record()

	n, err := sch.Normalize(doc)
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}
	rebuilt, err := sch.Denormalize(n)
	if err != nil {
		t.Fatalf("Denormalize() failed: %v", err)
	}
	if !reflect.DeepEqual(rebuilt, doc) {
		t.Errorf("round trip = %v, want %v", rebuilt, doc)
	}
}

func TestDenormalize_AbsentSentenceOmitted(t *testing.T) {
	sch := Record()
	n, err := sch.Normalize(testRecord())
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}

	rebuilt, err := sch.Denormalize(n)
	if err != nil {
		t.Fatalf("Denormalize() failed: %v", err)
	}
	charges := rebuilt["cases"].([]any)[0].(record.Object)["charges"].([]any)
	chargeTwo := charges[1].(record.Object)
	if _, present := chargeTwo["sentence"]; present {
		t.Error("a nil sentence marker must not appear in the rebuilt document")
	}
}

func TestDenormalize_DanglingReferenceFails(t *testing.T) {
	sch := Record()
	n, err := sch.Normalize(testRecord())
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}
	delete(n.Entities[record.TypeCharges], "ch-2")

	_, err = sch.Denormalize(n)
	if err == nil {
		t.Fatal("a dangling charge reference must fail denormalization")
	}
	var me *MalformedRecordError
	if !errors.As(err, &me) {
		t.Fatalf("error = %v, want MalformedRecordError", err)
	}
	if me.Path != "cases[0].charges[1]" {
		t.Errorf("Path = %q, want %q", me.Path, "cases[0].charges[1]")
	}
}

func TestDenormalizeFrom_SingleCase(t *testing.T) {
	sch := Record()
	n, err := sch.Normalize(testRecord())
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}

	doc, err := sch.DenormalizeFrom(n, record.TypeCases, "CP-51-CR-0000001")
	if err != nil {
		t.Fatalf("DenormalizeFrom() failed: %v", err)
	}
	if doc["status"] != "Closed" {
		t.Errorf("status = %v", doc["status"])
	}
	charges := doc["charges"].([]any)
	if len(charges) != 2 {
		t.Fatalf("charges = %d, want 2", len(charges))
	}
	sentence, ok := charges[0].(record.Object)["sentence"].(record.Object)
	if !ok || sentence["id"] != "s-1" {
		t.Errorf("embedded sentence = %v", charges[0].(record.Object)["sentence"])
	}
}

func TestDenormalize_AcceptsJSONReloadedIDLists(t *testing.T) {
	sch := Record()
	n, err := sch.Normalize(testRecord())
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}

	// A state tree reloaded from JSON holds []any instead of []string.
	caseOne := n.Entities[record.TypeCases]["CP-51-CR-0000001"]
	caseOne["charges"] = []any{"ch-1", "ch-2"}

	if _, err := sch.Denormalize(n); err != nil {
		t.Fatalf("Denormalize() should accept []any id lists: %v", err)
	}
}
