package payload

import (
	"encoding/json"
	"testing"

	"github.com/cleanslate/recordflow/internal/record"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	data, err := MarshalCanonical(record.Object{"b": "2", "a": "1", "c": "3"})
	if err != nil {
		t.Fatalf("MarshalCanonical() failed: %v", err)
	}
	want := `{"a":"1","b":"2","c":"3"}`
	if string(data) != want {
		t.Errorf("MarshalCanonical() = %s, want %s", data, want)
	}
}

func TestMarshalCanonical_Nested(t *testing.T) {
	data, err := MarshalCanonical(record.Object{
		"person": record.Object{"id": "p-1", "first_name": "Jane"},
		"cases":  []any{record.Object{"id": "c-1"}},
	})
	if err != nil {
		t.Fatalf("MarshalCanonical() failed: %v", err)
	}
	want := `{"cases":[{"id":"c-1"}],"person":{"first_name":"Jane","id":"p-1"}}`
	if string(data) != want {
		t.Errorf("MarshalCanonical() = %s, want %s", data, want)
	}
}

func TestMarshalCanonical_PreservesNumberFormatting(t *testing.T) {
	data, err := MarshalCanonical(record.Object{"amount": json.Number("10.50"), "count": 3})
	if err != nil {
		t.Fatalf("MarshalCanonical() failed: %v", err)
	}
	want := `{"amount":10.50,"count":3}`
	if string(data) != want {
		t.Errorf("MarshalCanonical() = %s, want %s", data, want)
	}
}

func TestMarshalCanonical_MinimalEscaping(t *testing.T) {
	data, err := MarshalCanonical(record.Object{"note": "a\"b\\c\nd <&>"})
	if err != nil {
		t.Fatalf("MarshalCanonical() failed: %v", err)
	}
	want := `{"note":"a\"b\\c\nd <&>"}`
	if string(data) != want {
		t.Errorf("MarshalCanonical() = %s, want %s", data, want)
	}
}

func TestMarshalCanonical_Deterministic(t *testing.T) {
	doc := record.Object{
		"person": record.Object{"id": "p-1", "aliases": []string{"a", "b"}},
		"cases":  []any{},
		"flag":   true,
		"none":   nil,
	}
	first, err := MarshalCanonical(doc)
	if err != nil {
		t.Fatalf("MarshalCanonical() failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := MarshalCanonical(doc)
		if err != nil {
			t.Fatalf("MarshalCanonical() failed: %v", err)
		}
		if string(again) != string(first) {
			t.Fatalf("output varies between calls:\n%s\n%s", first, again)
		}
	}
}

func TestMarshalCanonical_RejectsUnsupportedType(t *testing.T) {
	if _, err := MarshalCanonical(record.Object{"ch": make(chan int)}); err == nil {
		t.Error("unsupported types must be reported, not silently skipped")
	}
}
