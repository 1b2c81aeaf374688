package record

import (
	"encoding/json"
	"testing"
)

func TestClone_Independence(t *testing.T) {
	original := Object{
		"name": "Jane Doe",
		"address": Object{
			"line_one": "1234 Main St",
		},
		"aliases": []any{"JD"},
		"ids":     []string{"a", "b"},
	}

	clone := original.Clone()
	clone["name"] = "changed"
	clone["address"].(Object)["line_one"] = "changed"
	clone["aliases"].([]any)[0] = "changed"
	clone["ids"].([]string)[0] = "changed"

	if original["name"] != "Jane Doe" {
		t.Errorf("clone mutation leaked into original name: %v", original["name"])
	}
	if original["address"].(Object)["line_one"] != "1234 Main St" {
		t.Errorf("clone mutation leaked into nested object: %v", original["address"])
	}
	if original["aliases"].([]any)[0] != "JD" {
		t.Errorf("clone mutation leaked into list: %v", original["aliases"])
	}
	if original["ids"].([]string)[0] != "a" {
		t.Errorf("clone mutation leaked into id list: %v", original["ids"])
	}
}

func TestClone_Nil(t *testing.T) {
	var o Object
	if o.Clone() != nil {
		t.Error("Clone() of nil should be nil")
	}
}

func TestAsObject(t *testing.T) {
	if _, ok := AsObject(Object{"a": 1}); !ok {
		t.Error("AsObject should accept Object")
	}
	if _, ok := AsObject(map[string]any{"a": 1}); !ok {
		t.Error("AsObject should accept map[string]any")
	}
	if _, ok := AsObject([]any{}); ok {
		t.Error("AsObject should reject lists")
	}
	if _, ok := AsObject(nil); ok {
		t.Error("AsObject should reject nil")
	}
}

func TestFromJSON_PreservesNumbers(t *testing.T) {
	obj, err := FromJSON([]byte(`{"id": 42, "amount": 10.50}`))
	if err != nil {
		t.Fatalf("FromJSON() failed: %v", err)
	}

	id, ok := obj["id"].(json.Number)
	if !ok {
		t.Fatalf("id decoded as %T, want json.Number", obj["id"])
	}
	if id.String() != "42" {
		t.Errorf("id = %q, want %q", id.String(), "42")
	}
	if amount := obj["amount"].(json.Number); amount.String() != "10.50" {
		t.Errorf("amount = %q, want %q (formatting must survive)", amount.String(), "10.50")
	}
}

func TestStr(t *testing.T) {
	o := Object{"name": "Jane", "count": 3}
	if got := o.Str("name"); got != "Jane" {
		t.Errorf("Str(name) = %q", got)
	}
	if got := o.Str("count"); got != "" {
		t.Errorf("Str(count) = %q, want empty for non-string", got)
	}
	if got := o.Str("missing"); got != "" {
		t.Errorf("Str(missing) = %q, want empty", got)
	}
}
