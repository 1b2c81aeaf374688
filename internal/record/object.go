package record

import (
	"bytes"
	"encoding/json"
)

// Object is a decoded record document node: a JSON object as produced by
// encoding/json with UseNumber, or assembled programmatically. Entities held
// by the store and documents exchanged with the server are all Objects.
type Object map[string]any

// AsObject converts a decoded JSON value to an Object when it is an object.
// Decoders hand back map[string]any; code that builds documents by hand uses
// Object literals. Both are accepted everywhere a node is expected.
func AsObject(v any) (Object, bool) {
	switch m := v.(type) {
	case Object:
		return m, true
	case map[string]any:
		return Object(m), true
	default:
		return nil, false
	}
}

// Clone returns a deep copy of the object. The copy shares no maps or slices
// with the original, so callers can hand clones across ownership boundaries
// (store inserts, snapshots embedded in petitions) without aliasing.
func (o Object) Clone() Object {
	if o == nil {
		return nil
	}
	out := make(Object, len(o))
	for k, v := range o {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies a single document value.
func CloneValue(v any) any {
	switch val := v.(type) {
	case Object:
		return val.Clone()
	case map[string]any:
		return Object(val).Clone()
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = CloneValue(elem)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		// Scalars (string, bool, json.Number, numeric types) and nil are
		// immutable as used here.
		return val
	}
}

// Str returns the string held under key, or "" when the key is absent or not
// a string. Convenience for reading optional text fields.
func (o Object) Str(key string) string {
	s, _ := o[key].(string)
	return s
}

// FromJSON decodes a JSON document into an Object, preserving numbers as
// json.Number so round-tripped payloads keep their original formatting.
func FromJSON(data []byte) (Object, error) {
	var o Object
	if err := decodeJSON(data, &o); err != nil {
		return nil, err
	}
	return o, nil
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
