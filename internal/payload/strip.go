package payload

import "github.com/cleanslate/recordflow/internal/record"

// Strip returns a copy of a document value with empty values removed: any
// key whose value is an empty string, null, or an object that is empty after
// stripping is omitted entirely. The rule is applied uniformly to the whole
// tree, not per field: "" is the UI's sentinel for an unset optional value
// and must never reach the server, which treats absent and empty
// differently.
//
// Lists are kept even when empty (a case with zero charges is meaningful)
// and their elements are stripped in place, preserving order.
func Strip(v any) any {
	switch val := v.(type) {
	case record.Object:
		return stripObject(val)
	case map[string]any:
		return stripObject(record.Object(val))
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Strip(elem)
		}
		return out
	default:
		return v
	}
}

// StripObject is Strip for a document root.
func StripObject(o record.Object) record.Object {
	return stripObject(o)
}

func stripObject(o record.Object) record.Object {
	out := make(record.Object, len(o))
	for k, v := range o {
		sv := Strip(v)
		if isEmpty(sv) {
			continue
		}
		out[k] = sv
	}
	return out
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case record.Object:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}

// RemoveKeys returns a copy of a document value with the named keys deleted
// at every level. Used to drop client-only flags (the "editing" markers)
// before a document leaves the process.
func RemoveKeys(v any, keys ...string) any {
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	return removeKeys(v, drop)
}

func removeKeys(v any, drop map[string]bool) any {
	switch val := v.(type) {
	case record.Object:
		out := make(record.Object, len(val))
		for k, elem := range val {
			if drop[k] {
				continue
			}
			out[k] = removeKeys(elem, drop)
		}
		return out
	case map[string]any:
		return removeKeys(record.Object(val), drop)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = removeKeys(elem, drop)
		}
		return out
	default:
		return v
	}
}
