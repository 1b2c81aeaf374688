package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cleanslate/recordflow/internal/record"
)

// LoadError represents an error that occurred while loading an input
// document.
type LoadError struct {
	Code    string
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
}

// LoadDocument reads a record document from a JSON or YAML file, chosen by
// extension. YAML documents are converted to the same in-memory form JSON
// produces so everything downstream sees one representation.
func LoadDocument(path string) (record.Object, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Path: path, Message: err.Error()}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYAML(path, data)
	default:
		obj, err := record.FromJSON(data)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeBadInput, Path: path, Message: err.Error()}
		}
		return obj, nil
	}
}

func loadYAML(path string, data []byte) (record.Object, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &LoadError{Code: ErrCodeBadInput, Path: path, Message: err.Error()}
	}
	obj, ok := record.AsObject(normalizeYAML(raw))
	if !ok {
		return nil, &LoadError{Code: ErrCodeBadInput, Path: path, Message: "document is not a mapping"}
	}
	return obj, nil
}

// normalizeYAML rewrites yaml.v3's decoded values into the JSON-shaped form
// the rest of the system expects: map[string]any objects and []any lists.
// Non-string mapping keys are rejected by stringifying, matching JSON.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := record.Object{}
		for k, elem := range val {
			out[k] = normalizeYAML(elem)
		}
		return out
	case map[any]any:
		out := record.Object{}
		for k, elem := range val {
			out[fmt.Sprint(k)] = normalizeYAML(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalizeYAML(elem)
		}
		return out
	default:
		return val
	}
}
