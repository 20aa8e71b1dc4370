package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported format names.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"

	DefaultFormat = FormatYAML
)

// Serializer converts values to and from one text format.
type Serializer struct {
	format string
}

// New returns a serializer for name. Unknown names fall back to DefaultFormat.
func New(name string) Serializer {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FormatJSON:
		return Serializer{format: FormatJSON}
	case FormatYAML, "yml":
		return Serializer{format: FormatYAML}
	default:
		return Serializer{format: DefaultFormat}
	}
}

// ForPath picks the serializer from a file extension.
func ForPath(path string) Serializer {
	return New(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Format returns the format name.
func (s Serializer) Format() string { return s.format }

// Extension returns the file extension (without dot) for the format.
func (s Serializer) Extension() string { return s.format }

// Serialize renders v. JSON output is indented with four spaces and YAML output
// uses block style; both end with a newline.
func (s Serializer) Serialize(v any) ([]byte, error) {
	if s.format == FormatJSON {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "    ")
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return buf.Bytes(), nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(plain(v)); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// plain replaces json.Number values nested in maps and slices with int64 or
// float64 so YAML renders them as numbers rather than quoted strings.
func plain(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		if val == nil {
			return v
		}
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = plain(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = plain(item)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() || rv.Type().Key().Kind() != reflect.String || rv.Type().Elem().Kind() != reflect.Interface {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = plain(iter.Value().Interface())
		}
		return out
	case reflect.Slice:
		if k := rv.Type().Elem().Kind(); rv.IsNil() || (k != reflect.Interface && k != reflect.Map) {
			return v
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = plain(rv.Index(i).Interface())
		}
		return out
	}
	return v
}

// Deserialize parses data into v.
func (s Serializer) Deserialize(data []byte, v any) error {
	if s.format == FormatJSON {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("decode json: %w", err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

// WriteFile serializes v into path.
func (s Serializer) WriteFile(path string, v any) error {
	data, err := s.Serialize(v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadFile reads path with the serializer matching its extension.
func ReadFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return ForPath(path).Deserialize(data, v)
}
