package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// Field is one named string attribute.
type Field struct {
	Name  string
	Value string
}

// Fields is an insertion-ordered, case-insensitive field mapping.
// The zero value is an empty mapping ready for use.
type Fields struct {
	order   []string         // folded keys
	entries map[string]Field // folded key -> field
}

// A cases.Caser keeps state between calls and must not be shared.
var folders = sync.Pool{
	New: func() any {
		c := cases.Fold()
		return &c
	},
}

// FoldName returns the case-folded form used to compare field names.
// It is safe for concurrent use.
func FoldName(name string) string {
	c := folders.Get().(*cases.Caser)
	defer folders.Put(c)
	return c.String(strings.TrimSpace(name))
}

// NewFields builds Fields from name/value pairs.
func NewFields(pairs ...string) Fields {
	var f Fields
	for i := 0; i+1 < len(pairs); i += 2 {
		f.Set(pairs[i], pairs[i+1])
	}
	return f
}

// Set assigns value to name. An existing entry keeps its position and spelling.
func (f *Fields) Set(name, value string) {
	key := FoldName(name)
	if key == "" {
		return
	}
	if f.entries == nil {
		f.entries = make(map[string]Field)
	}
	if existing, ok := f.entries[key]; ok {
		existing.Value = value
		f.entries[key] = existing
		return
	}
	f.order = append(f.order, key)
	f.entries[key] = Field{Name: strings.TrimSpace(name), Value: value}
}

// Get returns the value of name and whether it is present.
func (f Fields) Get(name string) (string, bool) {
	field, ok := f.entries[FoldName(name)]
	return field.Value, ok
}

// Value returns the value of name, or "" when absent.
func (f Fields) Value(name string) string {
	v, _ := f.Get(name)
	return v
}

// Has reports whether name is present.
func (f Fields) Has(name string) bool {
	_, ok := f.entries[FoldName(name)]
	return ok
}

// Len returns the number of fields.
func (f Fields) Len() int {
	return len(f.order)
}

// All returns the fields in order.
func (f Fields) All() []Field {
	out := make([]Field, 0, len(f.order))
	for _, k := range f.order {
		out = append(out, f.entries[k])
	}
	return out
}

// Names returns the field names in order.
func (f Fields) Names() []string {
	out := make([]string, 0, len(f.order))
	for _, k := range f.order {
		out = append(out, f.entries[k].Name)
	}
	return out
}

// Map returns a plain map copy keyed by field name.
func (f Fields) Map() map[string]string {
	out := make(map[string]string, len(f.order))
	for _, k := range f.order {
		e := f.entries[k]
		out[e.Name] = e.Value
	}
	return out
}

// Clone returns an independent copy.
func (f Fields) Clone() Fields {
	var out Fields
	for _, k := range f.order {
		e := f.entries[k]
		out.Set(e.Name, e.Value)
	}
	return out
}

// Merge copies every field of other into f; other wins on conflicts.
func (f *Fields) Merge(other Fields) {
	for _, e := range other.All() {
		f.Set(e.Name, e.Value)
	}
}

// Sort reorders fields by rank (ascending); equal ranks keep their order.
func (f *Fields) Sort(rank func(name string) int) {
	sort.SliceStable(f.order, func(i, j int) bool {
		return rank(f.entries[f.order[i]].Name) < rank(f.entries[f.order[j]].Name)
	})
}

// MarshalJSON writes an object with keys in field order.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range f.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping key order. Scalar values are
// stored as their literal text, null as "".
func (f *Fields) UnmarshalJSON(data []byte) error {
	*f = Fields{}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("fields: expected object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("fields: expected key, got %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		value, err := scalarText(raw)
		if err != nil {
			return fmt.Errorf("fields: %q: %w", key, err)
		}
		f.Set(key, value)
	}
	_, err = dec.Token()
	return err
}

func scalarText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		err := json.Unmarshal(trimmed, &s)
		return s, err
	case '{', '[':
		return "", fmt.Errorf("value must be a scalar")
	}
	if string(trimmed) == "null" {
		return "", nil
	}
	return string(trimmed), nil
}

// UnmarshalYAML reads a mapping keeping key order.
func (f *Fields) UnmarshalYAML(node *yaml.Node) error {
	*f = Fields{}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("fields: line %d: expected mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("fields: line %d: %q must be a scalar", v.Line, k.Value)
		}
		value := v.Value
		if v.Tag == "!!null" {
			value = ""
		}
		f.Set(k.Value, value)
	}
	return nil
}
