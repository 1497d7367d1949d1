package plan

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

const propertiesKey = "_properties_"

// FieldSpec is one recognized field declared by the plan.
type FieldSpec struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parent      string `json:"parent,omitempty"` // enclosing field in the declared hierarchy
	Depth       int    `json:"depth,omitempty"`  // 0 for top-level fields
}

type properties struct {
	Description string `json:"description" yaml:"description"`
}

type fieldNode struct {
	name     string
	props    properties
	children []fieldNode
}

// fieldTree is the ordered "fields" hierarchy of a plan config.
type fieldTree []fieldNode

func (t *fieldTree) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	nodes, _, err := decodeFieldObject(dec)
	if err != nil {
		return err
	}
	*t = nodes
	return nil
}

func decodeFieldObject(dec *json.Decoder) ([]fieldNode, properties, error) {
	var props properties
	tok, err := dec.Token()
	if err != nil {
		return nil, props, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, props, fmt.Errorf("fields: expected object, got %v", tok)
	}
	var nodes []fieldNode
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, props, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, props, fmt.Errorf("fields: expected key, got %v", keyTok)
		}
		if key == propertiesKey {
			if err := dec.Decode(&props); err != nil {
				return nil, props, fmt.Errorf("fields: %s: %w", key, err)
			}
			continue
		}
		children, childProps, err := decodeFieldObject(dec)
		if err != nil {
			return nil, props, fmt.Errorf("fields: %s: %w", key, err)
		}
		nodes = append(nodes, fieldNode{name: key, props: childProps, children: children})
	}
	if _, err := dec.Token(); err != nil {
		return nil, props, err
	}
	return nodes, props, nil
}

func (t *fieldTree) UnmarshalYAML(node *yaml.Node) error {
	nodes, _, err := decodeFieldNode(node)
	if err != nil {
		return err
	}
	*t = nodes
	return nil
}

func decodeFieldNode(node *yaml.Node) ([]fieldNode, properties, error) {
	var props properties
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, props, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, props, fmt.Errorf("fields: line %d: expected mapping", node.Line)
	}
	var nodes []fieldNode
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		if key == propertiesKey {
			if err := value.Decode(&props); err != nil {
				return nil, props, fmt.Errorf("fields: %s: %w", key, err)
			}
			continue
		}
		children, childProps, err := decodeFieldNode(value)
		if err != nil {
			return nil, props, err
		}
		nodes = append(nodes, fieldNode{name: key, props: childProps, children: children})
	}
	return nodes, props, nil
}

// flatten lists the hierarchy depth first in declaration order.
func (t fieldTree) flatten() []FieldSpec {
	var out []FieldSpec
	var walk func(nodes []fieldNode, parent string, depth int)
	walk = func(nodes []fieldNode, parent string, depth int) {
		for _, n := range nodes {
			out = append(out, FieldSpec{
				Name:        n.name,
				Description: n.props.Description,
				Parent:      parent,
				Depth:       depth,
			})
			walk(n.children, n.name, depth+1)
		}
	}
	walk(t, "", 0)
	return out
}
