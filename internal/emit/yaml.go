package emit

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/honelang/hone/internal/value"
)

// YAML renders v as a single YAML document, built as a yaml.Node tree
// (spec.md §6.1 "YAML preserves the object insertion order") rather than
// through a Go map, since map encoding in yaml.v3 sorts keys alphabetically
// and would silently violate the order law in spec.md §8.
func YAML(v value.Value) (string, error) {
	node := toYAMLNode(v)
	out, err := yaml.Marshal(node)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// YAMLDocuments renders a sequence of named/unnamed documents as
// `---`-separated YAML (spec.md §6.1 multi-document output). A named
// document's name is not itself part of YAML's document model, so it is
// emitted as a leading comment line, the same convention the teacher's
// planfmt uses for named plan sections.
func YAMLDocuments(docs []Document) (string, error) {
	var b strings.Builder
	for i, d := range docs {
		if i > 0 {
			b.WriteString("---\n")
		}
		if d.Name != "" {
			b.WriteString("# " + d.Name + "\n")
		}
		s, err := YAML(d.Value)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

func toYAMLNode(v value.Value) *yaml.Node {
	switch v.Kind() {
	case value.KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case value.KindBool:
		b, _ := v.AsBool()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}
	case value.KindInt:
		i, _ := v.AsInt()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(i, 10)}
	case value.KindFloat:
		f, _ := v.AsFloat()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(f, 'g', -1, 64)}
	case value.KindString:
		s, _ := v.AsString()
		node := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
		// Quote defensively when the scalar could be misread as another
		// type or contains a colon/leading whitespace (spec.md §9 design
		// note: "implementers should quote defensively").
		if needsQuoting(s) {
			node.Style = yaml.DoubleQuotedStyle
		}
		return node
	case value.KindArray:
		arr, _ := v.AsArray()
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range arr {
			node.Content = append(node.Content, toYAMLNode(item))
		}
		return node
	case value.KindObject:
		obj, _ := v.AsObject()
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range obj.Keys() {
			fv, _ := obj.Get(k)
			keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
			if needsQuoting(k) {
				keyNode.Style = yaml.DoubleQuotedStyle
			}
			node.Content = append(node.Content, keyNode, toYAMLNode(fv))
		}
		return node
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	if strings.ContainsAny(s, ":#{}[]&*!|>'\"%@`") {
		return true
	}
	if s[0] == ' ' || s[len(s)-1] == ' ' {
		return true
	}
	switch s {
	case "true", "false", "null", "~", "yes", "no", "on", "off":
		return true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	return false
}
