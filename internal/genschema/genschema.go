// Package genschema implements the JSON-Schema -> hone schema source
// generator named as an out-of-scope collaborator interface in spec.md §1
// ("the JSON-Schema -> schema source generator ... out of scope ... except
// as interfaces the core exposes"). It validates the input document is a
// well-formed, compilable JSON Schema the same way the teacher validates
// parameter schemas (github.com/santhosh-tekuri/jsonschema/v5,
// core/types/validation.go NewCompiler/Draft2020/AddResource/Compile),
// then walks the raw decoded document to print `schema Name { field:
// constraint ... }` blocks in hone syntax (spec.md §3.3, §4.4).
package genschema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Generate validates the JSON Schema document in src (identified by url for
// $ref/compiler error messages) by compiling it, then renders it as hone
// `schema` declarations rooted at rootName (a top-level `title` takes
// precedence over it). Nested object-typed properties become sibling
// schemas named after the property (or after the property's own `title`),
// emitted before the schema that references them.
func Generate(url string, src []byte, rootName string) (string, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(url, strings.NewReader(string(src))); err != nil {
		return "", fmt.Errorf("genschema: add resource: %w", err)
	}
	if _, err := compiler.Compile(url); err != nil {
		return "", fmt.Errorf("genschema: invalid schema: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(src, &doc); err != nil {
		return "", fmt.Errorf("genschema: decode: %w", err)
	}

	g := &generator{seen: map[string]bool{}}
	g.emit(doc, rootName)
	return g.out.String(), nil
}

type generator struct {
	out  strings.Builder
	seen map[string]bool
}

// emit prints schema `name` for the object schema doc, recursing into any
// nested object-typed property the way the teacher's validator descends
// "properties" recursively (core/types/validation.go measureDepth), but
// building hone source text instead of measuring nesting depth.
func (g *generator) emit(doc map[string]any, name string) {
	if title, ok := doc["title"].(string); ok && title != "" {
		name = pascalCase(title)
	}
	if g.seen[name] {
		return
	}
	g.seen[name] = true

	props, _ := doc["properties"].(map[string]any)
	required := stringSet(doc["required"])

	var nested []map[string]any
	var nestedNames []string

	var body strings.Builder
	fmt.Fprintf(&body, "schema %s {\n", name)
	for _, field := range sortedKeys(props) {
		propAny := props[field]
		prop, _ := propAny.(map[string]any)
		constraint := g.constraintFor(prop)
		if isObjectSchema(prop) {
			childName := pascalCase(fieldOr(prop, "title", field))
			nested = append(nested, prop)
			nestedNames = append(nestedNames, childName)
			constraint = childName
		}
		opt := ""
		if !required[field] {
			opt = "?"
		}
		fmt.Fprintf(&body, "  %s%s: %s\n", field, opt, constraint)
	}
	if additional, ok := doc["additionalProperties"].(bool); ok && additional {
		body.WriteString("  ...\n")
	}
	body.WriteString("}\n\n")

	for i, child := range nested {
		g.emit(child, nestedNames[i])
	}
	g.out.WriteString(body.String())
}

func isObjectSchema(doc map[string]any) bool {
	if doc == nil {
		return false
	}
	t, _ := doc["type"].(string)
	_, hasProps := doc["properties"]
	return t == "object" || hasProps
}

func sortedKeys(m map[string]any) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func stringSet(v any) map[string]bool {
	out := map[string]bool{}
	arr, _ := v.([]any)
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out[s] = true
		}
	}
	return out
}

func pascalCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "")
}

// constraintFor maps a decoded JSON Schema node to a hone primitive
// constraint (spec.md §3.3): int(min,max), string(min_len,max_len) or
// string("regex"), bool, null, array<T>.
func (g *generator) constraintFor(doc map[string]any) string {
	if doc == nil {
		return "null"
	}
	t, _ := doc["type"].(string)
	switch t {
	case "integer":
		return numericConstraint("int", doc)
	case "number":
		return numericConstraint("float", doc)
	case "string":
		return stringConstraint(doc)
	case "boolean":
		return "bool"
	case "null":
		return "null"
	case "array":
		elem := "string"
		if items, ok := doc["items"].(map[string]any); ok {
			elem = g.constraintFor(items)
		}
		return "array<" + elem + ">"
	case "object":
		return pascalCase(fieldOr(doc, "title", "Object"))
	default:
		return "string"
	}
}

func fieldOr(doc map[string]any, key, fallback string) string {
	if s, ok := doc[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func numericConstraint(kind string, doc map[string]any) string {
	minV, hasMin := doc["minimum"]
	maxV, hasMax := doc["maximum"]
	if hasMin && hasMax {
		return fmt.Sprintf("%s(%v,%v)", kind, minV, maxV)
	}
	return kind
}

func stringConstraint(doc map[string]any) string {
	if pattern, ok := doc["pattern"].(string); ok && pattern != "" {
		return fmt.Sprintf("string(%q)", pattern)
	}
	minLen, hasMin := doc["minLength"]
	maxLen, hasMax := doc["maxLength"]
	if hasMin || hasMax {
		if !hasMin {
			minLen = 0
		}
		if !hasMax {
			maxLen = 0
		}
		return fmt.Sprintf("string(%v,%v)", minLen, maxLen)
	}
	return "string"
}
