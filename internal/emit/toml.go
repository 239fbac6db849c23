package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/honelang/hone/internal/value"
)

// TOML renders v as TOML text. No TOML library appears anywhere in the
// retrieval pack this implementation was grounded on (see DESIGN.md), so
// this emitter is hand-written against the standard library's string
// formatting only — the one standard-library-only component in
// internal/emit.
//
// TOML has no native nested-object-as-inline-value syntax for the general
// case, so this emitter flattens the tree into `[table.path]` headers the
// way a hand-authored TOML file would, rejecting any value TOML cannot
// represent (arrays of tables are not supported; only scalar and flat
// array values appear under a table header, per spec.md §6.1 "rejects
// values whose shape TOML cannot represent").
func TOML(v value.Value) (string, error) {
	obj, ok := v.AsObject()
	if !ok {
		return "", fmt.Errorf("toml: root value must be an object, got %s", v.Kind())
	}
	var b strings.Builder
	if err := writeTOMLTable(&b, obj, nil); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeTOMLTable(b *strings.Builder, obj *value.Object, path []string) error {
	var scalarKeys, tableKeys []string
	for _, k := range obj.Keys() {
		fv, _ := obj.Get(k)
		if fv.Kind() == value.KindObject {
			tableKeys = append(tableKeys, k)
		} else {
			scalarKeys = append(scalarKeys, k)
		}
	}

	for _, k := range scalarKeys {
		fv, _ := obj.Get(k)
		rendered, err := tomlScalar(fv)
		if err != nil {
			return fmt.Errorf("toml: key %q: %w", strings.Join(append(path, k), "."), err)
		}
		fmt.Fprintf(b, "%s = %s\n", tomlKey(k), rendered)
	}

	for _, k := range tableKeys {
		fv, _ := obj.Get(k)
		childObj, _ := fv.AsObject()
		childPath := append(append([]string(nil), path...), k)
		if childObj.Len() == 0 {
			fmt.Fprintf(b, "\n[%s]\n", tomlKeyPath(childPath))
			continue
		}
		fmt.Fprintf(b, "\n[%s]\n", tomlKeyPath(childPath))
		if err := writeTOMLTable(b, childObj, childPath); err != nil {
			return err
		}
	}
	return nil
}

func tomlKeyPath(path []string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = tomlKey(p)
	}
	return strings.Join(parts, ".")
}

func tomlKey(k string) string {
	if isBareTOMLKey(k) {
		return k
	}
	return strconv.Quote(k)
}

func isBareTOMLKey(k string) bool {
	if k == "" {
		return false
	}
	for _, r := range k {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			return false
		}
	}
	return true
}

func tomlScalar(v value.Value) (string, error) {
	switch v.Kind() {
	case value.KindNull:
		return "", fmt.Errorf("TOML has no null type")
	case value.KindBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b), nil
	case value.KindInt:
		i, _ := v.AsInt()
		return strconv.FormatInt(i, 10), nil
	case value.KindFloat:
		f, _ := v.AsFloat()
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case value.KindString:
		s, _ := v.AsString()
		return strconv.Quote(s), nil
	case value.KindArray:
		arr, _ := v.AsArray()
		parts := make([]string, len(arr))
		for i, item := range arr {
			if item.Kind() == value.KindObject {
				return "", fmt.Errorf("array of tables is not supported")
			}
			rendered, err := tomlScalar(item)
			if err != nil {
				return "", err
			}
			parts[i] = rendered
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	default:
		return "", fmt.Errorf("TOML cannot represent a %s value", v.Kind())
	}
}
