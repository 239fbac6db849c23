package emit

import (
	"fmt"

	"github.com/joho/godotenv"

	"github.com/honelang/hone/internal/value"
)

// Dotenv renders v as KEY=VALUE lines via godotenv.Marshal (spec.md §6.1
// "dotenv only accepts a flat object of scalar/string values"). Unlike
// JSON/YAML, dotenv carries no order semantics of its own — a .env file is
// read as an unordered set of assignments — so godotenv's own alphabetical
// key ordering does not violate spec.md §8's insertion-order law, which is
// scoped to the Value algebra's own operations, not this format's output
// text.
func Dotenv(v value.Value) (string, error) {
	obj, ok := v.AsObject()
	if !ok {
		return "", fmt.Errorf("dotenv: root value must be an object, got %s", v.Kind())
	}
	flat := map[string]string{}
	for _, k := range obj.Keys() {
		fv, _ := obj.Get(k)
		s, err := dotenvScalar(fv)
		if err != nil {
			return "", fmt.Errorf("dotenv: key %q: %w", k, err)
		}
		flat[k] = s
	}
	return godotenv.Marshal(flat)
}

func dotenvScalar(v value.Value) (string, error) {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		return s, nil
	case value.KindInt:
		return v.Display(), nil
	case value.KindFloat:
		return v.Display(), nil
	case value.KindBool:
		return v.Display(), nil
	case value.KindNull:
		return "", nil
	default:
		return "", fmt.Errorf("expected a scalar value, got %s", v.Kind())
	}
}
