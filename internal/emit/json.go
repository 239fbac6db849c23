package emit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/sjson"

	"github.com/honelang/hone/internal/value"
)

// JSON renders v as compact JSON (spec.md §6.1). The document is built by
// sequential sjson.SetRawBytes calls in Value-object insertion order: each
// call appends the next key at the end of the growing raw-bytes buffer,
// which mechanically reproduces the order law tested in spec.md §8 without
// ever routing the tree through a Go map.
func JSON(v value.Value) (string, error) {
	raw, err := marshalRaw(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// JSONPretty reformats the same compact bytes with json.Indent, which only
// re-lays-out whitespace around already-ordered raw JSON text — it never
// parses into a Go map, so insertion order survives untouched.
func JSONPretty(v value.Value) (string, error) {
	raw, err := marshalRaw(v)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", fmt.Errorf("json-pretty: %w", err)
	}
	return buf.String(), nil
}

func marshalRaw(v value.Value) ([]byte, error) {
	switch v.Kind() {
	case value.KindNull:
		return []byte("null"), nil
	case value.KindBool:
		b, _ := v.AsBool()
		return []byte(strconv.FormatBool(b)), nil
	case value.KindInt:
		i, _ := v.AsInt()
		return []byte(strconv.FormatInt(i, 10)), nil
	case value.KindFloat:
		f, _ := v.AsFloat()
		return []byte(jsonFloat(f)), nil
	case value.KindString:
		s, _ := v.AsString()
		return json.Marshal(s)
	case value.KindArray:
		arr, _ := v.AsArray()
		doc := []byte("[]")
		var err error
		for _, item := range arr {
			raw, ierr := marshalRaw(item)
			if ierr != nil {
				return nil, ierr
			}
			doc, err = sjson.SetRawBytes(doc, "-1", raw)
			if err != nil {
				return nil, fmt.Errorf("json: appending array element: %w", err)
			}
		}
		return doc, nil
	case value.KindObject:
		obj, _ := v.AsObject()
		doc := []byte("{}")
		var err error
		for _, k := range obj.Keys() {
			fv, _ := obj.Get(k)
			raw, ferr := marshalRaw(fv)
			if ferr != nil {
				return nil, ferr
			}
			doc, err = sjson.SetRawBytes(doc, escapeSjsonKey(k), raw)
			if err != nil {
				return nil, fmt.Errorf("json: setting key %q: %w", k, err)
			}
		}
		return doc, nil
	default:
		return []byte("null"), nil
	}
}

// jsonFloat renders a float so it round-trips through JSON even when the
// value is mathematically an integer (8.0 -> "8.0" would be invalid
// float-vs-int JSON distinction; JSON has one number type, so "8" is
// correct and readers must consult the schema/context for intent).
func jsonFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// escapeSjsonKey backslash-escapes the characters sjson's path syntax
// treats specially so an arbitrary object key is always taken literally,
// never as a path operator.
func escapeSjsonKey(key string) string {
	var b []byte
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch c {
		case '.', '*', '?', '|', '#', '\\':
			b = append(b, '\\', c)
		default:
			b = append(b, c)
		}
	}
	return string(b)
}
