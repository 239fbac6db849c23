// Package emit implements the Hone value emitters (spec.md §6.1): given a
// final value.Value (or a sequence of named sub-document values), produce
// JSON, pretty JSON, YAML, TOML, or dotenv text.
package emit

import (
	"fmt"
	"strings"

	"github.com/honelang/hone/internal/value"
)

// Format names one of the five output formats (CLI --format, spec.md §6.2).
type Format string

const (
	FormatJSON       Format = "json"
	FormatJSONPretty Format = "json-pretty"
	FormatYAML       Format = "yaml"
	FormatTOML       Format = "toml"
	FormatDotenv     Format = "dotenv"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatJSONPretty, FormatYAML, FormatTOML, FormatDotenv:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown format %q (want json, json-pretty, yaml, toml, or dotenv)", s)
	}
}

// Document pairs a sub-document's optional name with its evaluated value
// (spec.md §3.2 "Sub-document", §6.1 "a sequence of (optional_name, Value)
// pairs").
type Document struct {
	Name  string
	Value value.Value
}

// One renders a single document in the given format.
func One(v value.Value, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return JSON(v)
	case FormatJSONPretty:
		return JSONPretty(v)
	case FormatYAML:
		return YAML(v)
	case FormatTOML:
		return TOML(v)
	case FormatDotenv:
		return Dotenv(v)
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}

// Many renders a sequence of sub-documents: JSON as a single array, YAML as
// `---`-separated documents (spec.md §6.1). TOML and dotenv have no native
// multi-document form, so a multi-document source with those formats
// renders each document in turn separated by a blank line, matching how a
// human would paste several flat files together.
func Many(docs []Document, format Format) (string, error) {
	switch format {
	case FormatJSON, FormatJSONPretty:
		return manyJSON(docs, format == FormatJSONPretty)
	case FormatYAML:
		return YAMLDocuments(docs)
	default:
		var parts []string
		for _, d := range docs {
			s, err := One(d.Value, format)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, "\n"), nil
	}
}

func manyJSON(docs []Document, pretty bool) (string, error) {
	items := make([]value.Value, len(docs))
	for i, d := range docs {
		items[i] = d.Value
	}
	arr := value.ArrayFrom(items)
	if pretty {
		return JSONPretty(arr)
	}
	return JSON(arr)
}
