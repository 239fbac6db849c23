// Package diff compares two evaluated Hone documents, reporting added,
// removed and modified leaf paths (spec.md §6.2 `diff <file>`). Grounded
// directly on the teacher's core/planfmt/formatter/diff.go, which walks two
// plans step-by-step into an Added/Removed/Modified result and renders it
// with the same red/green/yellow ANSI convention; here the walk is over a
// value.Value tree keyed by dotted path instead of a step index.
package diff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/honelang/hone/internal/value"
)

// Change is one leaf-level difference between two documents.
type Change struct {
	Path     string
	Expected string // formatted old value, "" when the path was added
	Actual   string // formatted new value, "" when the path was removed
}

// Result is the full comparison between two documents (spec.md §6.2).
type Result struct {
	Added    []Change
	Removed  []Change
	Modified []Change
}

// Equal reports whether the comparison found no differences at all.
func (r *Result) Equal() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Modified) == 0
}

// Compare walks expected and actual in lockstep and returns their
// differences, following objects recursively and treating arrays and
// scalars as atomic leaves (an array with one changed element is reported
// as a single Modified change, matching how the teacher's Diff treats a
// step's formatted text as an atomic unit to compare).
func Compare(expected, actual value.Value) *Result {
	r := &Result{}
	walk("", expected, actual, r)
	sortChanges(r.Added)
	sortChanges(r.Removed)
	sortChanges(r.Modified)
	return r
}

func sortChanges(cs []Change) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Path < cs[j].Path })
}

func walk(path string, expected, actual value.Value, r *Result) {
	expObj, expIsObj := expected.AsObject()
	actObj, actIsObj := actual.AsObject()

	if expIsObj && actIsObj {
		keys := map[string]bool{}
		for _, k := range expObj.Keys() {
			keys[k] = true
		}
		for _, k := range actObj.Keys() {
			keys[k] = true
		}
		for k := range keys {
			childPath := k
			if path != "" {
				childPath = path + "." + k
			}
			expV, expOK := expObj.Get(k)
			actV, actOK := actObj.Get(k)
			switch {
			case expOK && !actOK:
				r.Removed = append(r.Removed, Change{Path: childPath, Expected: expV.Display()})
			case !expOK && actOK:
				r.Added = append(r.Added, Change{Path: childPath, Actual: actV.Display()})
			default:
				walk(childPath, expV, actV, r)
			}
		}
		return
	}

	if !value.Equal(expected, actual) {
		r.Modified = append(r.Modified, Change{Path: path, Expected: expected.Display(), Actual: actual.Display()})
	}
}

// Format renders a Result as a human-readable diff, optionally with ANSI
// color, mirroring the teacher's FormatDiff layout (Modified, then Added,
// then Removed sections, each with a colored +/- prefix).
func Format(r *Result, useColor bool) string {
	var b strings.Builder

	red, green, yellow, reset := "", "", "", ""
	if useColor {
		red, green, yellow, reset = "\033[31m", "\033[32m", "\033[33m", "\033[0m"
	}

	if len(r.Modified) > 0 {
		fmt.Fprintf(&b, "%sModified:%s\n", yellow, reset)
		for _, c := range r.Modified {
			fmt.Fprintf(&b, "  %s:\n", c.Path)
			fmt.Fprintf(&b, "    %s- %s%s\n", red, c.Expected, reset)
			fmt.Fprintf(&b, "    %s+ %s%s\n", green, c.Actual, reset)
		}
		fmt.Fprintln(&b)
	}

	if len(r.Added) > 0 {
		fmt.Fprintf(&b, "%sAdded:%s\n", green, reset)
		for _, c := range r.Added {
			fmt.Fprintf(&b, "  %s+ %s: %s%s\n", green, c.Path, c.Actual, reset)
		}
		fmt.Fprintln(&b)
	}

	if len(r.Removed) > 0 {
		fmt.Fprintf(&b, "%sRemoved:%s\n", red, reset)
		for _, c := range r.Removed {
			fmt.Fprintf(&b, "  %s- %s: %s%s\n", red, c.Path, c.Expected, reset)
		}
		fmt.Fprintln(&b)
	}

	if r.Equal() {
		fmt.Fprintln(&b, "No differences found.")
	}

	return b.String()
}
