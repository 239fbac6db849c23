// Package depgraph implements the dependency-graph printer named as an
// out-of-scope-except-as-interface collaborator in spec.md §1 ("the
// dependency-graph printer ... out of scope ... except as interfaces the
// core exposes"). Grounded on original_source/src/graph/mod.rs
// (generate_graph/format_dot/format_json/format_text), re-expressed over
// internal/resolver.ResolvedFile instead of walking the filesystem itself:
// the resolver already performs the canonicalizing DFS spec.md §4.5
// describes, so this package only renders the edges it already computed.
package depgraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/honelang/hone/internal/resolver"
)

// Format selects the rendering the original tool offered under `hone
// graph --format`.
type Format int

const (
	FormatDot Format = iota
	FormatJSON
	FormatText
)

// ParseFormat maps a CLI-style format name to a Format, accepting the same
// aliases the original tool did ("graphviz" for dot, "tree" for text).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "dot", "graphviz":
		return FormatDot, nil
	case "json":
		return FormatJSON, nil
	case "text", "tree":
		return FormatText, nil
	default:
		return 0, fmt.Errorf("depgraph: unknown format %q", s)
	}
}

type edgeKind int

const (
	edgeImport edgeKind = iota
	edgeFrom
)

type edge struct {
	from, to string
	kind     edgeKind
}

// Generate renders the dependency graph for the topological order the
// resolver already produced for rootPath. order must come from
// resolver.Resolver.TopoOrder so FromPath/ImportPaths are populated.
func Generate(order []*resolver.ResolvedFile, rootPath string, format Format) (string, error) {
	var edges []edge
	nodes := make([]string, 0, len(order))
	for _, rf := range order {
		nodes = append(nodes, rf.Path)
		if rf.FromPath != "" {
			edges = append(edges, edge{from: rf.Path, to: rf.FromPath, kind: edgeFrom})
		}
		for _, dep := range rf.ImportPaths {
			edges = append(edges, edge{from: rf.Path, to: dep, kind: edgeImport})
		}
	}

	switch format {
	case FormatDot:
		return formatDot(nodes, edges, rootPath), nil
	case FormatJSON:
		return formatJSON(nodes, edges), nil
	case FormatText:
		return formatText(nodes, edges, rootPath), nil
	default:
		return "", fmt.Errorf("depgraph: unknown format %d", format)
	}
}

func nodeID(path string) string {
	r := strings.NewReplacer("/", "_", ".", "_", "-", "_", ":", "_", "\\", "_")
	return "n_" + r.Replace(path)
}

func formatDot(nodes []string, edges []edge, root string) string {
	var b strings.Builder
	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, fontname=\"monospace\", fontsize=10];\n")
	b.WriteString("  edge [fontname=\"monospace\", fontsize=8];\n\n")

	for _, n := range nodes {
		style := ""
		if n == root {
			style = ", style=filled, fillcolor=\"#89b4fa\", fontcolor=\"#1e1e2e\""
		}
		fmt.Fprintf(&b, "  %s [label=%q%s];\n", nodeID(n), n, style)
	}
	b.WriteString("\n")
	for _, e := range edges {
		style := ""
		if e.kind == edgeFrom {
			style = " [style=dashed, label=\"from\"]"
		}
		fmt.Fprintf(&b, "  %s -> %s%s;\n", nodeID(e.from), nodeID(e.to), style)
	}
	b.WriteString("}\n")
	return b.String()
}

func formatJSON(nodes []string, edges []edge) string {
	var b strings.Builder
	b.WriteString("{\n  \"nodes\": [\n")
	for i, n := range nodes {
		fmt.Fprintf(&b, "    {\"path\": %q}", n)
		if i < len(nodes)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("  ],\n  \"edges\": [\n")
	for i, e := range edges {
		kind := "import"
		if e.kind == edgeFrom {
			kind = "from"
		}
		fmt.Fprintf(&b, "    {\"from\": %q, \"to\": %q, \"kind\": %q}", e.from, e.to, kind)
		if i < len(edges)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("  ]\n}\n")
	return b.String()
}

func formatText(nodes []string, edges []edge, root string) string {
	children := map[string][]edge{}
	for _, e := range edges {
		children[e.from] = append(children[e.from], e)
	}
	for from := range children {
		sort.Slice(children[from], func(i, j int) bool {
			return children[from][i].to < children[from][j].to
		})
	}

	var b strings.Builder
	b.WriteString(root)
	b.WriteString("\n")
	visited := map[string]bool{root: true}
	printTree(&b, root, children, "", visited)
	return b.String()
}

func printTree(b *strings.Builder, node string, children map[string][]edge, prefix string, visited map[string]bool) {
	deps := children[node]
	for i, e := range deps {
		isLast := i == len(deps)-1
		connector := "|-- "
		if isLast {
			connector = "\\-- "
		}
		kindLabel := ""
		if e.kind == edgeFrom {
			kindLabel = " (from)"
		}
		circular := ""
		if visited[e.to] {
			circular = " [circular]"
		}
		fmt.Fprintf(b, "%s%s%s%s%s\n", prefix, connector, e.to, kindLabel, circular)
		if !visited[e.to] {
			visited[e.to] = true
			nextPrefix := prefix + "|   "
			if isLast {
				nextPrefix = prefix + "    "
			}
			printTree(b, e.to, children, nextPrefix, visited)
		}
	}
}
