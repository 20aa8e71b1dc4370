package topology

import (
	"fmt"
	"strings"
)

// Filter narrows a rendered graph. Tasks, when set, is the whitelist; Skip and
// Remove (task types) drop nodes; Start/End bound the range; ParentsFor keeps
// only that task and its ancestors.
type Filter struct {
	Tasks      []string
	Skip       []string
	Start      string
	End        string
	ParentsFor string
	Remove     []string
}

// RenderDOT renders the filtered graph in Graphviz DOT.
func (g *Graph) RenderDOT(name string, f Filter) (string, error) {
	if f.ParentsFor != "" && !g.Has(f.ParentsFor) {
		return "", fmt.Errorf("task %s is not present in deployment graph", f.ParentsFor)
	}
	ranged, err := g.Range(f.Start, f.End)
	if err != nil {
		return "", err
	}
	sorted := make([]string, 0, len(ranged))
	for _, t := range ranged {
		sorted = append(sorted, t.ID)
	}

	whitelist := toSet(f.Tasks)
	skip := toSet(f.Skip)
	removeTypes := toSet(f.Remove)
	var parents map[string]bool
	if f.ParentsFor != "" {
		parents = g.Ancestors(f.ParentsFor)
	}

	keep := map[string]bool{}
	for _, id := range sorted {
		t := g.tasks[id]
		switch {
		case len(whitelist) > 0 && !whitelist[id]:
		case skip[id]:
		case removeTypes[t.Type]:
		case parents != nil && !parents[id]:
		default:
			keep[id] = true
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", quote(name))
	b.WriteString("    node [color=\"black\", fontname=\"Helvetica\"];\n")
	for _, id := range sorted {
		if !keep[id] {
			continue
		}
		if attrs := nodeAttrs(g.tasks[id].Type); attrs != "" {
			fmt.Fprintf(&b, "    %s [%s];\n", quote(id), attrs)
		} else {
			fmt.Fprintf(&b, "    %s;\n", quote(id))
		}
	}
	for _, e := range g.Edges(sorted, keep) {
		fmt.Fprintf(&b, "    %s -> %s;\n", quote(e[0]), quote(e[1]))
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func nodeAttrs(taskType string) string {
	switch taskType {
	case "group":
		return "shape=\"box\", style=\"filled\", fillcolor=\"lightgray\""
	case "stage":
		return "shape=\"diamond\""
	case "skipped":
		return "style=\"dotted\""
	default:
		return ""
	}
}

func quote(s string) string {
	return "\"" + strings.ReplaceAll(s, "\"", "\\\"") + "\""
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, item := range items {
		if item != "" {
			out[item] = true
		}
	}
	return out
}
