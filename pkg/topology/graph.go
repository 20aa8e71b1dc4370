package topology

import (
	"fmt"
	"sort"
	"strings"

	"fuel-client/pkg/model"
)

// Graph is a deployment task graph. Edges come from both requires (dependency
// -> task) and required_for (task -> dependent); references to unknown tasks
// are ignored.
type Graph struct {
	order []string // catalog order
	tasks map[string]model.TaskDescriptor
	succ  map[string][]string
	pred  map[string][]string
}

// New builds a graph from a task catalog. Later duplicates replace earlier ones
// but keep the first position.
func New(tasks []model.TaskDescriptor) *Graph {
	g := &Graph{
		tasks: make(map[string]model.TaskDescriptor, len(tasks)),
		succ:  map[string][]string{},
		pred:  map[string][]string{},
	}
	for _, t := range tasks {
		if _, ok := g.tasks[t.ID]; !ok {
			g.order = append(g.order, t.ID)
		}
		g.tasks[t.ID] = t
	}
	seen := map[[2]string]bool{}
	addEdge := func(from, to string) {
		if from == to || seen[[2]string{from, to}] {
			return
		}
		if _, ok := g.tasks[from]; !ok {
			return
		}
		if _, ok := g.tasks[to]; !ok {
			return
		}
		seen[[2]string{from, to}] = true
		g.succ[from] = append(g.succ[from], to)
		g.pred[to] = append(g.pred[to], from)
	}
	for _, id := range g.order {
		t := g.tasks[id]
		for _, dep := range t.Requires {
			addEdge(dep, id)
		}
		for _, dependent := range t.RequiredFor {
			addEdge(id, dependent)
		}
	}
	return g
}

// Has reports whether the task is part of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.tasks[id]
	return ok
}

// Task returns a task descriptor by id.
func (g *Graph) Task(id string) (model.TaskDescriptor, bool) {
	t, ok := g.tasks[id]
	return t, ok
}

// Sorted returns task ids in dependency order. Ties are broken by catalog
// order so the result is stable.
func (g *Graph) Sorted() ([]string, error) {
	position := make(map[string]int, len(g.order))
	indegree := make(map[string]int, len(g.order))
	for i, id := range g.order {
		position[id] = i
		indegree[id] = len(g.pred[id])
	}
	var ready []string
	for _, id := range g.order {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	out := make([]string, 0, len(g.order))
	for len(ready) > 0 {
		sort.SliceStable(ready, func(i, j int) bool { return position[ready[i]] < position[ready[j]] })
		id := ready[0]
		ready = ready[1:]
		out = append(out, id)
		for _, next := range g.succ[id] {
			indegree[next]--
			if indegree[next] == 0 {
				ready = append(ready, next)
			}
		}
	}
	if len(out) != len(g.order) {
		var stuck []string
		for _, id := range g.order {
			if indegree[id] > 0 {
				stuck = append(stuck, id)
			}
		}
		return nil, fmt.Errorf("deployment graph has a cycle through %s", strings.Join(stuck, ", "))
	}
	return out, nil
}

// Descendants returns id and every task reachable from it.
func (g *Graph) Descendants(id string) map[string]bool {
	return g.walk(id, g.succ)
}

// Ancestors returns id and every task it transitively requires.
func (g *Graph) Ancestors(id string) map[string]bool {
	return g.walk(id, g.pred)
}

func (g *Graph) walk(id string, next map[string][]string) map[string]bool {
	out := map[string]bool{}
	if !g.Has(id) {
		return out
	}
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if out[cur] {
			continue
		}
		out[cur] = true
		stack = append(stack, next[cur]...)
	}
	return out
}

// Range returns the sorted tasks between start and end, both inclusive:
// descendants of start intersected with ancestors of end. An empty bound
// leaves that side open.
func (g *Graph) Range(start, end string) ([]model.TaskDescriptor, error) {
	for _, bound := range []string{start, end} {
		if bound != "" && !g.Has(bound) {
			return nil, fmt.Errorf("task %s is not present in deployment graph", bound)
		}
	}
	sorted, err := g.Sorted()
	if err != nil {
		return nil, err
	}
	var from, to map[string]bool
	if start != "" {
		from = g.Descendants(start)
	}
	if end != "" {
		to = g.Ancestors(end)
	}
	out := make([]model.TaskDescriptor, 0, len(sorted))
	for _, id := range sorted {
		if from != nil && !from[id] {
			continue
		}
		if to != nil && !to[id] {
			continue
		}
		out = append(out, g.tasks[id])
	}
	return out, nil
}

// Edges returns the edges whose ends are both in keep, ordered by source then
// target position in sorted.
func (g *Graph) Edges(sorted []string, keep map[string]bool) [][2]string {
	position := make(map[string]int, len(sorted))
	for i, id := range sorted {
		position[id] = i
	}
	var out [][2]string
	for _, from := range sorted {
		if !keep[from] {
			continue
		}
		targets := append([]string{}, g.succ[from]...)
		sort.SliceStable(targets, func(i, j int) bool { return position[targets[i]] < position[targets[j]] })
		for _, to := range targets {
			if keep[to] {
				out = append(out, [2]string{from, to})
			}
		}
	}
	return out
}
