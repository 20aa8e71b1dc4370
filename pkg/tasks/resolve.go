package tasks

import (
	"context"

	"fuel-client/pkg/model"
)

// Resolve computes the ordered task names to run: the ids of tasks, then every
// include name not already present (in include order), minus every skip name.
// Skip is applied last, so a task both included and skipped is not run.
// Duplicates are dropped, first occurrence kept.
func Resolve(tasks []model.TaskDescriptor, include, skip []string) []string {
	seen := make(map[string]bool, len(tasks)+len(include))
	ordered := make([]string, 0, len(tasks)+len(include))
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		ordered = append(ordered, name)
	}
	for _, t := range tasks {
		add(t.ID)
	}
	for _, name := range include {
		add(name)
	}
	if len(skip) == 0 {
		return ordered
	}
	skipped := make(map[string]bool, len(skip))
	for _, name := range skip {
		skipped[name] = true
	}
	out := ordered[:0]
	for _, name := range ordered {
		if !skipped[name] {
			out = append(out, name)
		}
	}
	return out
}

// Selection is the task range requested on one command line.
type Selection struct {
	Start   string
	End     string
	Include []string
	Skip    []string
}

// Ranged reports whether the selection needs the catalog, i.e. start, end or
// skip was given.
func (s Selection) Ranged() bool {
	return s.Start != "" || s.End != "" || len(s.Skip) > 0
}

// Empty reports whether no selection flag was given at all.
func (s Selection) Empty() bool {
	return !s.Ranged() && len(s.Include) == 0
}

// Run fetches the catalog bounded by Start/End and resolves Include/Skip on it.
func (s Selection) Run(ctx context.Context, catalog *Catalog, envID int) ([]string, error) {
	descriptors, err := catalog.Fetch(ctx, envID, s.Start, s.End)
	if err != nil {
		return nil, err
	}
	return Resolve(descriptors, s.Include, s.Skip), nil
}
