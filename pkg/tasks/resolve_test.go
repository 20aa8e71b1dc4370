package tasks

import (
	"math/rand"
	"reflect"
	"testing"

	"fuel-client/pkg/model"
)

func descriptors(ids ...string) []model.TaskDescriptor {
	out := make([]model.TaskDescriptor, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.TaskDescriptor{ID: id})
	}
	return out
}

func TestResolve(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		tasks    []model.TaskDescriptor
		include  []string
		skip     []string
		expected []string
	}{
		{
			name:     "identity without include or skip",
			tasks:    descriptors("netconfig", "hiera", "globals"),
			expected: []string{"netconfig", "hiera", "globals"},
		},
		{
			name:     "include appends missing names in include order",
			tasks:    descriptors("netconfig", "hiera"),
			include:  []string{"upload_keys", "hiera", "ntp-client"},
			expected: []string{"netconfig", "hiera", "upload_keys", "ntp-client"},
		},
		{
			name:     "duplicate include names collapse",
			tasks:    descriptors("netconfig"),
			include:  []string{"a", "a", "netconfig", "b", "a"},
			expected: []string{"netconfig", "a", "b"},
		},
		{
			name:     "skip removes and keeps relative order",
			tasks:    descriptors("a", "b", "c", "d"),
			skip:     []string{"c", "a"},
			expected: []string{"b", "d"},
		},
		{
			name:     "skip wins over include",
			tasks:    descriptors("a"),
			include:  []string{"b", "c"},
			skip:     []string{"b"},
			expected: []string{"a", "c"},
		},
		{
			name:     "skip of unknown task is a no-op",
			tasks:    descriptors("a", "b"),
			skip:     []string{"zzz"},
			expected: []string{"a", "b"},
		},
		{
			name:     "empty tasks and no include",
			tasks:    nil,
			skip:     []string{"a"},
			expected: []string{},
		},
		{
			name:     "include only",
			include:  []string{"x", "y"},
			expected: []string{"x", "y"},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Resolve(tc.tasks, tc.include, tc.skip)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Fatalf("Resolve() = %v, expected %v", got, tc.expected)
			}
		})
	}
}

func TestResolveMatchesSetDifference(t *testing.T) {
	t.Parallel()

	names := []string{"a", "b", "c", "d", "e", "f", "g"}
	rng := rand.New(rand.NewSource(42))
	pick := func() []string {
		n := rng.Intn(len(names) + 1)
		out := make([]string, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, names[rng.Intn(len(names))])
		}
		return out
	}

	for i := 0; i < 200; i++ {
		taskIDs, include, skip := pick(), pick(), pick()
		got := Resolve(descriptors(taskIDs...), include, skip)

		skipped := map[string]bool{}
		for _, s := range skip {
			skipped[s] = true
		}
		expected := []string{}
		seen := map[string]bool{}
		for _, name := range append(append([]string{}, taskIDs...), include...) {
			if seen[name] || skipped[name] {
				continue
			}
			seen[name] = true
			expected = append(expected, name)
		}
		if !reflect.DeepEqual(got, expected) {
			t.Fatalf("Resolve(%v, %v, %v) = %v, expected %v", taskIDs, include, skip, got, expected)
		}
	}
}

func TestSelectionFlags(t *testing.T) {
	t.Parallel()

	if !(Selection{}).Empty() {
		t.Fatal("zero selection should be empty")
	}
	if (Selection{Include: []string{"a"}}).Ranged() {
		t.Fatal("include-only selection should not need the catalog")
	}
	if !(Selection{Skip: []string{"a"}}).Ranged() {
		t.Fatal("skip selection should need the catalog")
	}
	if !(Selection{End: "hiera"}).Ranged() {
		t.Fatal("end selection should need the catalog")
	}
}
