package model

// TaskDescriptor is one step of an environment's deployment graph as returned by
// the deployment_tasks endpoint. The server returns them in plan order.
type TaskDescriptor struct {
	ID          string         `json:"id" yaml:"id"`
	Type        string         `json:"type,omitempty" yaml:"type,omitempty"` // puppet/shell/group/stage/skipped/...
	Version     string         `json:"version,omitempty" yaml:"version,omitempty"`
	Roles       []string       `json:"roles,omitempty" yaml:"roles,omitempty"`
	Groups      []string       `json:"groups,omitempty" yaml:"groups,omitempty"`
	Requires    []string       `json:"requires,omitempty" yaml:"requires,omitempty"`
	RequiredFor []string       `json:"required_for,omitempty" yaml:"required_for,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// TaskIDs returns the identifiers of tasks in their original order.
func TaskIDs(tasks []TaskDescriptor) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}
