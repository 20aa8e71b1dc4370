package model

// Field names of a deployment history record.
const (
	FieldTaskName       = "task_name"
	FieldLegacyTaskName = "deployment_graph_task_name"
	FieldNodeID         = "node_id"
	FieldStatus         = "status"
	FieldTimeStart      = "time_start"
	FieldTimeEnd        = "time_end"
	FieldSummary        = "summary"
)

// HistoryRecord is one (task, node) execution outcome as sent over the wire.
// Besides the fixed fields it carries the task's graph metadata (type,
// parameters, role, version, ...), which differs per task type.
type HistoryRecord map[string]any

// TaskName returns the record's task name, honoring the legacy key used by
// older servers.
func (r HistoryRecord) TaskName() (string, bool) {
	if v, ok := r[FieldTaskName]; ok {
		s, ok := v.(string)
		return s, ok
	}
	if v, ok := r[FieldLegacyTaskName]; ok {
		s, ok := v.(string)
		return s, ok
	}
	return "", false
}

// Clone returns a shallow copy of the record.
func (r HistoryRecord) Clone() HistoryRecord {
	out := make(HistoryRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
