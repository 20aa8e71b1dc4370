package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fuel-client/pkg/model"
	"fuel-client/pkg/serializer"
)

// ErrMissingTaskName marks a record that carries no task name under either the
// current or the legacy key. The input is unusable; no default is guessed.
var ErrMissingTaskName = errors.New("deployment history record has no task_name")

// Record is one raw history record as returned by the server.
type Record = model.HistoryRecord

// HistoryFields are the per-node fields kept on every output row. Any other
// field of a record describes the task itself and goes to its Parameters.
var HistoryFields = []string{
	model.FieldTaskName,
	model.FieldNodeID,
	model.FieldStatus,
	model.FieldTimeStart,
	model.FieldTimeEnd,
}

const (
	notStarted = "not started"
	notEnded   = "not ended"
)

// Options selects how records are reshaped.
type Options struct {
	// TaskNames keeps only records of these tasks when non-empty.
	TaskNames []string
	// ShowParameters groups rows per task with the task's parameters.
	ShowParameters bool
	// IncludeSummary adds the summary field to every row.
	IncludeSummary bool
}

// Row is the per-node part of a history record. Field values are kept as the
// server sent them.
type Row struct {
	TaskName  string
	NodeID    any
	Status    any
	TimeStart any
	TimeEnd   any
	Summary   any

	withSummary bool
}

// Map returns the row as a record. Summary is present (possibly nil) exactly
// when it was requested.
func (r Row) Map() map[string]any {
	out := map[string]any{
		model.FieldTaskName:  r.TaskName,
		model.FieldNodeID:    r.NodeID,
		model.FieldStatus:    r.Status,
		model.FieldTimeStart: r.TimeStart,
		model.FieldTimeEnd:   r.TimeEnd,
	}
	if r.withSummary {
		out[model.FieldSummary] = r.Summary
	}
	return out
}

// statusLine renders "<node_id> - <status> - <start> - <end>".
func (r Row) statusLine() string {
	start := truncateSeconds(text(r.TimeStart))
	if start == "" {
		start = notStarted
	}
	end := truncateSeconds(text(r.TimeEnd))
	if end == "" {
		end = notEnded
	}
	return fmt.Sprintf("%s - %s - %s - %s", text(r.NodeID), text(r.Status), start, end)
}

// Parameters is the static description of a deployment graph task gathered
// from the non-history fields of its records.
type Parameters map[string]any

// TaskRecord is one task with its parameters and per-node statuses.
type TaskRecord struct {
	TaskName       string `json:"task_name" yaml:"task_name"`
	TaskParameters string `json:"task_parameters" yaml:"task_parameters"`
	StatusByNode   string `json:"status_by_node" yaml:"status_by_node"`
}

// Map returns the task record as a record.
func (t TaskRecord) Map() map[string]any {
	return map[string]any{
		"task_name":       t.TaskName,
		"task_parameters": t.TaskParameters,
		"status_by_node":  t.StatusByNode,
	}
}

// Result is the outcome of Reshape.
type Result struct {
	// Rows holds one row per surviving record, in input order.
	Rows []Row
	// Parameters holds each task's parameters keyed by task name.
	Parameters map[string]Parameters
	// Tasks is filled when Options.ShowParameters is set, sorted by name.
	Tasks []TaskRecord

	opts Options
}

// Records returns the output records: grouped task records when parameters
// were requested, flat rows otherwise. All records share the same keys.
func (r *Result) Records() []map[string]any {
	if r.opts.ShowParameters {
		out := make([]map[string]any, 0, len(r.Tasks))
		for _, t := range r.Tasks {
			out = append(out, t.Map())
		}
		return out
	}
	out := make([]map[string]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, row.Map())
	}
	return out
}

// Columns returns the column allow-list matching Records.
func (r *Result) Columns() []string {
	if r.opts.ShowParameters {
		return []string{"task_name", "task_parameters", "status_by_node"}
	}
	cols := append([]string{}, HistoryFields...)
	if r.opts.IncludeSummary {
		cols = append(cols, model.FieldSummary)
	}
	return cols
}

// Reshape normalizes, filters and splits raw records, and groups them per task
// when opts.ShowParameters is set. The input records are not modified.
func Reshape(records []Record, opts Options) (*Result, error) {
	wanted := make(map[string]bool, len(opts.TaskNames))
	for _, name := range opts.TaskNames {
		wanted[name] = true
	}

	res := &Result{
		Rows:       make([]Row, 0, len(records)),
		Parameters: map[string]Parameters{},
		opts:       opts,
	}
	for i, raw := range records {
		rec := normalize(raw)
		name, ok := rec[model.FieldTaskName].(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("record %d: %w", i, ErrMissingTaskName)
		}
		if len(wanted) > 0 && !wanted[name] {
			continue
		}
		row, params := split(rec, opts.IncludeSummary)
		res.Rows = append(res.Rows, row)
		merged, ok := res.Parameters[name]
		if !ok {
			merged = Parameters{}
			res.Parameters[name] = merged
		}
		for k, v := range params {
			merged[k] = v
		}
	}

	if opts.ShowParameters {
		tasks, err := group(res.Rows, res.Parameters)
		if err != nil {
			return nil, err
		}
		res.Tasks = tasks
	}
	return res, nil
}

// normalize copies rec and renames the legacy task name key.
func normalize(rec Record) Record {
	legacy, ok := rec[model.FieldLegacyTaskName]
	if !ok {
		return rec
	}
	out := rec.Clone()
	out[model.FieldTaskName] = legacy
	delete(out, model.FieldLegacyTaskName)
	return out
}

func split(rec Record, withSummary bool) (Row, Parameters) {
	row := Row{
		TaskName:    text(rec[model.FieldTaskName]),
		NodeID:      rec[model.FieldNodeID],
		Status:      rec[model.FieldStatus],
		TimeStart:   rec[model.FieldTimeStart],
		TimeEnd:     rec[model.FieldTimeEnd],
		withSummary: withSummary,
	}
	if withSummary {
		row.Summary = rec[model.FieldSummary]
	}
	params := Parameters{}
	for k, v := range rec {
		if isHistoryField(k) || (withSummary && k == model.FieldSummary) {
			continue
		}
		params[k] = v
	}
	return row, params
}

func isHistoryField(key string) bool {
	for _, f := range HistoryFields {
		if f == key {
			return true
		}
	}
	return false
}

func group(rows []Row, params map[string]Parameters) ([]TaskRecord, error) {
	byTask := map[string][]string{}
	names := make([]string, 0, len(params))
	for _, row := range rows {
		if _, ok := byTask[row.TaskName]; !ok {
			names = append(names, row.TaskName)
		}
		byTask[row.TaskName] = append(byTask[row.TaskName], row.statusLine())
	}
	sort.Strings(names)

	yamlSerializer := serializer.New(serializer.FormatYAML)
	out := make([]TaskRecord, 0, len(names))
	for _, name := range names {
		rendered, err := yamlSerializer.Serialize(map[string]any(params[name]))
		if err != nil {
			return nil, fmt.Errorf("render parameters of %s: %w", name, err)
		}
		out = append(out, TaskRecord{
			TaskName:       name,
			TaskParameters: strings.TrimRight(string(rendered), "\n"),
			StatusByNode:   strings.Join(byTask[name], "\n"),
		})
	}
	return out, nil
}

// truncateSeconds drops the fractional part of a timestamp.
func truncateSeconds(ts string) string {
	if i := strings.Index(ts, "."); i >= 0 {
		return ts[:i]
	}
	return ts
}

func text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprint(val)
	}
}
