package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"fuel-client/pkg/model"
)

// handleDeploy starts a deployment of the given tasks on the nodes named in
// the nodes query parameter. The body is the JSON list of task names.
func (c *Controller) handleDeploy(w http.ResponseWriter, r *http.Request) {
	g, ok := c.graph(w, r)
	if !ok {
		return
	}
	clusterID, _ := strconv.Atoi(r.PathValue("id"))
	nodes := splitList(r.URL.Query().Get("nodes"))
	if len(nodes) == 0 {
		writeError(w, http.StatusBadRequest, "nodes query parameter is required")
		return
	}
	var names []string
	if err := json.NewDecoder(r.Body).Decode(&names); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload: expected a list of task names")
		return
	}
	if len(names) == 0 {
		writeError(w, http.StatusBadRequest, "no tasks to execute")
		return
	}
	for _, name := range names {
		if !g.Has(name) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("task %s is not present in deployment graph", name))
			return
		}
	}

	tx, err := c.store.CreateTransaction(model.Transaction{
		UUID:    uuid.NewString(),
		Name:    "deployment",
		Status:  model.TransactionPending,
		Cluster: clusterID,
	})
	if err != nil {
		c.internalError(w, "failed to create transaction", err)
		return
	}
	records := make([]model.HistoryRecord, 0, len(names)*len(nodes))
	for _, name := range names {
		task, _ := g.Task(name)
		for _, node := range nodes {
			records = append(records, pendingRecord(task, node))
		}
	}
	if err := c.store.AppendHistory(tx.ID, records); err != nil {
		c.internalError(w, "failed to record deployment history", err)
		return
	}
	log.Printf("transaction %d (%s) started: cluster=%d nodes=%v tasks=%d", tx.ID, tx.UUID, clusterID, nodes, len(names))
	writeJSON(w, http.StatusAccepted, tx)
}

// pendingRecord is the history record of a task that has not run yet on node.
func pendingRecord(task model.TaskDescriptor, node string) model.HistoryRecord {
	rec := model.HistoryRecord{
		model.FieldTaskName:  task.ID,
		model.FieldNodeID:    node,
		model.FieldStatus:    "pending",
		model.FieldTimeStart: nil,
		model.FieldTimeEnd:   nil,
		model.FieldSummary:   nil,
		"type":               task.Type,
	}
	if task.Version != "" {
		rec["version"] = task.Version
	}
	if len(task.Roles) > 0 {
		rec["role"] = task.Roles
	}
	if len(task.Parameters) > 0 {
		rec["parameters"] = task.Parameters
	}
	return rec
}

func (c *Controller) handleListTransactions(w http.ResponseWriter, _ *http.Request) {
	txs, err := c.store.ListTransactions()
	if err != nil {
		c.internalError(w, "failed to list transactions", err)
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (c *Controller) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, ok := c.transaction(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// handleHistory lists the deployment history of a transaction filtered by the
// nodes, statuses and tasks_names query parameters. Summaries are only sent
// when include_summary is set.
func (c *Controller) handleHistory(w http.ResponseWriter, r *http.Request) {
	tx, ok := c.transaction(w, r)
	if !ok {
		return
	}
	records, err := c.store.ListHistory(tx.ID)
	if err != nil {
		c.internalError(w, "failed to list deployment history", err)
		return
	}
	q := r.URL.Query()
	nodes := toSet(splitList(q.Get("nodes")))
	statuses := toSet(splitList(q.Get("statuses")))
	names := toSet(splitList(q.Get("tasks_names")))
	withSummary := truthy(q.Get("include_summary"))

	out := make([]model.HistoryRecord, 0, len(records))
	for _, rec := range records {
		name, _ := rec.TaskName()
		if !matches(names, name) ||
			!matches(nodes, fmt.Sprint(rec[model.FieldNodeID])) ||
			!matches(statuses, fmt.Sprint(rec[model.FieldStatus])) {
			continue
		}
		rec = rec.Clone()
		if !withSummary {
			delete(rec, model.FieldSummary)
		}
		if c.opts.LegacyHistory {
			delete(rec, model.FieldTaskName)
			rec[model.FieldLegacyTaskName] = name
		}
		out = append(out, rec)
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *Controller) transaction(w http.ResponseWriter, r *http.Request) (model.Transaction, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid transaction id %q", r.PathValue("id")))
		return model.Transaction{}, false
	}
	tx, ok, err := c.store.GetTransaction(id)
	if err != nil {
		c.internalError(w, "failed to load transaction", err)
		return model.Transaction{}, false
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Task with id %d not found", id))
		return model.Transaction{}, false
	}
	return tx, true
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, item := range items {
		out[item] = true
	}
	return out
}

// matches reports whether v passes a filter set; an empty set passes all.
func matches(set map[string]bool, v string) bool {
	return len(set) == 0 || set[v]
}

func truthy(v string) bool {
	switch v {
	case "1", "true", "True", "yes", "on":
		return true
	}
	return false
}
