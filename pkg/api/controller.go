package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fuel-client/pkg/model"
	"fuel-client/pkg/store"
	"fuel-client/pkg/topology"
)

// Options tunes the development server.
type Options struct {
	// RequireAuth rejects /api/v1 requests without a valid X-Auth-Token.
	RequireAuth bool
	// LegacyHistory reports history records under deployment_graph_task_name,
	// the key older servers used for the task name.
	LegacyHistory bool
	// TokenTTL is the lifetime of issued tokens. Zero means 24h.
	TokenTTL time.Duration
}

// Controller serves the REST surface consumed by the fuel client.
type Controller struct {
	store store.Store
	opts  Options
}

func NewController(st store.Store, opts Options) *Controller {
	if opts.TokenTTL == 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	return &Controller{store: st, opts: opts}
}

// RegisterRoutes wires the HTTP handlers on the provided mux.
func (c *Controller) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("fuel development api"))
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /keystone/v2.0/tokens", c.handleTokens)

	api := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, c.requireToken(h))
	}
	api("GET /api/v1/clusters/{$}", c.handleListClusters)
	api("GET /api/v1/clusters/{id}/{$}", c.handleGetCluster)
	api("GET /api/v1/clusters/{id}/deployment_tasks/{$}", c.handleDeploymentTasks)
	api("GET /api/v1/clusters/{id}/deploy_tasks/graph.gv", c.handleGraph)
	api("PUT /api/v1/clusters/{id}/deploy_tasks/{$}", c.handleDeploy)
	api("GET /api/v1/transactions/{$}", c.handleListTransactions)
	api("GET /api/v1/transactions/{id}/{$}", c.handleGetTransaction)
	api("GET /api/v1/transactions/{id}/deployment_history/{$}", c.handleHistory)
}

func (c *Controller) handleListClusters(w http.ResponseWriter, _ *http.Request) {
	clusters, err := c.store.ListClusters()
	if err != nil {
		c.internalError(w, "failed to list clusters", err)
		return
	}
	if clusters == nil {
		clusters = []model.Cluster{}
	}
	writeJSON(w, http.StatusOK, clusters)
}

func (c *Controller) handleGetCluster(w http.ResponseWriter, r *http.Request) {
	cluster, ok := c.cluster(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, cluster)
}

// handleDeploymentTasks returns the catalog in dependency order, bounded by the
// optional start and end tasks.
func (c *Controller) handleDeploymentTasks(w http.ResponseWriter, r *http.Request) {
	g, ok := c.graph(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	tasks, err := g.Range(q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (c *Controller) handleGraph(w http.ResponseWriter, r *http.Request) {
	g, ok := c.graph(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := topology.Filter{
		Tasks:      splitList(q.Get("tasks")),
		Skip:       splitList(q.Get("skip")),
		Start:      q.Get("start"),
		End:        q.Get("end"),
		ParentsFor: q.Get("parents_for"),
		Remove:     splitList(q.Get("remove")),
	}
	dot, err := g.RenderDOT("G", filter)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(dot))
}

// cluster resolves the {id} path value, writing the error response itself.
func (c *Controller) cluster(w http.ResponseWriter, r *http.Request) (model.Cluster, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid cluster id %q", r.PathValue("id")))
		return model.Cluster{}, false
	}
	cluster, ok, err := c.store.GetCluster(id)
	if err != nil {
		c.internalError(w, "failed to load cluster", err)
		return model.Cluster{}, false
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Cluster with id %d not found", id))
		return model.Cluster{}, false
	}
	return cluster, true
}

func (c *Controller) graph(w http.ResponseWriter, r *http.Request) (*topology.Graph, bool) {
	cluster, ok := c.cluster(w, r)
	if !ok {
		return nil, false
	}
	tasks, err := c.store.ListDeploymentTasks(cluster.ID)
	if err != nil {
		c.internalError(w, "failed to list deployment tasks", err)
		return nil, false
	}
	return topology.New(tasks), true
}

func (c *Controller) internalError(w http.ResponseWriter, msg string, err error) {
	log.Printf("%s: %v", msg, err)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, msg)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

// writeError answers with the {"message": ...} body clients read errors from.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// splitList parses a comma separated query value, dropping empty items.
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
