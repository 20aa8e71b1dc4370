package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"fuel-client/pkg/model"
	"fuel-client/pkg/store"
)

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	st := store.NewMemoryStore()
	f, err := store.DemoFixture()
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Seed(st, f); err != nil {
		t.Fatal(err)
	}
	mux := http.NewServeMux()
	NewController(st, opts).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, method, url string, body any, header http.Header) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func decodeInto(t *testing.T, data []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
}

func TestListClusters(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, Options{})
	resp, data := doRequest(t, http.MethodGet, srv.URL+"/api/v1/clusters/", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status got = %d, expected 200", resp.StatusCode)
	}
	var clusters []model.Cluster
	decodeInto(t, data, &clusters)
	if len(clusters) != 1 || clusters[0].Name != "demo" {
		t.Fatalf("clusters got = %+v", clusters)
	}
}

func TestMissingClusterMessage(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, Options{})
	resp, data := doRequest(t, http.MethodGet, srv.URL+"/api/v1/clusters/42/", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status got = %d, expected 404", resp.StatusCode)
	}
	var body map[string]string
	decodeInto(t, data, &body)
	if body["message"] != "Cluster with id 42 not found" {
		t.Fatalf("message got = %q", body["message"])
	}
}

func TestDeploymentTasksRange(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, Options{})
	resp, data := doRequest(t, http.MethodGet, srv.URL+"/api/v1/clusters/1/deployment_tasks/?start=hiera&end=netconfig", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status got = %d: %s", resp.StatusCode, data)
	}
	var tasks []model.TaskDescriptor
	decodeInto(t, data, &tasks)
	expected := []string{"hiera", "globals", "netconfig"}
	if got := model.TaskIDs(tasks); !reflect.DeepEqual(got, expected) {
		t.Fatalf("tasks got = %v, expected %v", got, expected)
	}

	resp, _ = doRequest(t, http.MethodGet, srv.URL+"/api/v1/clusters/1/deployment_tasks/?start=nope", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown start status got = %d, expected 400", resp.StatusCode)
	}
}

func TestGraphDOT(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, Options{})
	resp, data := doRequest(t, http.MethodGet, srv.URL+"/api/v1/clusters/1/deploy_tasks/graph.gv?parents_for=hiera&remove=stage", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status got = %d: %s", resp.StatusCode, data)
	}
	dot := string(data)
	if !strings.HasPrefix(dot, "digraph \"G\" {") {
		t.Fatalf("dot header got = %q", dot)
	}
	for _, want := range []string{`"upload_keys" -> "hiera";`, `"hiera";`} {
		if !strings.Contains(dot, want) {
			t.Errorf("dot missing %s:\n%s", want, dot)
		}
	}
	for _, unwanted := range []string{"pre_deployment_start", "globals"} {
		if strings.Contains(dot, unwanted) {
			t.Errorf("dot should not contain %s:\n%s", unwanted, dot)
		}
	}
}

func TestDeployCreatesPendingHistory(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, Options{})
	resp, data := doRequest(t, http.MethodPut, srv.URL+"/api/v1/clusters/1/deploy_tasks/?nodes=3,4", []string{"hiera", "globals"}, nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status got = %d: %s", resp.StatusCode, data)
	}
	var tx model.Transaction
	decodeInto(t, data, &tx)
	if tx.ID != 2 || tx.UUID == "" || tx.Status != model.TransactionPending {
		t.Fatalf("transaction got = %+v", tx)
	}

	resp, data = doRequest(t, http.MethodGet, srv.URL+"/api/v1/transactions/2/deployment_history/?nodes=4", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history status got = %d", resp.StatusCode)
	}
	var records []map[string]any
	decodeInto(t, data, &records)
	if len(records) != 2 {
		t.Fatalf("records got = %v", records)
	}
	if records[0]["task_name"] != "hiera" || records[0]["node_id"] != "4" || records[0]["status"] != "pending" {
		t.Fatalf("first record got = %v", records[0])
	}
	if _, ok := records[0]["summary"]; ok {
		t.Fatalf("summary sent without include_summary: %v", records[0])
	}
	if records[0]["type"] != "puppet" {
		t.Fatalf("task metadata missing: %v", records[0])
	}
}

func TestDeployRejectsUnknownTaskAndMissingNodes(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, Options{})
	cases := []struct {
		name string
		url  string
		body []string
	}{
		{"unknown task", "/api/v1/clusters/1/deploy_tasks/?nodes=1", []string{"nope"}},
		{"no nodes", "/api/v1/clusters/1/deploy_tasks/", []string{"hiera"}},
		{"no tasks", "/api/v1/clusters/1/deploy_tasks/?nodes=1", []string{}},
	}
	for _, tc := range cases {
		resp, data := doRequest(t, http.MethodPut, srv.URL+tc.url, tc.body, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status got = %d, expected 400 (%s)", tc.name, resp.StatusCode, data)
		}
	}
}

func TestHistoryFiltersAndSummary(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, Options{})
	resp, data := doRequest(t, http.MethodGet, srv.URL+"/api/v1/transactions/1/deployment_history/?statuses=ready&tasks_names=upload_keys&include_summary=1", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status got = %d", resp.StatusCode)
	}
	var records []map[string]any
	decodeInto(t, data, &records)
	if len(records) != 2 {
		t.Fatalf("records got = %d, expected 2", len(records))
	}
	for _, r := range records {
		if _, ok := r["summary"]; !ok {
			t.Fatalf("summary missing with include_summary: %v", r)
		}
	}
}

func TestLegacyHistoryKey(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, Options{LegacyHistory: true})
	_, data := doRequest(t, http.MethodGet, srv.URL+"/api/v1/transactions/1/deployment_history/", nil, nil)
	var records []map[string]any
	decodeInto(t, data, &records)
	if len(records) == 0 {
		t.Fatal("no records")
	}
	if _, ok := records[0]["task_name"]; ok {
		t.Fatalf("task_name still present: %v", records[0])
	}
	if records[0]["deployment_graph_task_name"] != "upload_keys" {
		t.Fatalf("legacy key got = %v", records[0]["deployment_graph_task_name"])
	}
}

func TestTokenFlow(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, Options{RequireAuth: true})

	resp, _ := doRequest(t, http.MethodGet, srv.URL+"/api/v1/clusters/", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous status got = %d, expected 401", resp.StatusCode)
	}

	login := func(password string) (*http.Response, []byte) {
		var req tokenRequest
		req.Auth.TenantName = "admin"
		req.Auth.PasswordCredentials.Username = "admin"
		req.Auth.PasswordCredentials.Password = password
		return doRequest(t, http.MethodPost, srv.URL+"/keystone/v2.0/tokens", req, nil)
	}
	if resp, _ := login("wrong"); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password status got = %d, expected 401", resp.StatusCode)
	}
	resp, data := login("admin")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status got = %d: %s", resp.StatusCode, data)
	}
	var tok tokenResponse
	decodeInto(t, data, &tok)
	if tok.Access.Token.ID == "" {
		t.Fatal("empty token id")
	}

	resp, _ = doRequest(t, http.MethodGet, srv.URL+"/api/v1/clusters/", nil, http.Header{"X-Auth-Token": {tok.Access.Token.ID}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authenticated status got = %d, expected 200", resp.StatusCode)
	}
	resp, _ = doRequest(t, http.MethodGet, srv.URL+"/api/v1/clusters/", nil, http.Header{"X-Auth-Token": {"garbage"}})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token status got = %d, expected 401", resp.StatusCode)
	}
}
