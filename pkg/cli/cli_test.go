package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fuel-client/pkg/api"
	"fuel-client/pkg/store"
)

var settingEnv = []string{
	"SERVER_ADDRESS", "SERVER_PORT", "SERVER_SCHEME", "OS_USERNAME", "OS_PASSWORD",
	"OS_TENANT_NAME", "OS_TOKEN", "FUEL_CA_FILE", "FUEL_INSECURE", "HTTP_TIMEOUT",
}

// setup starts a demo server and isolates the client from the caller's
// settings. Tests using it cannot run in parallel.
func setup(t *testing.T) (serverURL string, run func(args ...string) (string, error)) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("FUELCLIENT_CUSTOM_SETTINGS", filepath.Join(dir, "missing.yaml"))
	for _, key := range settingEnv {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	st := store.NewMemoryStore()
	f, err := store.DemoFixture()
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Seed(st, f); err != nil {
		t.Fatal(err)
	}
	mux := http.NewServeMux()
	api.NewController(st, api.Options{}).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	envFile := filepath.Join(dir, "missing.env")
	run = func(args ...string) (string, error) {
		var stdout, stderr bytes.Buffer
		full := append(args, "--server", srv.URL, "--env-file", envFile)
		err := New(&stdout, &stderr).Run(context.Background(), full)
		return stdout.String(), err
	}
	return srv.URL, run
}

func TestEnvList(t *testing.T) {
	_, run := setup(t)
	out, err := run("env")
	if err != nil {
		t.Fatalf("env error = %v", err)
	}
	for _, want := range []string{"release_id", "demo", "operational"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTasksResolveRange(t *testing.T) {
	_, run := setup(t)
	out, err := run("tasks", "--env", "1", "--start", "hiera", "--end", "netconfig", "--skip", "globals")
	if err != nil {
		t.Fatalf("tasks error = %v", err)
	}
	if expected := "hiera\nnetconfig\n"; out != expected {
		t.Fatalf("got = %q, expected %q", out, expected)
	}
}

func TestTasksIncludeOnlyKeepsOrder(t *testing.T) {
	_, run := setup(t)
	out, err := run("tasks", "--env", "1", "--tasks", "netconfig,hiera", "--tasks", "netconfig")
	if err != nil {
		t.Fatalf("tasks error = %v", err)
	}
	if expected := "netconfig\nhiera\n"; out != expected {
		t.Fatalf("got = %q, expected %q", out, expected)
	}
}

func TestTasksJSON(t *testing.T) {
	_, run := setup(t)
	out, err := run("tasks", "--env", "1", "--end", "hiera", "--format", "json")
	if err != nil {
		t.Fatalf("tasks error = %v", err)
	}
	var names []string
	if err := json.Unmarshal([]byte(out), &names); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if strings.Join(names, ",") != "pre_deployment_start,upload_keys,hiera" {
		t.Fatalf("got = %v", names)
	}
}

func TestGraphDownloadEchoesFlags(t *testing.T) {
	_, run := setup(t)
	out, err := run("graph", "--download", "--env", "1", "--skip", "upload_keys", "--parents-for", "hiera")
	if err != nil {
		t.Fatalf("graph error = %v", err)
	}
	header := strings.Join([]string{
		"# params:",
		"# - start: None",
		"# - end: None",
		"# - skip: ['upload_keys']",
		"# - tasks: []",
		"# - parents-for: hiera",
		"# - remove: []",
		"digraph",
	}, "\n")
	if !strings.HasPrefix(out, header) {
		t.Fatalf("got:\n%s\nexpected prefix:\n%s", out, header)
	}
	if !strings.Contains(out, `"hiera";`) || strings.Contains(out, `"upload_keys"`) {
		t.Fatalf("unexpected graph body:\n%s", out)
	}
}

func TestGraphToFile(t *testing.T) {
	_, run := setup(t)
	path := filepath.Join(t.TempDir(), "graph.gv")
	out, err := run("graph", "-d", "--env", "1", "--remove", "stage,group", "-o", path)
	if err != nil {
		t.Fatalf("graph error = %v", err)
	}
	if !strings.Contains(out, path) {
		t.Fatalf("got = %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "# - remove: ['stage', 'group']") {
		t.Fatalf("saved graph:\n%s", data)
	}
	if strings.Contains(string(data), "deploy_start") {
		t.Fatalf("stage not removed:\n%s", data)
	}
}

func TestNodeDeploy(t *testing.T) {
	_, run := setup(t)
	out, err := run("node", "--env", "1", "--node", "1,2", "--start", "globals", "--end", "netconfig")
	if err != nil {
		t.Fatalf("node error = %v", err)
	}
	if expected := "Deployment task with id 2 for the nodes 1 2 has been started.\n"; out != expected {
		t.Fatalf("got = %q, expected %q", out, expected)
	}

	out, err = run("deployment-tasks", "--tid", "2", "--format", "json")
	if err != nil {
		t.Fatalf("deployment-tasks error = %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows got = %d, expected 4", len(rows))
	}
	if rows[0]["task_name"] != "globals" || rows[0]["status"] != "pending" || rows[0]["time_start"] != nil {
		t.Fatalf("first row got = %v", rows[0])
	}
}

func TestUsageErrors(t *testing.T) {
	_, run := setup(t)
	cases := [][]string{
		{"graph", "--env", "1"},
		{"graph", "--download"},
		{"node", "--env", "1", "--node", "1"},
		{"node", "--env", "1", "--tasks", "hiera"},
		{"deployment-tasks"},
		{"env", "--format", "xml"},
		{"tasks", "--env", "1", "--bogus"},
		{"nodes"},
	}
	for _, args := range cases {
		_, err := run(args...)
		var usage *UsageError
		if !errors.As(err, &usage) {
			t.Errorf("%v: got = %v, expected a usage error", args, err)
		}
	}
}

func TestNodeNoTasksToExecute(t *testing.T) {
	_, run := setup(t)
	_, err := run("node", "--env", "1", "--node", "1", "--end", "hiera", "--skip", "pre_deployment_start,upload_keys,hiera")
	if err == nil || err.Error() != "no tasks to execute" {
		t.Fatalf("got = %v, expected no tasks to execute", err)
	}
}

func TestDeploymentHistoryGrouped(t *testing.T) {
	_, run := setup(t)
	out, err := run("deployment-tasks", "--tid", "1", "--show-parameters", "--format", "json")
	if err != nil {
		t.Fatalf("deployment-tasks error = %v", err)
	}
	var tasks []map[string]string
	if err := json.Unmarshal([]byte(out), &tasks); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(tasks) != 2 || tasks[0]["task_name"] != "netconfig" || tasks[1]["task_name"] != "upload_keys" {
		t.Fatalf("got = %v", tasks)
	}
	expected := "1 - error - 2016-03-25T17:23:01 - 2016-03-25T17:25:44\n2 - skipped - not started - not ended"
	if tasks[0]["status_by_node"] != expected {
		t.Fatalf("status_by_node got = %q, expected %q", tasks[0]["status_by_node"], expected)
	}
	if !strings.Contains(tasks[0]["task_parameters"], "type: puppet") {
		t.Fatalf("task_parameters got = %q", tasks[0]["task_parameters"])
	}
}

func TestDeploymentHistoryTable(t *testing.T) {
	_, run := setup(t)
	out, err := run("deployment-tasks", "--tid", "1", "--task-name", "upload_keys", "--include-summary")
	if err != nil {
		t.Fatalf("deployment-tasks error = %v", err)
	}
	for _, want := range []string{"task_name", "summary", "upload_keys"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "netconfig") {
		t.Errorf("filtered task present:\n%s", out)
	}
}

func TestServerErrorMessage(t *testing.T) {
	_, run := setup(t)
	_, err := run("deployment-tasks", "--tid", "9")
	if err == nil || !strings.Contains(err.Error(), "Task with id 9 not found") {
		t.Fatalf("got = %v", err)
	}
}

func TestVersion(t *testing.T) {
	_, run := setup(t)
	out, err := run("version")
	if err != nil || !strings.HasPrefix(out, "fuel-client/") {
		t.Fatalf("got = %q, %v", out, err)
	}
}
