package store

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"fuel-client/pkg/model"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	if err := s.SetDeploymentTasks(7, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SetDeploymentTasks on missing cluster: got = %v, expected ErrNotFound", err)
	}
	if err := s.SaveCluster(model.Cluster{ID: 2, Name: "second", Status: "new", ReleaseID: 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveCluster(model.Cluster{ID: 1, Name: "first", Status: "operational", ReleaseID: 2}); err != nil {
		t.Fatal(err)
	}
	clusters, err := s.ListClusters()
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 2 || clusters[0].ID != 1 || clusters[1].Name != "second" {
		t.Fatalf("ListClusters got = %+v", clusters)
	}
	if _, ok, err := s.GetCluster(3); err != nil || ok {
		t.Fatalf("GetCluster(3) got = %v, %v; expected missing", ok, err)
	}

	tasks := []model.TaskDescriptor{
		{ID: "b", Type: "puppet", Requires: []string{"a"}},
		{ID: "a", Type: "stage"},
	}
	if err := s.SetDeploymentTasks(1, tasks); err != nil {
		t.Fatal(err)
	}
	gotTasks, err := s.ListDeploymentTasks(1)
	if err != nil {
		t.Fatal(err)
	}
	if got := model.TaskIDs(gotTasks); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Fatalf("ListDeploymentTasks order got = %v, expected [b a]", got)
	}

	first, err := s.CreateTransaction(model.Transaction{Name: "deployment", Cluster: 1, Status: model.TransactionPending})
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.CreateTransaction(model.Transaction{Name: "deployment", Cluster: 1})
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == 0 || second.ID <= first.ID {
		t.Fatalf("transaction ids got = %d, %d; expected increasing", first.ID, second.ID)
	}
	got, ok, err := s.GetTransaction(first.ID)
	if err != nil || !ok {
		t.Fatalf("GetTransaction got = %v, %v", ok, err)
	}
	if got.Status != model.TransactionPending || got.CreatedAt.IsZero() {
		t.Fatalf("GetTransaction got = %+v", got)
	}

	if err := s.AppendHistory(999, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("AppendHistory on missing transaction: got = %v, expected ErrNotFound", err)
	}
	batch := []model.HistoryRecord{
		{"task_name": "a", "node_id": "1", "status": "ready"},
		{"task_name": "b", "node_id": "1", "status": "pending"},
	}
	if err := s.AppendHistory(first.ID, batch); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendHistory(first.ID, []model.HistoryRecord{{"task_name": "c", "node_id": "2", "status": "pending"}}); err != nil {
		t.Fatal(err)
	}
	history, err := s.ListHistory(first.ID)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, r := range history {
		name, _ := r.TaskName()
		names = append(names, name)
	}
	if !reflect.DeepEqual(names, []string{"a", "b", "c"}) {
		t.Fatalf("ListHistory got = %v, expected [a b c]", names)
	}
	empty, err := s.ListHistory(second.ID)
	if err != nil || len(empty) != 0 {
		t.Fatalf("ListHistory of fresh transaction got = %v, %v", empty, err)
	}

	if err := s.SaveUser(model.User{Username: "admin", Tenant: "admin", PasswordHash: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveUser(model.User{Username: "admin", Tenant: "services", PasswordHash: "y"}); err != nil {
		t.Fatal(err)
	}
	u, ok, err := s.GetUser("admin")
	if err != nil || !ok {
		t.Fatalf("GetUser got = %v, %v", ok, err)
	}
	if u.ID == 0 || u.Tenant != "services" || u.PasswordHash != "y" {
		t.Fatalf("GetUser got = %+v", u)
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "fuel.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestMemoryStoreHistoryIsolation(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	tx, _ := s.CreateTransaction(model.Transaction{Name: "deployment"})
	rec := model.HistoryRecord{"task_name": "a", "status": "pending"}
	if err := s.AppendHistory(tx.ID, []model.HistoryRecord{rec}); err != nil {
		t.Fatal(err)
	}
	rec["status"] = "ready"
	got, _ := s.ListHistory(tx.ID)
	if got[0]["status"] != "pending" {
		t.Fatalf("stored record changed with caller's map: got = %v", got[0]["status"])
	}
}

func TestSeedDemoFixture(t *testing.T) {
	t.Parallel()
	f, err := DemoFixture()
	if err != nil {
		t.Fatal(err)
	}
	s := NewMemoryStore()
	if err := Seed(s, f); err != nil {
		t.Fatal(err)
	}
	tasks, err := s.ListDeploymentTasks(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) == 0 || tasks[0].ID != "pre_deployment_start" {
		t.Fatalf("demo tasks got = %v", model.TaskIDs(tasks))
	}
	history, err := s.ListHistory(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 4 {
		t.Fatalf("demo history length got = %d, expected 4", len(history))
	}
	u, ok, err := s.GetUser("admin")
	if err != nil || !ok {
		t.Fatalf("demo user got = %v, %v", ok, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("admin")); err != nil {
		t.Fatalf("demo password hash does not match: %v", err)
	}
}
