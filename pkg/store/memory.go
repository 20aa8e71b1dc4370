package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"fuel-client/pkg/model"
)

// MemoryStore is a simple in-memory implementation, intended for dev/demo.
type MemoryStore struct {
	mu           sync.RWMutex
	clusters     map[int]model.Cluster
	tasks        map[int][]model.TaskDescriptor
	transactions map[int]model.Transaction
	history      map[int][]model.HistoryRecord
	users        map[string]model.User
	nextTxID     int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clusters:     make(map[int]model.Cluster),
		tasks:        make(map[int][]model.TaskDescriptor),
		transactions: make(map[int]model.Transaction),
		history:      make(map[int][]model.HistoryRecord),
		users:        make(map[string]model.User),
		nextTxID:     1,
	}
}

func (m *MemoryStore) ListClusters() ([]model.Cluster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Cluster, 0, len(m.clusters))
	for _, c := range m.clusters {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetCluster(id int) (model.Cluster, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clusters[id]
	return c, ok, nil
}

func (m *MemoryStore) SaveCluster(c model.Cluster) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clusters[c.ID] = c
	return nil
}

func (m *MemoryStore) SetDeploymentTasks(clusterID int, tasks []model.TaskDescriptor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clusters[clusterID]; !ok {
		return fmt.Errorf("cluster %d: %w", clusterID, ErrNotFound)
	}
	m.tasks[clusterID] = append([]model.TaskDescriptor(nil), tasks...)
	return nil
}

func (m *MemoryStore) ListDeploymentTasks(clusterID int) ([]model.TaskDescriptor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.TaskDescriptor(nil), m.tasks[clusterID]...), nil
}

func (m *MemoryStore) CreateTransaction(t model.Transaction) (model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == 0 {
		t.ID = m.nextTxID
	}
	if t.ID >= m.nextTxID {
		m.nextTxID = t.ID + 1
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	m.transactions[t.ID] = t
	return t, nil
}

func (m *MemoryStore) GetTransaction(id int) (model.Transaction, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.transactions[id]
	return t, ok, nil
}

func (m *MemoryStore) ListTransactions() ([]model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Transaction, 0, len(m.transactions))
	for _, t := range m.transactions {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) AppendHistory(transactionID int, records []model.HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[transactionID]; !ok {
		return fmt.Errorf("transaction %d: %w", transactionID, ErrNotFound)
	}
	for _, r := range records {
		m.history[transactionID] = append(m.history[transactionID], r.Clone())
	}
	return nil
}

func (m *MemoryStore) ListHistory(transactionID int) ([]model.HistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h := m.history[transactionID]
	out := make([]model.HistoryRecord, 0, len(h))
	for _, r := range h {
		out = append(out, r.Clone())
	}
	return out, nil
}

func (m *MemoryStore) SaveUser(u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.users[u.Username]; ok && u.ID == 0 {
		u.ID = existing.ID
	}
	if u.ID == 0 {
		u.ID = uint(len(m.users) + 1)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	m.users[u.Username] = u
	return nil
}

func (m *MemoryStore) GetUser(username string) (model.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	return u, ok, nil
}
