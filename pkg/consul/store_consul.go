//go:build consul

package consul

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	consulapi "github.com/hashicorp/consul/api"

	"fuel-client/pkg/model"
)

// ErrNotFound is returned when a referenced cluster or transaction is missing.
var ErrNotFound = errors.New("not found")

// Store keeps server state in the Consul KV store.
type Store struct {
	cli *consulapi.Client
}

const (
	clusterPrefix     = "fuel/clusters/"
	taskPrefix        = "fuel/deployment_tasks/"
	transactionPrefix = "fuel/transactions/"
	historyPrefix     = "fuel/history/"
	userPrefix        = "fuel/users/"
	transactionSeqKey = "fuel/seq/transactions"
)

func NewStore(addr string) *Store {
	cfg := consulapi.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}
	cli, _ := consulapi.NewClient(cfg) // runtime calls report a bad address
	return &Store{cli: cli}
}

// ids are zero padded so prefix listings come back in numeric order.
func idKey(prefix string, id int) string {
	return fmt.Sprintf("%s%010d", prefix, id)
}

func (s *Store) put(key string, v any) error {
	if s.cli == nil {
		return fmt.Errorf("consul client not configured")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.cli.KV().Put(&consulapi.KVPair{Key: key, Value: b}, nil)
	return err
}

func (s *Store) get(key string, v any) (bool, error) {
	if s.cli == nil {
		return false, fmt.Errorf("consul client not configured")
	}
	kv, _, err := s.cli.KV().Get(key, nil)
	if err != nil || kv == nil {
		return false, err
	}
	if err := decode(kv.Value, v); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) list(prefix string) (consulapi.KVPairs, error) {
	if s.cli == nil {
		return nil, fmt.Errorf("consul client not configured")
	}
	pairs, _, err := s.cli.KV().List(prefix, nil)
	return pairs, err
}

func (s *Store) ListClusters() ([]model.Cluster, error) {
	pairs, err := s.list(clusterPrefix)
	if err != nil {
		return nil, err
	}
	var out []model.Cluster
	for _, p := range pairs {
		var c model.Cluster
		if err := decode(p.Value, &c); err == nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) GetCluster(id int) (model.Cluster, bool, error) {
	var c model.Cluster
	ok, err := s.get(idKey(clusterPrefix, id), &c)
	return c, ok, err
}

func (s *Store) SaveCluster(c model.Cluster) error {
	return s.put(idKey(clusterPrefix, c.ID), c)
}

func (s *Store) SetDeploymentTasks(clusterID int, tasks []model.TaskDescriptor) error {
	if _, ok, err := s.GetCluster(clusterID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("cluster %d: %w", clusterID, ErrNotFound)
	}
	return s.put(idKey(taskPrefix, clusterID), tasks)
}

func (s *Store) ListDeploymentTasks(clusterID int) ([]model.TaskDescriptor, error) {
	var out []model.TaskDescriptor
	if _, err := s.get(idKey(taskPrefix, clusterID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// nextTransactionID bumps the sequence key with check-and-set.
func (s *Store) nextTransactionID() (int, error) {
	if s.cli == nil {
		return 0, fmt.Errorf("consul client not configured")
	}
	for attempt := 0; attempt < 10; attempt++ {
		kv, _, err := s.cli.KV().Get(transactionSeqKey, nil)
		if err != nil {
			return 0, err
		}
		var (
			current int
			index   uint64
		)
		if kv != nil {
			current, _ = strconv.Atoi(string(kv.Value))
			index = kv.ModifyIndex
		}
		next := current + 1
		ok, _, err := s.cli.KV().CAS(&consulapi.KVPair{Key: transactionSeqKey, Value: []byte(strconv.Itoa(next)), ModifyIndex: index}, nil)
		if err != nil {
			return 0, err
		}
		if ok {
			return next, nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return 0, fmt.Errorf("transaction sequence CAS failed")
}

func (s *Store) CreateTransaction(t model.Transaction) (model.Transaction, error) {
	if t.ID == 0 {
		id, err := s.nextTransactionID()
		if err != nil {
			return t, err
		}
		t.ID = id
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	return t, s.put(idKey(transactionPrefix, t.ID), t)
}

func (s *Store) GetTransaction(id int) (model.Transaction, bool, error) {
	var t model.Transaction
	ok, err := s.get(idKey(transactionPrefix, id), &t)
	return t, ok, err
}

func (s *Store) ListTransactions() ([]model.Transaction, error) {
	pairs, err := s.list(transactionPrefix)
	if err != nil {
		return nil, err
	}
	var out []model.Transaction
	for _, p := range pairs {
		var t model.Transaction
		if err := decode(p.Value, &t); err == nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) AppendHistory(transactionID int, records []model.HistoryRecord) error {
	if _, ok, err := s.GetTransaction(transactionID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("transaction %d: %w", transactionID, ErrNotFound)
	}
	existing, err := s.ListHistory(transactionID)
	if err != nil {
		return err
	}
	return s.put(idKey(historyPrefix, transactionID), append(existing, records...))
}

func (s *Store) ListHistory(transactionID int) ([]model.HistoryRecord, error) {
	out := []model.HistoryRecord{}
	if _, err := s.get(idKey(historyPrefix, transactionID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// users are stored with their password hash, which the JSON form of
// model.User leaves out.
type userDoc struct {
	model.User
	PasswordHash string `json:"passwordHash"`
}

func (s *Store) SaveUser(u model.User) error {
	var existing userDoc
	ok, err := s.get(userPrefix+u.Username, &existing)
	if err != nil {
		return err
	}
	if ok {
		u.ID = existing.ID
		u.CreatedAt = existing.CreatedAt
	}
	if u.ID == 0 {
		pairs, err := s.list(userPrefix)
		if err != nil {
			return err
		}
		u.ID = uint(len(pairs) + 1)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	return s.put(userPrefix+u.Username, userDoc{User: u, PasswordHash: u.PasswordHash})
}

func (s *Store) GetUser(username string) (model.User, bool, error) {
	var doc userDoc
	ok, err := s.get(userPrefix+username, &doc)
	if err != nil || !ok {
		return model.User{}, false, err
	}
	u := doc.User
	u.PasswordHash = doc.PasswordHash
	return u, true, nil
}

// Client exposes the underlying Consul client.
func (s *Store) Client() *consulapi.Client {
	return s.cli
}

func decode(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(v)
}
