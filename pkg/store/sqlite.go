package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"fuel-client/pkg/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS clusters(id INTEGER PRIMARY KEY, name TEXT, status TEXT, release_id INTEGER);
CREATE TABLE IF NOT EXISTS deployment_tasks(cluster_id INTEGER, position INTEGER, payload TEXT);
CREATE INDEX IF NOT EXISTS idx_deployment_tasks_cluster ON deployment_tasks(cluster_id);
CREATE TABLE IF NOT EXISTS transactions(id INTEGER PRIMARY KEY AUTOINCREMENT, payload TEXT);
CREATE TABLE IF NOT EXISTS history(transaction_id INTEGER, position INTEGER, payload TEXT);
CREATE INDEX IF NOT EXISTS idx_history_transaction ON history(transaction_id);
CREATE TABLE IF NOT EXISTS users(username TEXT PRIMARY KEY, id INTEGER, tenant TEXT, password_hash TEXT, is_admin INTEGER, created_at INTEGER);
`

// SQLiteStore keeps server state in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating when needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite mkdir: %w", err)
		}
	}
	dsn := "file:" + path + "?_pragma=busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite init schema: %w", err)
	}
	log.Printf("sqlite store ready at %s", path)
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (s *SQLiteStore) ListClusters() ([]model.Cluster, error) {
	ctx, cancel := opContext()
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, status, release_id FROM clusters ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Cluster
	for rows.Next() {
		var c model.Cluster
		if err := rows.Scan(&c.ID, &c.Name, &c.Status, &c.ReleaseID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetCluster(id int) (model.Cluster, bool, error) {
	ctx, cancel := opContext()
	defer cancel()
	var c model.Cluster
	err := s.db.QueryRowContext(ctx, `SELECT id, name, status, release_id FROM clusters WHERE id=?`, id).
		Scan(&c.ID, &c.Name, &c.Status, &c.ReleaseID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Cluster{}, false, nil
	}
	if err != nil {
		return model.Cluster{}, false, err
	}
	return c, true, nil
}

func (s *SQLiteStore) SaveCluster(c model.Cluster) error {
	ctx, cancel := opContext()
	defer cancel()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clusters(id, name, status, release_id) VALUES(?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, status=excluded.status, release_id=excluded.release_id`,
		c.ID, c.Name, c.Status, c.ReleaseID)
	return err
}

func (s *SQLiteStore) SetDeploymentTasks(clusterID int, tasks []model.TaskDescriptor) error {
	if _, ok, err := s.GetCluster(clusterID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("cluster %d: %w", clusterID, ErrNotFound)
	}
	ctx, cancel := opContext()
	defer cancel()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM deployment_tasks WHERE cluster_id=?`, clusterID); err != nil {
		return err
	}
	for i, t := range tasks {
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO deployment_tasks(cluster_id, position, payload) VALUES(?,?,?)`, clusterID, i, string(b)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListDeploymentTasks(clusterID int) ([]model.TaskDescriptor, error) {
	ctx, cancel := opContext()
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM deployment_tasks WHERE cluster_id=? ORDER BY position`, clusterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.TaskDescriptor
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var t model.TaskDescriptor
		if err := unmarshalPayload(payload, &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateTransaction(t model.Transaction) (model.Transaction, error) {
	ctx, cancel := opContext()
	defer cancel()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	b, err := json.Marshal(t)
	if err != nil {
		return t, err
	}
	if t.ID == 0 {
		res, err := s.db.ExecContext(ctx, `INSERT INTO transactions(payload) VALUES(?)`, string(b))
		if err != nil {
			return t, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return t, err
		}
		t.ID = int(id)
		b, err = json.Marshal(t)
		if err != nil {
			return t, err
		}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO transactions(id, payload) VALUES(?,?) ON CONFLICT(id) DO UPDATE SET payload=excluded.payload`,
		t.ID, string(b))
	return t, err
}

func (s *SQLiteStore) GetTransaction(id int) (model.Transaction, bool, error) {
	ctx, cancel := opContext()
	defer cancel()
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM transactions WHERE id=?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, false, nil
	}
	if err != nil {
		return model.Transaction{}, false, err
	}
	var t model.Transaction
	if err := unmarshalPayload(payload, &t); err != nil {
		return model.Transaction{}, false, err
	}
	return t, true, nil
}

func (s *SQLiteStore) ListTransactions() ([]model.Transaction, error) {
	ctx, cancel := opContext()
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM transactions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Transaction
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var t model.Transaction
		if err := unmarshalPayload(payload, &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AppendHistory(transactionID int, records []model.HistoryRecord) error {
	if _, ok, err := s.GetTransaction(transactionID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("transaction %d: %w", transactionID, ErrNotFound)
	}
	ctx, cancel := opContext()
	defer cancel()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	var next int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position)+1, 0) FROM history WHERE transaction_id=?`, transactionID).Scan(&next); err != nil {
		return err
	}
	for i, r := range records {
		b, err := json.Marshal(r)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO history(transaction_id, position, payload) VALUES(?,?,?)`, transactionID, next+i, string(b)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListHistory(transactionID int) ([]model.HistoryRecord, error) {
	ctx, cancel := opContext()
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM history WHERE transaction_id=? ORDER BY position`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.HistoryRecord{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var r model.HistoryRecord
		if err := unmarshalPayload(payload, &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveUser(u model.User) error {
	ctx, cancel := opContext()
	defer cancel()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	if u.ID == 0 {
		if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id)+1, 1) FROM users`).Scan(&u.ID); err != nil {
			return err
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users(username, id, tenant, password_hash, is_admin, created_at) VALUES(?,?,?,?,?,?)
		 ON CONFLICT(username) DO UPDATE SET tenant=excluded.tenant, password_hash=excluded.password_hash, is_admin=excluded.is_admin`,
		u.Username, u.ID, u.Tenant, u.PasswordHash, u.IsAdmin, u.CreatedAt.Unix())
	return err
}

func (s *SQLiteStore) GetUser(username string) (model.User, bool, error) {
	ctx, cancel := opContext()
	defer cancel()
	var (
		u       model.User
		created int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT username, id, tenant, password_hash, is_admin, created_at FROM users WHERE username=?`, username).
		Scan(&u.Username, &u.ID, &u.Tenant, &u.PasswordHash, &u.IsAdmin, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, err
	}
	u.CreatedAt = time.Unix(created, 0)
	return u, true, nil
}

// unmarshalPayload decodes a stored JSON column, keeping numbers as json.Number
// so history records read back the way clients decode them.
func unmarshalPayload(payload string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode stored payload: %w", err)
	}
	return nil
}
