package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"fuel-client/pkg/db"
	"fuel-client/pkg/model"
)

// GormStore keeps server state in MySQL through gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an initialized connection, see db.Init.
func NewGormStore(conn *gorm.DB) *GormStore {
	return &GormStore{db: conn}
}

func (s *GormStore) ListClusters() ([]model.Cluster, error) {
	var rows []db.ClusterRow
	if err := s.db.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Cluster, 0, len(rows))
	for _, r := range rows {
		out = append(out, clusterFromRow(r))
	}
	return out, nil
}

func (s *GormStore) GetCluster(id int) (model.Cluster, bool, error) {
	var row db.ClusterRow
	err := s.db.First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Cluster{}, false, nil
	}
	if err != nil {
		return model.Cluster{}, false, err
	}
	return clusterFromRow(row), true, nil
}

func (s *GormStore) SaveCluster(c model.Cluster) error {
	return s.db.Save(&db.ClusterRow{ID: c.ID, Name: c.Name, Status: c.Status, ReleaseID: c.ReleaseID}).Error
}

func (s *GormStore) SetDeploymentTasks(clusterID int, tasks []model.TaskDescriptor) error {
	if _, ok, err := s.GetCluster(clusterID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("cluster %d: %w", clusterID, ErrNotFound)
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cluster_id = ?", clusterID).Delete(&db.TaskRow{}).Error; err != nil {
			return err
		}
		for i, t := range tasks {
			b, err := json.Marshal(t)
			if err != nil {
				return err
			}
			if err := tx.Create(&db.TaskRow{ClusterID: clusterID, Position: i, Payload: string(b)}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormStore) ListDeploymentTasks(clusterID int) ([]model.TaskDescriptor, error) {
	var rows []db.TaskRow
	if err := s.db.Where("cluster_id = ?", clusterID).Order("position").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.TaskDescriptor, 0, len(rows))
	for _, r := range rows {
		var t model.TaskDescriptor
		if err := unmarshalPayload(r.Payload, &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *GormStore) CreateTransaction(t model.Transaction) (model.Transaction, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		row := db.TransactionRow{ID: t.ID}
		if t.ID == 0 {
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			t.ID = row.ID
		}
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		row.Payload = string(b)
		return tx.Save(&row).Error
	})
	return t, err
}

func (s *GormStore) GetTransaction(id int) (model.Transaction, bool, error) {
	var row db.TransactionRow
	err := s.db.First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Transaction{}, false, nil
	}
	if err != nil {
		return model.Transaction{}, false, err
	}
	var t model.Transaction
	if err := unmarshalPayload(row.Payload, &t); err != nil {
		return model.Transaction{}, false, err
	}
	return t, true, nil
}

func (s *GormStore) ListTransactions() ([]model.Transaction, error) {
	var rows []db.TransactionRow
	if err := s.db.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Transaction, 0, len(rows))
	for _, r := range rows {
		var t model.Transaction
		if err := unmarshalPayload(r.Payload, &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *GormStore) AppendHistory(transactionID int, records []model.HistoryRecord) error {
	if _, ok, err := s.GetTransaction(transactionID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("transaction %d: %w", transactionID, ErrNotFound)
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db.HistoryRow{}).Where("transaction_id = ?", transactionID).Count(&count).Error; err != nil {
			return err
		}
		for i, r := range records {
			b, err := json.Marshal(r)
			if err != nil {
				return err
			}
			row := db.HistoryRow{TransactionID: transactionID, Position: int(count) + i, Payload: string(b)}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormStore) ListHistory(transactionID int) ([]model.HistoryRecord, error) {
	var rows []db.HistoryRow
	if err := s.db.Where("transaction_id = ?", transactionID).Order("position").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.HistoryRecord, 0, len(rows))
	for _, r := range rows {
		var rec model.HistoryRecord
		if err := unmarshalPayload(r.Payload, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *GormStore) SaveUser(u model.User) error {
	var existing model.User
	err := s.db.Where("username = ?", u.Username).First(&existing).Error
	switch {
	case err == nil:
		u.ID = existing.ID
		u.CreatedAt = existing.CreatedAt
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return err
	}
	return s.db.Save(&u).Error
}

func (s *GormStore) GetUser(username string) (model.User, bool, error) {
	var u model.User
	err := s.db.Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, err
	}
	return u, true, nil
}

func clusterFromRow(r db.ClusterRow) model.Cluster {
	return model.Cluster{ID: r.ID, Name: r.Name, Status: r.Status, ReleaseID: r.ReleaseID}
}
