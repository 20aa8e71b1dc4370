package store

import (
	"errors"

	"fuel-client/pkg/model"
)

// ErrNotFound is returned when a referenced cluster or transaction is missing.
var ErrNotFound = errors.New("not found")

// Store defines the persistence layer of the development server.
type Store interface {
	ListClusters() ([]model.Cluster, error)
	GetCluster(id int) (model.Cluster, bool, error)
	SaveCluster(model.Cluster) error
	SetDeploymentTasks(clusterID int, tasks []model.TaskDescriptor) error
	ListDeploymentTasks(clusterID int) ([]model.TaskDescriptor, error)
	// CreateTransaction stores t, assigning the next id when t.ID is zero.
	CreateTransaction(t model.Transaction) (model.Transaction, error)
	GetTransaction(id int) (model.Transaction, bool, error)
	ListTransactions() ([]model.Transaction, error)
	AppendHistory(transactionID int, records []model.HistoryRecord) error
	ListHistory(transactionID int) ([]model.HistoryRecord, error)
	SaveUser(model.User) error
	GetUser(username string) (model.User, bool, error)
}

