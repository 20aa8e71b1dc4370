//go:build consul

package store

import (
	"errors"
	"fmt"

	"fuel-client/pkg/consul"
	"fuel-client/pkg/model"
)

// NewConsulStore creates a Consul-backed store (requires build tag consul).
func NewConsulStore(addr string) Store {
	return consulStore{consul.NewStore(addr)}
}

// consulStore maps the consul package's not-found error onto ErrNotFound.
type consulStore struct {
	*consul.Store
}

func (s consulStore) SetDeploymentTasks(clusterID int, tasks []model.TaskDescriptor) error {
	return translate(s.Store.SetDeploymentTasks(clusterID, tasks))
}

func (s consulStore) AppendHistory(transactionID int, records []model.HistoryRecord) error {
	return translate(s.Store.AppendHistory(transactionID, records))
}

func translate(err error) error {
	if errors.Is(err, consul.ErrNotFound) {
		return fmt.Errorf("%v: %w", err, ErrNotFound)
	}
	return err
}
