package model

import "time"

// Transaction status values reported by the server.
const (
	TransactionPending = "pending"
	TransactionRunning = "running"
	TransactionReady   = "ready"
	TransactionError   = "error"
)

// Transaction is a server-side task (deployment run) whose per-node progress is
// recorded as deployment history.
type Transaction struct {
	ID        int       `json:"id" yaml:"id"`
	UUID      string    `json:"uuid" yaml:"uuid"`
	Name      string    `json:"name" yaml:"name"`
	Status    string    `json:"status" yaml:"status"`
	Progress  int       `json:"progress" yaml:"progress"`
	Cluster   int       `json:"cluster" yaml:"cluster"`
	Message   string    `json:"message,omitempty" yaml:"message,omitempty"`
	CreatedAt time.Time `json:"time_start" yaml:"time_start"`
}
