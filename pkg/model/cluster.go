package model

// Cluster is an environment managed by the control plane.
type Cluster struct {
	ID        int    `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Status    string `json:"status" yaml:"status"` // new/deployment/operational/error
	ReleaseID int    `json:"release_id" yaml:"release_id"`
}
