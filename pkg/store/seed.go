package store

import (
	_ "embed"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"

	"fuel-client/pkg/model"
	"fuel-client/pkg/serializer"
)

//go:embed demo.yaml
var demoFixture []byte

// Fixture is the content of a seed file.
type Fixture struct {
	Users        []SeedUser        `json:"users" yaml:"users"`
	Clusters     []SeedCluster     `json:"clusters" yaml:"clusters"`
	Transactions []SeedTransaction `json:"transactions" yaml:"transactions"`
}

// SeedUser carries a plaintext password that is hashed on load.
type SeedUser struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	Tenant   string `json:"tenant" yaml:"tenant"`
	Admin    bool   `json:"admin" yaml:"admin"`
}

type SeedCluster struct {
	model.Cluster   `yaml:",inline"`
	DeploymentTasks []model.TaskDescriptor `json:"deployment_tasks" yaml:"deployment_tasks"`
}

type SeedTransaction struct {
	model.Transaction `yaml:",inline"`
	History           []model.HistoryRecord `json:"history" yaml:"history"`
}

// LoadFixture reads a YAML or JSON seed file.
func LoadFixture(path string) (Fixture, error) {
	var f Fixture
	if err := serializer.ReadFile(path, &f); err != nil {
		return Fixture{}, err
	}
	return f, nil
}

// DemoFixture returns the built-in demo environment.
func DemoFixture() (Fixture, error) {
	var f Fixture
	if err := serializer.New(serializer.FormatYAML).Deserialize(demoFixture, &f); err != nil {
		return Fixture{}, fmt.Errorf("demo fixture: %w", err)
	}
	return f, nil
}

// Seed writes every object of f into s.
func Seed(s Store, f Fixture) error {
	for _, u := range f.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password of %s: %w", u.Username, err)
		}
		if err := s.SaveUser(model.User{Username: u.Username, Tenant: u.Tenant, PasswordHash: string(hash), IsAdmin: u.Admin}); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
	}
	for _, c := range f.Clusters {
		if err := s.SaveCluster(c.Cluster); err != nil {
			return fmt.Errorf("seed cluster %d: %w", c.ID, err)
		}
		if len(c.DeploymentTasks) > 0 {
			if err := s.SetDeploymentTasks(c.ID, c.DeploymentTasks); err != nil {
				return fmt.Errorf("seed tasks of cluster %d: %w", c.ID, err)
			}
		}
	}
	for _, t := range f.Transactions {
		created, err := s.CreateTransaction(t.Transaction)
		if err != nil {
			return fmt.Errorf("seed transaction %d: %w", t.ID, err)
		}
		if len(t.History) > 0 {
			if err := s.AppendHistory(created.ID, t.History); err != nil {
				return fmt.Errorf("seed history of transaction %d: %w", created.ID, err)
			}
		}
	}
	log.Printf("seeded %d users, %d clusters, %d transactions", len(f.Users), len(f.Clusters), len(f.Transactions))
	return nil
}
