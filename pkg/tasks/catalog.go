package tasks

import (
	"context"
	"fmt"
	"net/url"

	"fuel-client/pkg/model"
)

// Getter is the slice of the HTTP client the catalog needs.
type Getter interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
}

// Catalog reads an environment's deployment task list.
type Catalog struct {
	client Getter
}

func NewCatalog(client Getter) *Catalog {
	return &Catalog{client: client}
}

// Fetch returns the environment's tasks in plan order. start and end are handed
// to the server, which decides what they include; the result is not filtered
// again here.
func (c *Catalog) Fetch(ctx context.Context, envID int, start, end string) ([]model.TaskDescriptor, error) {
	query := url.Values{}
	if start != "" {
		query.Set("start", start)
	}
	if end != "" {
		query.Set("end", end)
	}
	var out []model.TaskDescriptor
	if err := c.client.Get(ctx, fmt.Sprintf("clusters/%d/deployment_tasks/", envID), query, &out); err != nil {
		return nil, err
	}
	return out, nil
}
