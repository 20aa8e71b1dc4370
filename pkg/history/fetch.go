package history

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Getter is the slice of the HTTP client the fetcher needs.
type Getter interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
}

// Filter narrows the history the server returns.
type Filter struct {
	Nodes          []string
	Statuses       []string
	TaskNames      []string
	IncludeSummary bool
}

// Values returns the query parameters of the filter.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if len(f.Nodes) > 0 {
		v.Set("nodes", strings.Join(f.Nodes, ","))
	}
	if len(f.Statuses) > 0 {
		v.Set("statuses", strings.Join(f.Statuses, ","))
	}
	if len(f.TaskNames) > 0 {
		v.Set("tasks_names", strings.Join(f.TaskNames, ","))
	}
	if f.IncludeSummary {
		v.Set("include_summary", "1")
	}
	return v
}

// Fetcher reads deployment history of transactions.
type Fetcher struct {
	client Getter
}

func NewFetcher(client Getter) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch returns the raw history records of a transaction.
func (f *Fetcher) Fetch(ctx context.Context, transactionID int, filter Filter) ([]Record, error) {
	var out []Record
	path := fmt.Sprintf("transactions/%d/deployment_history/", transactionID)
	if err := f.client.Get(ctx, path, filter.Values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}
