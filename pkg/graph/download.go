package graph

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// RawGetter is the slice of the HTTP client needed to fetch non-JSON bodies.
type RawGetter interface {
	GetRaw(ctx context.Context, path string, query url.Values) ([]byte, error)
}

// Downloader fetches rendered deployment graphs.
type Downloader struct {
	client RawGetter
}

func NewDownloader(client RawGetter) *Downloader {
	return &Downloader{client: client}
}

// Download returns the DOT text of the environment's deployment graph
// restricted by q.
func (d *Downloader) Download(ctx context.Context, envID int, q Query) (string, error) {
	body, err := d.client.GetRaw(ctx, fmt.Sprintf("clusters/%d/deploy_tasks/graph.gv", envID), q.Values())
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Annotate prefixes a DOT document with the parameter echo so a saved graph
// records the filters it was produced with.
func Annotate(dot, echo string) string {
	var b strings.Builder
	b.WriteString("# params:\n")
	b.WriteString(echo)
	b.WriteString("\n")
	b.WriteString(dot)
	if !strings.HasSuffix(dot, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}
