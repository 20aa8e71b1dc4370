package cli

import (
	"fuel-client/pkg/model"
)

func (a *App) envCommand() *Command {
	return &Command{
		Name:    "env",
		Summary: "List environments",
		Usage:   "fuel env [flags]",
		Run: func(_ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			var clusters []model.Cluster
			if err := client.Get(a.ctx, "clusters/", nil, &clusters); err != nil {
				return err
			}
			records := make([]map[string]any, 0, len(clusters))
			for _, c := range clusters {
				records = append(records, map[string]any{
					"id":         c.ID,
					"status":     c.Status,
					"name":       c.Name,
					"release_id": c.ReleaseID,
				})
			}
			return a.render(records, []string{"id", "status", "name", "release_id"}, clusters)
		},
	}
}
