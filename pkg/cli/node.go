package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/pflag"

	"fuel-client/pkg/model"
	"fuel-client/pkg/tasks"
)

func (a *App) nodeCommand() *Command {
	var (
		envID int
		nodes []string
		sel   tasks.Selection
	)
	return &Command{
		Name:    "node",
		Summary: "Run deployment tasks on nodes",
		Usage:   "fuel node --env ID --node N,... (--tasks T,... | --start T | --end T | --skip T,...)",
		Flags: func(fs *pflag.FlagSet) {
			fs.IntVar(&envID, "env", 0, "environment id")
			fs.StringSliceVar(&nodes, "node", nil, "node ids (repeatable, comma separated)")
			selectionFlags(fs, &sel)
		},
		Run: func(_ []string) error {
			if err := requireEnv(envID); err != nil {
				return err
			}
			if len(nodes) == 0 {
				return usagef("--node is required")
			}
			if sel.Empty() {
				return usagef("one of --tasks, --start, --end or --skip is required")
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			names, err := a.resolveSelection(client, envID, sel)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				return usagef("no tasks to execute")
			}
			query := url.Values{"nodes": {strings.Join(nodes, ",")}}
			var tx model.Transaction
			path := fmt.Sprintf("clusters/%d/deploy_tasks/", envID)
			if err := client.Put(a.ctx, path, query, names, &tx); err != nil {
				return err
			}
			a.printf("Deployment task with id %d for the nodes %s has been started.\n", tx.ID, strings.Join(nodes, " "))
			return nil
		},
	}
}
