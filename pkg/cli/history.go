package cli

import (
	"github.com/spf13/pflag"

	"fuel-client/pkg/history"
)

func (a *App) historyCommand() *Command {
	var (
		txID           int
		filter         history.Filter
		showParameters bool
	)
	return &Command{
		Name:    "deployment-tasks",
		Summary: "Show the deployment history of a transaction",
		Usage:   "fuel deployment-tasks --tid ID [--task-name T,...] [--node-id N,...] [--status S,...] [--show-parameters] [--include-summary]",
		Flags: func(fs *pflag.FlagSet) {
			fs.IntVar(&txID, "tid", 0, "transaction (task) id")
			fs.StringSliceVar(&filter.TaskNames, "task-name", nil, "only these tasks (repeatable, comma separated)")
			fs.StringSliceVar(&filter.Nodes, "node-id", nil, "only these nodes (repeatable, comma separated)")
			fs.StringSliceVar(&filter.Statuses, "status", nil, "only these statuses (repeatable, comma separated)")
			fs.BoolVarP(&showParameters, "show-parameters", "p", false, "group by task and show task parameters")
			fs.BoolVar(&filter.IncludeSummary, "include-summary", false, "include the task summary")
		},
		Run: func(_ []string) error {
			if txID <= 0 {
				return usagef("--tid is required")
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			records, err := history.NewFetcher(client).Fetch(a.ctx, txID, filter)
			if err != nil {
				return err
			}
			res, err := history.Reshape(records, history.Options{
				TaskNames:      filter.TaskNames,
				ShowParameters: showParameters,
				IncludeSummary: filter.IncludeSummary,
			})
			if err != nil {
				return err
			}
			out := res.Records()
			return a.render(out, res.Columns(), out)
		},
	}
}
