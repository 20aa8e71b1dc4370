package cli

import (
	"strings"

	"github.com/spf13/pflag"

	"fuel-client/pkg/apiclient"
	"fuel-client/pkg/tasks"
)

// selectionFlags registers --start, --end, --tasks and --skip.
func selectionFlags(fs *pflag.FlagSet, sel *tasks.Selection) {
	fs.StringVar(&sel.Start, "start", "", "first task of the range")
	fs.StringVar(&sel.End, "end", "", "last task of the range")
	fs.StringSliceVar(&sel.Include, "tasks", nil, "tasks to include (repeatable, comma separated)")
	fs.StringSliceVar(&sel.Skip, "skip", nil, "tasks to skip (repeatable, comma separated)")
}

// resolveSelection turns the selection flags into the ordered task list.
// Without start, end or skip the --tasks list is used as given (deduplicated)
// and the catalog is not fetched; with no flag at all the whole catalog is
// returned.
func (a *App) resolveSelection(client *apiclient.Client, envID int, sel tasks.Selection) ([]string, error) {
	if !sel.Ranged() && len(sel.Include) > 0 {
		return tasks.Resolve(nil, sel.Include, nil), nil
	}
	return sel.Run(a.ctx, tasks.NewCatalog(client), envID)
}

func (a *App) tasksCommand() *Command {
	var (
		envID int
		sel   tasks.Selection
	)
	return &Command{
		Name:    "tasks",
		Summary: "Show the deployment tasks a selection resolves to",
		Usage:   "fuel tasks --env ID [--start T] [--end T] [--tasks T,...] [--skip T,...]",
		Flags: func(fs *pflag.FlagSet) {
			fs.IntVar(&envID, "env", 0, "environment id")
			selectionFlags(fs, &sel)
		},
		Run: func(_ []string) error {
			if err := requireEnv(envID); err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			names, err := a.resolveSelection(client, envID, sel)
			if err != nil {
				return err
			}
			if a.format == formatTable {
				if len(names) > 0 {
					a.printf("%s\n", strings.Join(names, "\n"))
				}
				return nil
			}
			return a.render(nil, nil, names)
		},
	}
}
