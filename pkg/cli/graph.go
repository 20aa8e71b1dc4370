package cli

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"fuel-client/pkg/graph"
	"fuel-client/pkg/tasks"
)

func (a *App) graphCommand() *Command {
	var (
		envID      int
		download   bool
		sel        tasks.Selection
		parentsFor string
		remove     []string
		output     string
	)
	return &Command{
		Name:    "graph",
		Summary: "Download the deployment graph of an environment",
		Usage:   "fuel graph --download --env ID [--tasks T,...] [--skip T,...] [--start T] [--end T] [--parents-for T] [--remove TYPE,...] [--output FILE]",
		Flags: func(fs *pflag.FlagSet) {
			fs.IntVar(&envID, "env", 0, "environment id")
			fs.BoolVarP(&download, "download", "d", false, "download the graph in DOT format")
			selectionFlags(fs, &sel)
			fs.StringVar(&parentsFor, "parents-for", "", "keep only this task and the tasks it depends on")
			fs.StringSliceVar(&remove, "remove", nil, "task types to leave out of the graph (repeatable, comma separated)")
			fs.StringVarP(&output, "output", "o", "", "write the graph to this file instead of stdout")
		},
		Run: func(_ []string) error {
			if !download {
				return usagef("graph: --download is required")
			}
			if err := requireEnv(envID); err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}

			echo := graph.Query{
				Tasks:      sel.Include,
				Skip:       sel.Skip,
				Start:      sel.Start,
				End:        sel.End,
				ParentsFor: parentsFor,
				Remove:     remove,
			}.Echo()

			q := graph.Query{Tasks: sel.Include, ParentsFor: parentsFor, Remove: remove}
			if sel.Ranged() {
				names, err := sel.Run(a.ctx, tasks.NewCatalog(client), envID)
				if err != nil {
					return err
				}
				q.Tasks = names
			}

			dot, err := graph.NewDownloader(client).Download(a.ctx, envID, q)
			if err != nil {
				return err
			}
			doc := graph.Annotate(dot, echo)
			if output == "" {
				_, err := fmt.Fprint(a.Stdout, doc)
				return err
			}
			if err := os.WriteFile(output, []byte(doc), 0o644); err != nil {
				return fmt.Errorf("write graph: %w", err)
			}
			a.printf("Deployment graph was saved to %s\n", output)
			return nil
		},
	}
}
