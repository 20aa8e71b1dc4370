package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command is one CLI subcommand.
type Command struct {
	// Name is the command name as typed by the user.
	Name string
	// Summary is the one-line description shown in the command listing.
	Summary string
	// Usage is the usage line shown in the command's own help.
	Usage string
	// Flags registers the command's flags on fs. Global flags are added by
	// the App before parsing.
	Flags func(fs *pflag.FlagSet)
	// Run executes the command with the positional arguments left after flag
	// parsing.
	Run func(args []string) error
}

// UsageError reports invalid or missing command line arguments.
type UsageError struct {
	msg string
}

func (e *UsageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &UsageError{msg: fmt.Sprintf(format, args...)}
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}

func printCommands(w io.Writer, commands []*Command) {
	fmt.Fprintf(w, "Usage:\n  fuel <command> [flags]\n\nCommands:\n")
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	for _, c := range commands {
		fmt.Fprintf(tw, "  %s\t%s\n", c.Name, c.Summary)
	}
	tw.Flush()
}

func printCommandHelp(w io.Writer, c *Command, fs *pflag.FlagSet) {
	fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", c.Summary, c.Usage)
	var flagHelp strings.Builder
	fs.SetOutput(&flagHelp)
	fs.PrintDefaults()
	if flagHelp.Len() > 0 {
		fmt.Fprintf(w, "\nFlags:\n%s", flagHelp.String())
	}
}

// suggest returns the command whose name shares the longest prefix with name.
func suggest(name string, commands []*Command) string {
	best, bestLen := "", 0
	for _, c := range commands {
		n := 0
		for n < len(name) && n < len(c.Name) && name[n] == c.Name[n] {
			n++
		}
		if n > bestLen {
			best, bestLen = c.Name, n
		}
	}
	if bestLen < 2 {
		return ""
	}
	return best
}
