package cli

import (
	"fmt"
	"strings"

	"golang.org/x/term"

	"fuel-client/pkg/apiclient"
	"fuel-client/pkg/config"
	"fuel-client/pkg/version"
)

func (a *App) tokenCommand() *Command {
	return &Command{
		Name:    "token",
		Summary: "Authenticate and print an auth token",
		Usage:   "fuel token [flags]",
		Run: func(_ []string) error {
			settings, err := config.Load(a.envFile)
			if err != nil {
				return err
			}
			if err := settings.SetServer(a.server); err != nil {
				return usagef("--server: %v", err)
			}
			if settings.Password == "" {
				pw, err := a.promptPassword(settings.Username)
				if err != nil {
					return err
				}
				settings.Password = pw
			}
			client, err := apiclient.New(apiclient.Options{
				ServerURL: settings.ServerURL(),
				Username:  settings.Username,
				Password:  settings.Password,
				Tenant:    settings.Tenant,
				CAFile:    settings.CAFile,
				Insecure:  settings.Insecure,
				Timeout:   settings.Timeout,
			})
			if err != nil {
				return err
			}
			token, err := client.Token(a.ctx)
			if err != nil {
				return err
			}
			a.printf("%s\n", token)
			return nil
		},
	}
}

// promptPassword reads the password from the terminal with echo disabled.
func (a *App) promptPassword(username string) (string, error) {
	if a.Stdin == nil || !term.IsTerminal(int(a.Stdin.Fd())) {
		return "", usagef("OS_PASSWORD is not set and no terminal is available for a password prompt")
	}
	fmt.Fprintf(a.Stderr, "Password for %s: ", username)
	pw, err := term.ReadPassword(int(a.Stdin.Fd()))
	fmt.Fprintln(a.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(pw)), nil
}

func (a *App) versionCommand() *Command {
	return &Command{
		Name:    "version",
		Summary: "Print the client version",
		Usage:   "fuel version",
		Run: func(_ []string) error {
			a.printf("%s\n", version.UserAgent())
			return nil
		},
	}
}
