package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/benaskins/weatherwizard/internal/credential"
	"github.com/benaskins/weatherwizard/internal/keychain"
	"github.com/benaskins/weatherwizard/internal/session"
	"github.com/spf13/cobra"
)

// cli carries what every subcommand needs. Tests set store, or backend to
// go through config loading with a fake secret service.
type cli struct {
	configPath string
	verbose    bool

	backend keychain.Backend
	store   *credential.Store
	session *session.Session

	stdin  io.Reader
	out    *printer
	errOut *printer
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "configure-api-key",
		Short:         "Manage the weather API key in the OS secure storage",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.store != nil {
				return nil
			}
			cfg, err := session.LoadConfig(c.configPath)
			if err != nil {
				return err
			}
			level := cfg.Level()
			if c.verbose {
				level = slog.LevelDebug
			}
			session.SetupLogging(os.Stderr, level)

			if c.backend != nil {
				c.session = session.OpenWith(cfg, "cli", c.backend)
			} else {
				c.session = session.Open(cfg, "cli")
			}
			c.store = c.session.Store
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default <user config dir>/weatherwizard/config.yaml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newSetCmd(c))
	root.AddCommand(newCheckCmd(c))
	root.AddCommand(newRemoveCmd(c))
	root.AddCommand(newMigrateCmd(c))
	return root
}

// execute runs one command and releases the session whether or not the
// command failed. Cobra skips post-run hooks after an error.
func (c *cli) execute(args []string) error {
	root := newRootCmd(c)
	root.SetArgs(args)
	err := root.Execute()
	if c.session != nil {
		if cerr := c.session.Close(); cerr != nil {
			slog.Warn("closing audit log failed", "error", cerr)
		}
	}
	return err
}

func main() {
	c := &cli{
		stdin:  os.Stdin,
		out:    newPrinter(os.Stdout),
		errOut: newPrinter(os.Stderr),
	}
	if err := c.execute(os.Args[1:]); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
