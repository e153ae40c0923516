package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/benaskins/weatherwizard/internal/bootstrap"
	"github.com/benaskins/weatherwizard/internal/credential"
	"github.com/benaskins/weatherwizard/internal/session"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// Exit codes reported to whatever launched the application.
const (
	exitReady              = 0
	exitFailed             = 1
	exitNeedsSetup         = 2
	exitStorageUnavailable = 3
)

type app struct {
	configPath string
	verbose    bool
	wait       bool
	jsonOut    bool

	store    *credential.Store
	stateDir string
	use      func(key string) error

	exitCode int
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "weatherwizard",
		Short:         "Load the weather API key from secure storage and start",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.store == nil {
				cfg, err := session.LoadConfig(a.configPath)
				if err != nil {
					return err
				}
				level := cfg.Level()
				if a.verbose {
					level = slog.LevelDebug
				}
				session.SetupLogging(os.Stderr, level)

				s := session.Open(cfg, "app")
				defer s.Close()
				a.store = s.Store
				a.stateDir = s.StateDir
			}
			return a.run(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&a.configPath, "config", "", "config file (default <user config dir>/weatherwizard/config.yaml)")
	cmd.Flags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")
	cmd.Flags().BoolVar(&a.wait, "wait", false, "block until an API key is configured")
	cmd.Flags().BoolVar(&a.jsonOut, "json", false, "print the startup notice as JSON")
	return cmd
}

func (a *app) run(ctx context.Context, w io.Writer) error {
	adapter := bootstrap.New(a.store)

	var notice bootstrap.Notice
	if a.wait {
		var err error
		notice, err = adapter.WaitForKey(ctx, a.stateDir, a.use)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	} else {
		notice = adapter.Start(a.use)
	}

	a.exitCode = exitCode(notice.State)
	if a.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(notice)
	}
	printNotice(w, notice)
	return nil
}

func exitCode(s bootstrap.State) int {
	switch s {
	case bootstrap.StateReady:
		return exitReady
	case bootstrap.StateNeedsSetup:
		return exitNeedsSetup
	case bootstrap.StateStorageUnavailable:
		return exitStorageUnavailable
	default:
		return exitFailed
	}
}

func printNotice(w io.Writer, n bootstrap.Notice) {
	r := lipgloss.NewRenderer(w)
	title := r.NewStyle().Bold(true)
	switch n.State {
	case bootstrap.StateReady:
		title = title.Foreground(lipgloss.Color("2"))
	case bootstrap.StateNeedsSetup:
		title = title.Foreground(lipgloss.Color("3"))
	default:
		title = title.Foreground(lipgloss.Color("1"))
	}
	fmt.Fprintln(w, title.Render(n.Title))
	if n.Message != "" {
		fmt.Fprintln(w, n.Message)
	}
}

// startWeather is where the weather client takes the key. It holds the key
// only for the client's lifetime.
func startWeather(key string) error {
	slog.Debug("weather client ready", "component", "weatherwizard")
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{use: startWeather}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(exitFailed)
	}
	stop()
	os.Exit(a.exitCode)
}
