package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newSetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "set [api-key]",
		Short: "Store the API key in secure storage",
		Long:  "Store the API key, replacing any existing one. If the key is omitted, it is read from the terminal without echo, or from stdin when piped.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				var err error
				if key, err = c.readKey(); err != nil {
					return err
				}
			}

			if err := c.store.Configure(key); err != nil {
				c.errOut.failure("Failed to store API key: %v", err)
				return errReported
			}
			c.out.success("API key stored successfully in secure storage")
			return nil
		},
	}
}

// readKey prompts on a terminal or reads a piped key, dropping the trailing
// line ending.
func (c *cli) readKey() (string, error) {
	if f, ok := c.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(c.errOut.w, "Enter API key: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.errOut.w)
		if err != nil {
			return "", fmt.Errorf("reading API key: %w", err)
		}
		return string(b), nil
	}

	b, err := io.ReadAll(c.stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}
