package main

import (
	"github.com/spf13/cobra"
)

func newRemoveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "remove",
		Short:   "Delete the API key from secure storage",
		Aliases: []string{"rm"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			existed, err := c.store.Configured()
			if err != nil {
				c.errOut.failure("Failed to remove API key: %v", err)
				return errReported
			}
			if err := c.store.Remove(); err != nil {
				c.errOut.failure("Failed to remove API key: %v", err)
				return errReported
			}
			c.out.success("API key removed successfully")
			if !existed {
				c.out.note("No API key was configured")
			}
			return nil
		},
	}
}
