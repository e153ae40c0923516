package main

import (
	"github.com/spf13/cobra"
)

func newCheckCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report whether an API key is configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			p, err := c.store.Check()
			if err != nil {
				if jsonOut {
					return err
				}
				c.errOut.failure("Failed to check API key: %v", err)
				return errReported
			}

			if jsonOut {
				return c.out.json(p)
			}

			if !p.Configured {
				c.out.failure("No API key is configured")
				c.out.note("Use 'configure-api-key set <your-api-key>' to set one")
				return nil
			}
			c.out.success("API key is configured: %s", p.Masked)
			if !p.UpdatedAt.IsZero() {
				c.out.note("  last updated %s", p.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print the result as JSON")
	return cmd
}
