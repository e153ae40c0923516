package main

import (
	"errors"

	"github.com/benaskins/weatherwizard/internal/legacy"
	"github.com/spf13/cobra"
)

func newMigrateCmd(c *cli) *cobra.Command {
	var from string
	var keep bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Move an API key from an old plain-text config into secure storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" {
				from = legacy.DefaultPath()
			}

			res, err := legacy.Migrate(c.store, from, keep)
			switch {
			case errors.Is(err, legacy.ErrNoLegacyKey):
				c.out.note("Nothing to migrate: %v", err)
				return nil
			case err != nil && res.Key != "":
				c.out.success("API key migrated: %s", res.Key)
				c.errOut.failure("%v", err)
				return errReported
			case err != nil:
				c.errOut.failure("Failed to migrate API key: %v", err)
				return errReported
			}

			c.out.success("API key migrated: %s", res.Key)
			if res.Scrubbed {
				c.out.note("Removed the key from %s", res.Source)
			} else {
				c.out.note("%s still contains the key; delete it once you have confirmed the migration", res.Source)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "legacy config file (default <user config dir>/open-weather-wizard/config.json)")
	cmd.Flags().BoolVar(&keep, "keep", false, "leave the key in the legacy file")
	return cmd
}
