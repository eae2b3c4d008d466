package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/nightgrid/captiond/internal/rules"
)

var migrateSeed bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate")
		}
		fmt.Println("Schema up to date.")

		if migrateSeed {
			if err := rules.Seed(ctx, st); err != nil {
				return eris.Wrap(err, "seed")
			}
			fmt.Println("Default rules seeded.")
		}

		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateSeed, "seed", false, "seed the default rule set after migrating")
	rootCmd.AddCommand(migrateCmd)
}
