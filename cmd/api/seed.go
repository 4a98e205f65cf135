package main

import (
	"github.com/spf13/cobra"

	"github.com/yabe12/bizdir/internal/config"
	"github.com/yabe12/bizdir/internal/db"
	"github.com/yabe12/bizdir/internal/observability"
)

func NewSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default business categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := observability.NewLogger(cfg.Env)

			pool, err := db.NewPool(cmd.Context(), cfg.DBURL, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			added, err := db.SeedCategories(cmd.Context(), pool, nil)
			if err != nil {
				return err
			}
			cmd.Printf("seeded %d categories\n", added)
			return nil
		},
	}
}
