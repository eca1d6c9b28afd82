package cli

import (
	"asd-screening-service/internal/bank"
	"asd-screening-service/internal/config"
	"asd-screening-service/internal/infra/postgres"
	"asd-screening-service/internal/logging"
	"github.com/spf13/cobra"
)

// NewSeedBankCmd writes the built-in question bank to Postgres.
func NewSeedBankCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-bank",
		Short: "Upsert the built-in 20-item question bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err := runMigrations(cmd.Context(), cfg, logger); err != nil {
				return err
			}

			db, err := openBun(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			b := bank.Default()
			if cfg.Bank.ID != "" {
				b.ID = cfg.Bank.ID
			}
			if err := postgres.SeedBank(cmd.Context(), db, b); err != nil {
				return err
			}
			logger.Info("question bank seeded", "bank", b.ID, "questions", b.Len())
			return nil
		},
	}
}
