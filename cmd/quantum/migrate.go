package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.logger.Sync()

			db, err := openDatabase(rt.cfg.Database, rt.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			rt.logger.Info("migrations applied", zap.String("path", rt.cfg.Database.Path))
			return nil
		},
	}
}
