package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/syllabus-tracker/constants"
	repo "github.com/joseph-ayodele/syllabus-tracker/internal/repository"
)

func newDBHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dbhealth",
		Short: "Ping the configured database and print syllabus counts by status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.RequireDatabase(); err != nil {
				return err
			}
			ctx := cmd.Context()
			dbResult, err := repo.InitDatabase(ctx, a.cfg.Database, false, a.logger)
			if err != nil {
				return err
			}
			defer dbResult.Cleanup()

			if err := repo.HealthCheck(ctx, dbResult.DB, time.Second, a.logger); err != nil {
				return fmt.Errorf("DB health: FAIL (%w)", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "DB health: OK")

			counts, err := repo.NewSyllabusRepository(dbResult.DB, a.logger).CountByStatus(ctx)
			if err != nil {
				return fmt.Errorf("counting syllabi: %w", err)
			}
			for _, s := range constants.AllStatuses() {
				fmt.Fprintf(out, "- %-10s %d\n", s, counts[s])
			}
			return nil
		},
	}
}
