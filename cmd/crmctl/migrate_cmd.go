package main

import (
	"github.com/spf13/cobra"

	"github.com/jhoicas/crm-api/internal/infrastructure/postgres"
)

func newMigrateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migraciones del esquema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Aplica las migraciones pendientes",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				if err := postgres.RunMigrations(e.pool); err != nil {
					return err
				}
				e.log.Info().Msg("migraciones aplicadas")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Muestra el estado de cada migración",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return postgres.MigrationStatus(e.pool)
			},
		},
	)
	return cmd
}
