package main

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/jhoicas/crm-api/internal/application/auth"
	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/infrastructure/postgres"
)

func newProvisionMasterCmd(e *env) *cobra.Command {
	var in dto.RegisterRequest
	cmd := &cobra.Command{
		Use:   "provision-master",
		Short: "Crea una cuenta master (identidad + perfil) sin pasar por la API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validator.New().Struct(in); err != nil {
				return fmt.Errorf("datos inválidos: %w", err)
			}
			// Register emite un token; sin secreto fallaría después de crear la cuenta
			if e.cfg.JWT.Secret == "" {
				return errors.New("JWT_SECRET es obligatorio")
			}
			uc := auth.NewAuthUseCase(
				postgres.NewIdentityRepository(e.pool),
				postgres.NewProfileRepository(e.pool),
				postgres.NewTxRunner(e.pool),
				auth.JWTConfig{Secret: e.cfg.JWT.Secret, ExpMinutes: e.cfg.JWT.Expiration, Issuer: e.cfg.JWT.Issuer},
				e.log,
			)
			out, err := uc.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "master creado: %s (%s)\n", out.Profile.ID, out.Profile.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "email de acceso")
	cmd.Flags().StringVar(&in.Password, "password", "", "contraseña (mínimo 8 caracteres)")
	cmd.Flags().StringVar(&in.Name, "name", "", "nombre visible")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
