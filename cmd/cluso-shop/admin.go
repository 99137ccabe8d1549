package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-shop/pkg/auth"
	"github.com/dd0wney/cluso-shop/pkg/logging"
	"github.com/dd0wney/cluso-shop/pkg/security"
	"github.com/dd0wney/cluso-shop/pkg/store"
	"github.com/dd0wney/cluso-shop/pkg/validation"
)

func newAdminCmd(a *app) *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Bootstrap administrators and catalog data",
	}
	admin.AddCommand(newAdminUserCmd(a), newAdminCategoryCmd(a))
	return admin
}

func newAdminUserCmd(a *app) *cobra.Command {
	var req validation.UserCreateRequest
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Rol = auth.RoleAdmin
			req.Normalize()
			if fe := validation.Struct(&req); len(fe) > 0 {
				return fe
			}

			ctx := cmd.Context()
			db, err := a.requireDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			hash, err := auth.HashPassword(req.Password)
			if err != nil {
				return err
			}
			u := &store.User{
				Nombre:       req.Nombre,
				Apellido:     req.Apellido,
				Email:        req.Email,
				Telefono:     req.Telefono,
				PasswordHash: hash,
				Rol:          req.Rol,
				Activo:       true,
			}
			if err := db.CreateUser(ctx, u); err != nil {
				return err
			}
			a.logger.Info("administrator created", logging.UserID(u.ID), logging.String("email", u.Email))
			fmt.Fprintf(cmd.OutOrStdout(), "created admin #%d %s\n", u.ID, u.Email)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Email, "email", "", "login email")
	f.StringVar(&req.Password, "password", "", "initial password (min 6 characters)")
	f.StringVar(&req.Nombre, "nombre", "", "first name")
	f.StringVar(&req.Apellido, "apellido", "", "last name")
	f.StringVar(&req.Telefono, "telefono", "", "phone number")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("nombre")
	_ = cmd.MarkFlagRequired("apellido")
	return cmd
}

func newAdminCategoryCmd(a *app) *cobra.Command {
	var name, description string
	cmd := &cobra.Command{
		Use:   "create-category",
		Short: "Create a product category",
		RunE: func(cmd *cobra.Command, args []string) error {
			name = security.SanitizeString(name)
			slug := security.GenerateSlug(name)
			if slug == "" {
				return fmt.Errorf("category name %q produces an empty slug", name)
			}

			ctx := cmd.Context()
			db, err := a.requireDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			c := &store.Category{Nombre: name, Slug: slug, Descripcion: security.SanitizeString(description)}
			if err := db.CreateCategory(ctx, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created category #%d %s\n", c.ID, c.Slug)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "nombre", "", "category name")
	cmd.Flags().StringVar(&description, "descripcion", "", "category description")
	_ = cmd.MarkFlagRequired("nombre")
	return cmd
}
