package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"homelyquad/internal/config"
	"homelyquad/internal/logger"
	"homelyquad/internal/middleware"
	"homelyquad/internal/models"
	"homelyquad/migrations"
	"homelyquad/pkg/database"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "homelyquad",
		Short: "Maintenance request service for rented units",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to a YAML config file")

	rootCmd.AddCommand(
		serveCmd(&configPath),
		migrateCmd(&configPath),
		tokenCmd(&configPath),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), *configPath)
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Database.Driver != "postgres" {
				return fmt.Errorf("migrate needs the postgres driver, got %q", cfg.Database.Driver)
			}

			pool, err := database.NewPool(cmd.Context(), cfg.Database.URL, cfg.Database.MaxConns)
			if err != nil {
				return err
			}
			defer database.ClosePool(pool)

			if err := migrations.Apply(cmd.Context(), pool); err != nil {
				return err
			}
			logger.Info("Schema applied")
			return nil
		},
	}
}

func tokenCmd(configPath *string) *cobra.Command {
	var (
		userID int64
		role   string
		orgID  int64
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a development access token with the configured secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("token signing needs auth.jwt_secret")
			}
			r := models.Role(role)
			if !r.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			if ttl <= 0 {
				ttl = time.Duration(cfg.Auth.TokenTTLMinute) * time.Minute
			}

			token, err := middleware.SignToken(cfg.Auth.JWTSecret, models.ActingUser{ID: userID, Role: r, OrganizationID: orgID}, cfg.Auth.Issuer, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	cmd.Flags().StringVar(&role, "role", "", "tenant, landlord, workman or admin")
	cmd.Flags().Int64Var(&orgID, "org", 0, "organization id")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl_minutes)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("role")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}
