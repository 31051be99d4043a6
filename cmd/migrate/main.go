package main

// Database maintenance:
//   go run ./cmd/migrate up
//   go run ./cmd/migrate status
//   go run ./cmd/migrate seed --admin-email admin@example.go.id --domain example.go.id

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"urs-backend/internal/shared/access"
	"urs-backend/internal/shared/config"
	"urs-backend/internal/shared/storage/db"
	"urs-backend/internal/users"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migrations and seed data",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
	},
}

func main() {
	rootCmd.AddCommand(upCmd(), statusCmd(), seedCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(ctx context.Context, sqlDB *sql.DB) error {
				return db.RunMigrations(ctx, sqlDB)
			})
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), db.MigrationStatus)
		},
	}
}

func seedCmd() *cobra.Command {
	var adminEmail, domain string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Provision the admin account and one account per agency",
		RunE: func(cmd *cobra.Command, args []string) error {
			if adminEmail == "" {
				adminEmail = cfg.SeedAdminEmail
			}
			if domain == "" {
				domain = cfg.SeedUserDomain
			}
			return withDB(cmd.Context(), func(ctx context.Context, sqlDB *sql.DB) error {
				if err := db.RunMigrations(ctx, sqlDB); err != nil {
					return err
				}
				seeded, err := users.NewService(&users.PGRepo{DB: sqlDB}).Seed(ctx, adminEmail, domain)
				if err != nil {
					return err
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Email", "Role", "Agency"})
				for _, u := range seeded {
					agency := u.Agency
					if u.Role == access.RoleAdmin {
						agency = "(all)"
					}
					tw.AppendRow(table.Row{u.Email, u.Role, agency})
				}
				tw.AppendFooter(table.Row{"", "total", len(seeded)})
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&adminEmail, "admin-email", "", "admin account email (defaults to SEED_ADMIN_EMAIL)")
	cmd.Flags().StringVar(&domain, "domain", "", "email domain for agency accounts (defaults to SEED_USER_DOMAIN)")
	return cmd
}

func withDB(ctx context.Context, fn func(context.Context, *sql.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer sqlDB.Close()
	return fn(ctx, sqlDB)
}
