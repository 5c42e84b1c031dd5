package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"
	auth "storefront/internal/usecase/auth_usecase"

	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			log.Info("server starting", "port", cfg.Port, "db", cfg.DBDriver, "redis", cfg.RedisAddr != "")
			if err := server.Start(ctx, a.echo, ":"+cfg.Port, log); err != nil {
				return fmt.Errorf("server: %w", err)
			}
			log.Info("server stopped")
			return nil
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and seed the admin user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			gdb, err := db.Connect(cfg)
			if err != nil {
				return err
			}
			if err := db.Migrate(gdb); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			created, err := seedAdmin(cmd.Context(), cfg, infraRepo.NewUserGormRepository(gdb))
			if err != nil {
				return err
			}
			log.Info("migrate done", "admin_created", created)
			return nil
		},
	}
}

// 管理画面と同じ内容をJSONで出す
func newOrdersCommand() *cobra.Command {
	var adminName string

	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Print all users and orders as JSON (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			gdb, err := db.Connect(cfg)
			if err != nil {
				return err
			}
			userRepo := infraRepo.NewUserGormRepository(gdb)
			orderRepo := infraRepo.NewOrderGormRepository(gdb)

			actor, err := userRepo.FindByUsername(cmd.Context(), adminName)
			if err != nil {
				return err
			}
			if actor == nil {
				return fmt.Errorf("user %q not found", adminName)
			}

			uc := usecase.NewAdminOrderUsecase(userRepo, orderRepo, newLogger(cfg))
			out, err := uc.Dashboard(cmd.Context(), actor.ID)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVar(&adminName, "admin", "admin", "admin username")
	return cmd
}

func seedAdmin(ctx context.Context, cfg config.Config, userRepo repository.UserRepository) (bool, error) {
	return auth.EnsureAdmin(ctx, userRepo, auth.NewBcryptPasswordHasher(12), time.Now(), auth.AdminSeed{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	})
}
