package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/fitquest/internal/config"
	"github.com/cory-johannsen/fitquest/internal/storage/postgres"
)

// userStore is the part of the user repository set-role needs.
type userStore interface {
	GetByEmail(ctx context.Context, email string) (postgres.User, error)
	SetRole(ctx context.Context, id int64, role string) error
}

// userStoreOpener connects to the store named by a config file. The returned
// func releases the connection.
type userStoreOpener func(ctx context.Context, configPath string) (userStore, func(), error)

func openUserStore(ctx context.Context, configPath string) (userStore, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	return postgres.NewUserRepository(pool.DB(), cfg.Auth.BcryptCost), pool.Close, nil
}

func newSetRoleCmd(open userStoreOpener) *cobra.Command {
	var (
		configPath string
		email      string
		role       string
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "set-role",
		Short: "Set a user's role to player or admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !postgres.ValidRole(role) {
				return fmt.Errorf("%w: %q (want %q or %q)", postgres.ErrInvalidRole, role, postgres.RolePlayer, postgres.RoleAdmin)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			users, closeFn, err := open(ctx, configPath)
			if err != nil {
				return err
			}
			defer closeFn()

			u, err := users.GetByEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("looking up %s: %w", email, err)
			}
			if err := users.SetRole(ctx, u.ID, role); err != nil {
				return fmt.Errorf("setting role: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s (id=%d) role: %s -> %s\n", u.Email, u.ID, u.Role, role)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "configs/dev.yaml", "path to configuration file")
	f.StringVar(&email, "email", "", "email of the user to update (required)")
	f.StringVar(&role, "role", "", "new role: player or admin (required)")
	f.DurationVar(&timeout, "timeout", 30*time.Second, "database timeout")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}
