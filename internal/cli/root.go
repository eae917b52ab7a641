// Package cli is the operator command line: schema migrations, key generation and
// account maintenance outside the web flow.
package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/andrasnagy-data/feedback/internal/components/feedback"
	"github.com/andrasnagy-data/feedback/internal/components/users"
	"github.com/andrasnagy-data/feedback/internal/shared/config"
	"github.com/andrasnagy-data/feedback/internal/shared/database"
	"github.com/andrasnagy-data/feedback/internal/shared/logging"
	"github.com/andrasnagy-data/feedback/internal/shared/session"
)

var (
	cfg    *config.Config
	logger zerolog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:           "feedback-admin",
	Short:         "Feedback - operator tools",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// keygen runs before a SECRET_KEY exists
		if cmd.Name() == "keygen" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.NewConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger, _ = logging.NewLogger(cfg)
		return nil
	},
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.AddCommand(migrateCmd, keygenCmd, usersCmd)
}

// Services holds what the account commands need
type Services struct {
	Pool     *pgxpool.Pool
	Users    *users.Service
	Feedback *feedback.Service
	Sessions session.Manager

	closeSessions func() error
}

// initServices connects to the database and builds the services
func initServices(ctx context.Context) (*Services, error) {
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	usersSvc, err := users.NewService(users.NewRepo(pool), cfg, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	sessions, closeSessions, err := session.New(ctx, cfg, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &Services{
		Pool:          pool,
		Users:         usersSvc,
		Feedback:      feedback.NewService(feedback.NewRepo(pool), logger),
		Sessions:      sessions,
		closeSessions: closeSessions,
	}, nil
}

// Close closes all resources
func (s *Services) Close() {
	if s.closeSessions != nil {
		_ = s.closeSessions()
	}
	if s.Pool != nil {
		s.Pool.Close()
	}
}
