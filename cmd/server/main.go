package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/UkralStul/course-qa-service/internal/auth"
	"github.com/UkralStul/course-qa-service/internal/config"
	"github.com/UkralStul/course-qa-service/internal/logging"
	"github.com/UkralStul/course-qa-service/internal/storage/sqlstore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "qa-forum",
		Short:         "Course Q&A forum backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to qa-forum.yaml (default: $QA_CONFIG or ./qa-forum.yaml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the SQL schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate(cmd.Context(), configPath)
			},
		},
		newTokenCmd(&configPath),
	)
	return root
}

// loadConfig читает конфигурацию и настраивает логгер.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	return cfg, nil
}

func sqlConfig(cfg *config.Config) sqlstore.Config {
	return sqlstore.Config{
		Driver:            cfg.Database.Driver,
		DSN:               cfg.Database.URL,
		MaxOpenConns:      cfg.Database.MaxOpenConns,
		MaxIdleConns:      cfg.Database.MaxIdleConns,
		ConnMaxLifetime:   cfg.Database.ConnMaxLifetime,
		ConnectRetries:    cfg.Database.ConnectRetries,
		ConnectRetryDelay: cfg.Database.ConnectRetryDelay,
		LogLevel:          logging.GormLevel(),
	}
}

func runMigrate(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Storage.Type != config.StorageSQL {
		return fmt.Errorf("migrate requires sql storage, got %q", cfg.Storage.Type)
	}

	store, err := sqlstore.Open(ctx, sqlConfig(cfg))
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}
	logrus.Info("schema is up to date")
	return nil
}

func newTokenCmd(configPath *string) *cobra.Command {
	var (
		userID int64
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed access token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if userID <= 0 {
				return fmt.Errorf("--user must be a positive id, got %s", strconv.FormatInt(userID, 10))
			}
			if ttl == 0 {
				ttl = cfg.Auth.TokenTTL
			}
			token, err := auth.New(cfg.Auth.JWTSecret, cfg.Auth.AllowClientUserID).Issue(userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user id (token subject)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default: auth.token_ttl)")
	return cmd
}
