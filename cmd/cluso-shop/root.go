package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dd0wney/cluso-shop/pkg/config"
	"github.com/dd0wney/cluso-shop/pkg/logging"
	"github.com/dd0wney/cluso-shop/pkg/seclog"
	"github.com/dd0wney/cluso-shop/pkg/store"
	"github.com/dd0wney/cluso-shop/pkg/store/memory"
	"github.com/dd0wney/cluso-shop/pkg/store/postgres"
)

// app is the state shared by every subcommand once the config is loaded.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *logging.ZapLogger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:           "cluso-shop",
		Short:         "Storefront and admin API",
		Version:       version + " (" + commit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (YAML); environment variables override it")
	flags.String("env", "", "execution mode: development, production or test")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	_ = a.v.BindPFlag("env", flags.Lookup("env"))
	_ = a.v.BindPFlag("logging.level", flags.Lookup("log-level"))

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newLogsCmd(a),
		newAdminCmd(a),
	)
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.NewZapLogger(os.Stdout, logging.ParseLevel(cfg.Logging.Level), logging.Format(cfg.Logging.Format))
	logging.SetDefaultLogger(a.logger)
	return nil
}

// securityLog builds the security event logger for the configured mode.
func (a *app) securityLog() *seclog.Logger {
	return seclog.New(seclog.Config{
		Dir:         a.cfg.Logging.SecurityDir,
		Development: a.cfg.IsDevelopment(),
	}, seclog.WithConsole(a.logger))
}

// openStore connects to Postgres, or falls back to the in-memory store when
// no database URL is configured.
func (a *app) openStore(ctx context.Context) (store.Store, error) {
	db := a.cfg.Database
	if db.URL == "" {
		if a.cfg.IsProduction() {
			return nil, fmt.Errorf("database.url is required in production")
		}
		a.logger.Warn("no database configured, using in-memory store")
		return memory.New(), nil
	}
	if db.AutoMigrate {
		if err := postgres.Migrate(db.URL, postgres.Up); err != nil {
			return nil, err
		}
		a.logger.Info("database migrations applied")
	}
	return postgres.Open(ctx, postgres.Config{
		URL:            db.URL,
		MaxConns:       db.MaxConns,
		ConnectTimeout: db.ConnectTimeout,
	})
}

// requireDatabase opens Postgres for operator commands that must persist.
func (a *app) requireDatabase(ctx context.Context) (*postgres.Store, error) {
	if a.cfg.Database.URL == "" {
		return nil, fmt.Errorf("database.url (or DATABASE_URL) is required")
	}
	return postgres.Open(ctx, postgres.Config{
		URL:            a.cfg.Database.URL,
		MaxConns:       2,
		ConnectTimeout: a.cfg.Database.ConnectTimeout,
	})
}
