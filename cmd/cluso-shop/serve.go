package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-shop/pkg/api"
	"github.com/dd0wney/cluso-shop/pkg/auth"
	"github.com/dd0wney/cluso-shop/pkg/clientip"
	"github.com/dd0wney/cluso-shop/pkg/config"
	"github.com/dd0wney/cluso-shop/pkg/logging"
	"github.com/dd0wney/cluso-shop/pkg/media"
	"github.com/dd0wney/cluso-shop/pkg/metrics"
	"github.com/dd0wney/cluso-shop/pkg/ratelimit"
	"github.com/dd0wney/cluso-shop/pkg/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API with graceful shutdown.

SIGINT or SIGTERM drains in-flight requests. SIGHUP re-reads the log
level and reloads the route authorisation rules from
security.route_rules_file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = a.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	logger := a.logger

	logger.Info("starting cluso-shop",
		logging.String("version", version),
		logging.String("env", cfg.Env),
		logging.String("addr", cfg.Server.Addr))
	if cfg.Auth.Ephemeral {
		logger.Warn("auth.jwt_secret not set, using a random secret; sessions end on restart")
	}

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	limitStore, err := a.limitStore(ctx)
	if err != nil {
		return err
	}
	defer limitStore.Close()

	images, err := a.mediaStorage(ctx)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	rules, err := config.LoadRouteRules(cfg.Security.RouteRulesFile)
	if err != nil {
		return err
	}

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	uploadDir := ""
	if cfg.Uploads.S3Bucket == "" {
		uploadDir = cfg.Uploads.Dir
	}

	srv, err := api.NewServer(api.Options{
		Store:       st,
		Tokens:      tokens,
		Media:       images,
		SecLog:      a.securityLog(),
		Logger:      logger,
		Metrics:     reg,
		MetricsPath: cfg.Metrics.Path,
		LimitStore:  limitStore,
		IPs:         clientip.FromList(cfg.Server.TrustedProxies),
		Rules:       rules,
		SiteURL:     cfg.Server.SiteURL,
		Production:  cfg.IsProduction(),
		CORSOrigins: cfg.Server.CORSOrigins,
		UploadLimit: cfg.Security.MaxUploadRequest,
		UploadDir:   uploadDir,
		SlowRequest: time.Duration(cfg.Security.SlowRequestMillis) * time.Millisecond,
	})
	if err != nil {
		return err
	}

	gs := server.NewGracefulServer(server.Config{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, srv, logger)
	gs.SetConfigReloadFunc(func() error {
		if fresh, err := config.Load(a.v, a.cfgFile); err == nil {
			logger.SetLevel(logging.ParseLevel(fresh.Logging.Level))
		} else {
			logger.Warn("config reload failed, keeping log level", logging.Error(err))
		}
		rules, err := config.LoadRouteRules(cfg.Security.RouteRulesFile)
		if err != nil {
			logger.Error("route rules reload rejected, keeping current rules", logging.Error(err))
			return err
		}
		srv.SetRouteRules(rules)
		logger.Info("route rules reloaded",
			logging.Int("protected", len(rules.Protected)),
			logging.Int("roles", len(rules.Roles)))
		return nil
	})

	if err := gs.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// limitStore returns the shared Redis counter store when configured so that
// several instances enforce one budget.
func (a *app) limitStore(ctx context.Context) (ratelimit.Store, error) {
	if a.cfg.Redis.URL == "" {
		return ratelimit.NewMemoryStore(time.Minute), nil
	}
	rs, err := ratelimit.NewRedisStore(ctx, ratelimit.RedisConfig{
		URL:    a.cfg.Redis.URL,
		Prefix: a.cfg.Redis.KeyPrefix,
	})
	if err != nil {
		return nil, err
	}
	a.logger.Info("rate limits shared through redis")
	return rs, nil
}

func (a *app) mediaStorage(ctx context.Context) (media.Storage, error) {
	up := a.cfg.Uploads
	if up.S3Bucket == "" {
		return media.NewLocalStorage(up.Dir, up.URLPrefix)
	}
	return media.NewS3Storage(ctx, media.S3Config{
		Bucket:       up.S3Bucket,
		Region:       up.S3Region,
		Prefix:       up.S3Prefix,
		Endpoint:     up.S3Endpoint,
		AccessKey:    up.S3AccessKey,
		SecretKey:    up.S3SecretKey,
		PublicURL:    up.S3PublicURL,
		UsePathStyle: up.S3PathStyle,
	})
}
