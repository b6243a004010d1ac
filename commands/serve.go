package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"yatube/app/cache"
	"yatube/app/logging"
	"yatube/app/middleware"
	"yatube/app/routes"
	"yatube/app/services"
	"yatube/app/supervisor"
)

const limiterCleanupInterval = 5 * time.Minute

// Serve runs the site until ctx is canceled.
func Serve(ctx context.Context, env *Env) error {
	cfg := env.Config
	s, err := openStore(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.close(); err != nil {
			logging.Err(err).Msg("failed to close store")
		}
	}()

	deps := routes.Deps{Config: cfg, Store: s.Store}
	if cfg.Cache.Enabled {
		pages, err := cache.New(cfg.Cache.MaxCost, cfg.Cache.TTL)
		if err != nil {
			return err
		}
		defer pages.Close()
		deps.Pages = pages
	}
	if cfg.Auth.LoginRate > 0 {
		deps.Limiter = middleware.NewRateLimiter(cfg.Auth.LoginRate, cfg.Auth.LoginBurst)
	}

	handler, err := routes.SetupRoutes(deps)
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddWeb(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	if s.db != nil && !cfg.Database.InMemory && cfg.Database.GCInterval > 0 {
		tree.AddMaintenance(supervisor.NewPeriodic("badger-gc", cfg.Database.GCInterval, supervisor.BadgerGC(s.db)))
	}
	if cfg.Session.SweepInterval > 0 {
		auth := services.NewAuthService(s.Users, s.Sessions, cfg.Auth.BcryptCost, cfg.Session.TTL)
		tree.AddMaintenance(supervisor.NewPeriodic("session-sweep", cfg.Session.SweepInterval, supervisor.SweepSessions(auth)))
	}
	if deps.Limiter != nil {
		tree.AddMaintenance(supervisor.NewPeriodic("ratelimit-cleanup", limiterCleanupInterval, supervisor.CleanupLimiter(deps.Limiter)))
	}

	logging.Info().
		Str("addr", cfg.Server.Addr).
		Str("driver", cfg.Database.Driver).
		Bool("page_cache", deps.Pages != nil).
		Msg("starting yatube")

	err = tree.Serve(ctx)
	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service failed to stop")
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("yatube stopped")
	return nil
}
