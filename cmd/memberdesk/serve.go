package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/pgxstore"
	"github.com/alexedwards/scs/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/memberdesk/memberdesk/internal/auth"
	"github.com/memberdesk/memberdesk/internal/config"
	httpapp "github.com/memberdesk/memberdesk/internal/http"
	"github.com/memberdesk/memberdesk/internal/http/handlers"
	"github.com/memberdesk/memberdesk/internal/identity"
	"github.com/memberdesk/memberdesk/internal/logging"
	"github.com/memberdesk/memberdesk/internal/metrics"
	"github.com/memberdesk/memberdesk/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	logger, err := logging.BootstrapFromEnv("serve")
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	q := store.New(pool)
	provider := identity.NewLocalProvider(q, cfg.SessionTTL)

	sessions := scs.New()
	sessions.Store = pgxstore.New(pool)
	sessions.Lifetime = cfg.SessionTTL
	sessions.Cookie.HttpOnly = true
	sessions.Cookie.Secure = cfg.AuthCookieSecure
	sessions.Cookie.SameSite = http.SameSiteLaxMode

	resolver := auth.NewResolver(provider, cfg.RoleCacheTTL)

	h := &handlers.Handlers{
		Cfg:      cfg,
		Q:        q,
		Pool:     pool,
		Sessions: sessions,
		Provider: provider,
		Reconciler: &auth.Reconciler{
			Members:     store.MemberDirectory{Q: q},
			Provider:    provider,
			LoginDomain: cfg.LoginDomain,
			Logger:      logger,
		},
		Changer: &auth.PasswordChanger{
			Provider:    provider,
			Audit:       store.PasswordAudit{Q: q},
			LoginDomain: cfg.LoginDomain,
			Logger:      logger,
		},
		Roles:  resolver,
		Logger: logger,
	}

	srv, err := httpapp.NewEchoServer(h)
	if err != nil {
		return err
	}

	metricsSrv, metricsErr := metrics.StartServer(ctx, cfg.MetricsAddr)

	g, gctx := errgroup.WithContext(ctx)

	// Role cache entries die with their session.
	g.Go(func() error {
		events, release := provider.Subscribe()
		defer release()
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				if ev.Kind == auth.EventSignedOut {
					resolver.Invalidate(ev.Session.Principal.ID)
				}
			}
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.SessionSweep)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n, err := provider.SweepExpired(gctx); err != nil {
					logger.Warn("session sweep failed", "error", err)
				} else if n > 0 {
					logger.Info("swept expired sessions", "count", n)
				}
			}
		}
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
		case err, ok := <-metricsErr:
			if ok && err != nil {
				logger.Warn("metrics server failed", "error", err)
			}
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		return nil
	})

	return g.Wait()
}
