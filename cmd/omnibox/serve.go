package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/omniboxai/omnibox/internal/ai"
	"github.com/omniboxai/omnibox/internal/config"
	"github.com/omniboxai/omnibox/internal/conversation"
	"github.com/omniboxai/omnibox/internal/db"
	dbsqlc "github.com/omniboxai/omnibox/internal/db/sqlc"
	"github.com/omniboxai/omnibox/internal/followup"
	"github.com/omniboxai/omnibox/internal/handlers"
	"github.com/omniboxai/omnibox/internal/logger"
	"github.com/omniboxai/omnibox/internal/notify"
	"github.com/omniboxai/omnibox/internal/orchestrator"
	"github.com/omniboxai/omnibox/internal/poller"
	"github.com/omniboxai/omnibox/internal/provider"
	"github.com/omniboxai/omnibox/internal/provider/adapters/gmailbox"
	"github.com/omniboxai/omnibox/internal/provider/adapters/graphdm"
	"github.com/omniboxai/omnibox/internal/provider/adapters/mailgunbox"
	"github.com/omniboxai/omnibox/internal/server"
	"github.com/omniboxai/omnibox/internal/store"
	"github.com/omniboxai/omnibox/internal/tenant"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server, poller and follow-up scheduler",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,
			provideDBQueries,
			provideRegistry,
			provideHub,
			provideTenantService,
			provideStoreService,
			provideContextService,
			provideAIService,
			provideLeads,
			provideCheckpoints,
			provideOrchestrator,
			provideFollowUpService,
			providePoller,
			provideServer,
			provideServerHandler(providePingHandler),
			provideServerHandler(provideConversationsHandler),
			provideServerHandler(provideProvidersHandler),
			provideServerHandler(provideLeadsHandler),
			provideServerHandler(provideWSHandler),
		),
		fx.Invoke(
			startServer,
			startScheduler,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { conn.Close(); return nil }})
	return conn, nil
}

func provideDBQueries(conn *pgxpool.Pool) *dbsqlc.Queries { return dbsqlc.New(conn) }

func provideRegistry(log *slog.Logger) *provider.Registry {
	registry := provider.NewRegistry()
	registry.Register(gmailbox.New(log))
	registry.Register(graphdm.New(log))
	registry.Register(mailgunbox.New(log))
	return registry
}

func provideHub(log *slog.Logger) *notify.Hub { return notify.NewHub(log) }

func provideTenantService(log *slog.Logger, queries *dbsqlc.Queries) *tenant.Service {
	return tenant.NewService(log, queries)
}

func provideStoreService(log *slog.Logger, queries *dbsqlc.Queries) *store.Service {
	return store.NewService(log, queries)
}

func provideContextService(log *slog.Logger, queries *dbsqlc.Queries) *conversation.Service {
	return conversation.NewService(log, queries)
}

func provideAIService(log *slog.Logger, cfg config.Config) *ai.Service {
	return ai.NewService(log, cfg.OpenAI)
}

func provideLeads(log *slog.Logger, queries *dbsqlc.Queries) *followup.Leads {
	return followup.NewLeads(log, queries)
}

func provideCheckpoints(log *slog.Logger, queries *dbsqlc.Queries) *poller.Checkpoints {
	return poller.NewCheckpoints(log, queries)
}

func provideOrchestrator(log *slog.Logger, cfg config.Config, messages *store.Service, contexts *conversation.Service, aiSvc *ai.Service) *orchestrator.Orchestrator {
	return orchestrator.New(log, messages, contexts, aiSvc, aiSvc, cfg.Mail.SystemSender)
}

func provideFollowUpService(log *slog.Logger, tenants *tenant.Service, leads *followup.Leads, aiSvc *ai.Service, registry *provider.Registry, hub *notify.Hub) *followup.Service {
	return followup.NewService(log, tenants, leads, aiSvc, registry, hub)
}

func providePoller(log *slog.Logger, cfg config.Config, registry *provider.Registry, tenants *tenant.Service, messages *store.Service, contexts *conversation.Service, checkpoints *poller.Checkpoints, orch *orchestrator.Orchestrator, hub *notify.Hub) *poller.Poller {
	return poller.New(log, registry, tenants, messages, contexts, checkpoints, orch, hub, cfg.Mail.SystemSender, cfg.Poll.FetchLimit, cfg.Poll.Workers)
}

func providePingHandler(log *slog.Logger) *handlers.PingHandler {
	return handlers.NewPingHandler(log)
}

func provideConversationsHandler(log *slog.Logger, messages *store.Service, contexts *conversation.Service) *handlers.ConversationsHandler {
	return handlers.NewConversationsHandler(log, messages, contexts)
}

func provideProvidersHandler(log *slog.Logger, registry *provider.Registry, tenants *tenant.Service) *handlers.ProvidersHandler {
	return handlers.NewProvidersHandler(log, registry, tenants)
}

func provideLeadsHandler(log *slog.Logger, leads *followup.Leads) *handlers.LeadsHandler {
	return handlers.NewLeadsHandler(log, leads)
}

func provideWSHandler(log *slog.Logger, hub *notify.Hub) *handlers.WSHandler {
	return handlers.NewWSHandler(log, hub)
}

type serverParams struct {
	fx.In
	Logger   *slog.Logger
	Config   config.Config
	Handlers []server.Handler `group:"server_handlers"`
}

func provideServer(p serverParams) *server.Server {
	return server.NewServer(p.Logger, p.Config.Server.Addr, p.Config.Auth.JWTSecret, p.Handlers)
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, cfg config.Config, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting http server", slog.String("addr", cfg.Server.Addr))
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func startScheduler(lc fx.Lifecycle, logger *slog.Logger, cfg config.Config, p *poller.Poller, fu *followup.Service, hub *notify.Hub) {
	c := cron.New()

	if _, err := c.AddFunc(fmt.Sprintf("@every %s", cfg.Poll.Interval()), func() {
		p.RunOnce(context.Background())
	}); err != nil {
		logger.Error("failed to schedule poll pass", slog.Any("error", err))
	}
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", cfg.FollowUp.Interval()), func() {
		fu.RunOnce(context.Background())
	}); err != nil {
		logger.Error("failed to schedule follow-up pass", slog.Any("error", err))
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting scheduler",
				slog.Duration("poll_interval", cfg.Poll.Interval()),
				slog.Duration("followup_interval", cfg.FollowUp.Interval()))
			// Kick one pass right away so a fresh deploy does not sit idle
			// for a full interval.
			go p.RunOnce(context.Background())
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopped := c.Stop()
			select {
			case <-stopped.Done():
			case <-ctx.Done():
			}
			hub.Close()
			return nil
		},
	})
}
