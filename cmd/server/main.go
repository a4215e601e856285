package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fictlabs/fict/internal/oauth"
	"github.com/fictlabs/fict/internal/session"
	"github.com/fictlabs/fict/internal/storage"
	"github.com/fictlabs/fict/internal/story"
	"github.com/fictlabs/fict/pkg/config"
	"github.com/fictlabs/fict/pkg/httpserver"
	"github.com/fictlabs/fict/pkg/logger"
	"github.com/fictlabs/fict/pkg/pg"
	"github.com/fictlabs/fict/pkg/requestid"
)

type appConfig struct {
	StoryLockTTL time.Duration `env:"STORY_LOCK_TTL" envDefault:"15m"`
}

func main() {
	ctx := context.Background()

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.NewFromConfig(logCfg, logger.WithAttr(slog.String("app", "fict")))
	slog.SetDefault(log)

	var pgCfg pg.Config
	config.MustLoad(&pgCfg)
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		log.ErrorContext(ctx, "failed to connect to postgres", logger.Error(err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, storage.Migrations(), pgCfg, log); err != nil {
		log.ErrorContext(ctx, "failed to apply migrations", logger.Error(err))
		os.Exit(1)
	}

	var appCfg appConfig
	config.MustLoad(&appCfg)

	users := storage.NewUsers(pool)
	sessions := storage.NewSessions(pool)
	stories := storage.NewStories(pool, appCfg.StoryLockTTL)

	var ghCfg oauth.GitHubConfig
	config.MustLoad(&ghCfg)
	github := oauth.NewGitHub(ghCfg)
	handshake := oauth.NewEngine(github, users, sessions, oauth.WithLogger(log))

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Get("/healthz", healthHandler(pg.Healthcheck(pool)))
	r.Mount(ghCfg.RoutePrefix, handshake.Routes())
	r.Mount("/stories", story.NewHandler(stories, log).Routes(session.RequireUser(sessions, log)))

	var httpCfg httpserver.Config
	config.MustLoad(&httpCfg)
	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))

	if err := srv.Run(ctx, r); err != nil {
		log.ErrorContext(ctx, "http server failed", logger.Error(err))
		os.Exit(1)
	}
}

func healthHandler(check func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := check(r.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
