package main

import (
	"net/http"
	"os"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/moviematch/recommender/handlers"
	"github.com/moviematch/recommender/lib/config"
	"github.com/moviematch/recommender/lib/db"
	"github.com/moviematch/recommender/lib/health"
	"github.com/moviematch/recommender/lib/jobs"
	"github.com/moviematch/recommender/lib/lock"
	"github.com/moviematch/recommender/lib/recommend"
	"github.com/moviematch/recommender/lib/tmdb"
	"gorm.io/gorm"
)

type App struct {
	db     *gorm.DB
	router *chi.Mux
	logger *slog.Logger
}

func NewApp() (*App, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	gdb, err := db.Open(cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(gdb, logger); err != nil {
		return nil, err
	}

	tmdbClient := tmdb.NewClient(cfg.TMDBAPIKey, logger)
	recommender := recommend.New(gdb, tmdbClient, logger)
	maintenance := jobs.New(gdb, tmdbClient, logger)
	locks := lock.New(logger)

	app := &App{
		db:     gdb,
		router: chi.NewRouter(),
		logger: logger,
	}

	app.setupRoutes(recommender, maintenance, locks)
	return app, nil
}

func (a *App) setupRoutes(recommender *recommend.Recommender, maintenance *jobs.Jobs, locks *lock.GroupLock) {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)

	a.router.Get("/healthz", health.Check(a.db))
	a.router.Post("/recommendations/generate", handlers.HandleGenerate(recommender, locks))
	a.router.Get("/groups/{groupID}/recommendations", handlers.HandleGetRecommendations(a.db))

	a.router.Route("/cron", func(r chi.Router) {
		r.Post("/catalog", handlers.HandleCatalogImport(maintenance))
		r.Post("/crew", handlers.HandleCrewSync(maintenance))
		r.Post("/cleanup", handlers.HandleCleanup(maintenance))
	})
}

func main() {
	app, err := NewApp()
	if err != nil {
		slog.Error("Failed to start", slog.Any("error", err))
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	app.logger.Info("Starting server", slog.String("port", port))
	if err := http.ListenAndServe(":"+port, app.router); err != nil {
		app.logger.Error("Server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
