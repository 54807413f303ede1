package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/inkpress/blog/application"
	"github.com/inkpress/inkpress/blog/domain"
	"github.com/inkpress/inkpress/blog/persistence"
	"github.com/inkpress/inkpress/blog/persistence/postgres"
	"github.com/inkpress/inkpress/internal/config"
	"github.com/inkpress/inkpress/internal/middleware"
	"github.com/inkpress/inkpress/internal/rest"
	"github.com/inkpress/inkpress/shared/db/sqlite"
	"github.com/inkpress/inkpress/shared/notify"
	"github.com/inkpress/inkpress/shared/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the blog server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	postRepo, profileRepo, closeDB, err := openRepositories(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	notifier, closeNotifier, err := openNotifier()
	if err != nil {
		return err
	}
	defer closeNotifier()

	store := storage.NewFSStore(cfg.Media.Root, cfg.Media.BaseURL)

	postService := application.NewPostService(postRepo, store, notifier)
	profileService := application.NewProfileService(profileRepo, store)
	auth := middleware.NewAuthenticator([]byte(cfg.Auth.JWTSecret))

	router := gin.New()
	router.Use(middleware.RequestLogger())
	router.Use(gin.CustomRecovery(middleware.HandlePanics()))
	router.Static("/media", cfg.Media.Root)

	rest.New(postService, profileService, notifier, auth).Register(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}

func openRepositories(ctx context.Context) (domain.PostRepository, domain.ProfileRepository, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return postgres.NewPostRepository(pool), postgres.NewProfileRepository(pool), pool.Close, nil

	default:
		database := sqlite.NewSQLiteDB(&sqlite.Config{Path: cfg.Database.DSN})
		if err := database.Connect(); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to sqlite: %w", err)
		}
		closeDB := func() {
			if err := database.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close database")
			}
		}
		return persistence.NewPostRepository(database.DB()), persistence.NewProfileRepository(database.DB()), closeDB, nil
	}
}

func openNotifier() (domain.Notifier, func(), error) {
	if cfg.NATS.URL == "" {
		broker := notify.NewBroker()
		return broker, broker.Close, nil
	}

	nc, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return notify.NewNATSNotifier(nc), nc.Close, nil
}
