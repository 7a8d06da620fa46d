// Package main is the entry point for the bookdir server. It loads
// configuration, connects the chosen database backend and Redis, wires the
// plugins together, and starts the HTTP server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keyxmakerx/bookdir/internal/app"
	"github.com/keyxmakerx/bookdir/internal/config"
	"github.com/keyxmakerx/bookdir/internal/database"
	"github.com/keyxmakerx/bookdir/internal/plugins/auth"
	"github.com/keyxmakerx/bookdir/internal/plugins/books"
)

func main() {
	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	// Configure structured logging based on environment.
	setupLogging(cfg)

	slog.Info("starting bookdir",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
		slog.String("db_driver", cfg.Database.Driver),
	)

	health := database.NewHealthChecker()

	// --- Connect to the database backend ---
	stores, closeDB, err := openStores(cfg, health)
	if err != nil {
		slog.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeDB()

	// --- Connect to Redis ---
	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to Redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer rdb.Close()
	slog.Info("connected to Redis")

	health.Add("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	stores.Sessions = auth.NewRedisSessionStore(rdb, cfg.Session.TTL)
	stores.Health = health

	// --- Create Application ---
	application := app.New(cfg, stores)
	application.RegisterRoutes()

	// --- Graceful Shutdown ---
	// Listen for interrupt/term signals to drain connections cleanly.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")

		// Give in-flight requests 10 seconds to complete.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := application.Echo.Shutdown(ctx); err != nil {
			slog.Error("server forced shutdown", slog.Any("error", err))
		}
	}()

	// --- Start Server ---
	if err := application.Start(); err != nil {
		// Echo returns http.ErrServerClosed on graceful shutdown, which is expected.
		slog.Info("server stopped", slog.Any("reason", err))
	}
}

// openStores connects the backend named by DB_DRIVER, prepares its schema,
// and returns the user and book repositories on it plus a close func.
func openStores(cfg *config.Config, health *database.HealthChecker) (app.Stores, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		client, err := database.NewMongo(cfg.Database)
		if err != nil {
			return app.Stores{}, nil, err
		}
		slog.Info("connected to MongoDB", slog.String("database", cfg.Database.MongoDatabase))

		db := client.Database(cfg.Database.MongoDatabase)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := auth.EnsureUserIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return app.Stores{}, nil, err
		}
		if err := books.EnsureBookIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return app.Stores{}, nil, err
		}

		health.Add("mongodb", func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		})

		stores := app.Stores{
			Users: auth.NewMongoUserRepository(db),
			Books: books.NewMongoBookRepository(db),
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		return stores, closeFn, nil

	default:
		db, err := database.NewMariaDB(cfg.Database)
		if err != nil {
			return app.Stores{}, nil, err
		}
		slog.Info("connected to MariaDB")

		if err := database.RunMigrations(db, cfg.Database.MigrationsPath); err != nil {
			db.Close()
			return app.Stores{}, nil, err
		}

		health.Add("mariadb", db.PingContext)

		stores := app.Stores{
			Users: auth.NewUserRepository(db),
			Books: books.NewBookRepository(db),
		}
		closeFn := func() { _ = db.Close() }
		return stores, closeFn, nil
	}
}

// setupLogging configures the global slog logger. Development uses text
// format for readability; production uses JSON for log aggregation.
func setupLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
