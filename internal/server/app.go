// Package server wires the jobtracker application: storage, services, the
// REST API, the gRPC health endpoint and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/jobtracker/internal/logging"
	"github.com/dmitrijs2005/jobtracker/internal/server/ai"
	"github.com/dmitrijs2005/jobtracker/internal/server/auth"
	"github.com/dmitrijs2005/jobtracker/internal/server/config"
	"github.com/dmitrijs2005/jobtracker/internal/server/events"
	"github.com/dmitrijs2005/jobtracker/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/jobtracker/internal/server/rest"
	"github.com/dmitrijs2005/jobtracker/internal/server/services"
	"github.com/dmitrijs2005/jobtracker/internal/server/storage"
	"github.com/gin-gonic/gin"

	gs "github.com/dmitrijs2005/jobtracker/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	publisher   events.Publisher
	httpServer  *http.Server
	health      *gs.HealthServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	rm, err := repomanager.New(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	publisher := newPublisher(ctx, c, logger)

	archive, err := storage.New(ctx, storage.Options{
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		_ = publisher.Close()
		_ = rm.Close()
		return nil, fmt.Errorf("resume archive: %w", err)
	}

	var model ai.Model
	if c.GeminiAPIKey != "" {
		m, err := ai.NewGeminiModel(ctx, c.GeminiAPIKey, c.GeminiModel)
		if err != nil {
			logger.Warn(ctx, "gemini client unavailable, analyses will be degraded", "error", err)
		} else {
			model = m
		}
	}

	tokens := auth.NewTokenIssuer(c.SecretKey, c.AccessTokenValidityDuration)
	us := services.NewUserService(rm, tokens)
	js := services.NewJobService(rm, publisher, logger.With("module", "jobs"))
	as := services.NewAnalysisService(
		ai.NewAssistant(model, c.AITimeout, logger.With("module", "ai")),
		archive,
		logger.With("module", "analysis"),
	)

	if logging.ParseLevel(c.LogLevel) != slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	api := rest.NewServer(us, js, as, tokens, logger, rest.Options{CORSOrigins: c.CORSOrigins})

	app := &App{
		config:      c,
		logger:      logger,
		repomanager: rm,
		publisher:   publisher,
		httpServer: &http.Server{
			Addr:              c.EndpointAddrHTTP,
			Handler:           api.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	if c.EndpointAddrGRPC != "" {
		app.health = gs.NewHealthServer(c.EndpointAddrGRPC, logger)
	}
	return app, nil
}

// newPublisher falls back to the no-op publisher when the broker is not
// configured or cannot be reached.
func newPublisher(ctx context.Context, c *config.Config, logger logging.Logger) events.Publisher {
	if c.RabbitMQURL == "" {
		return events.Nop{}
	}
	p, err := events.NewAMQPPublisher(c.RabbitMQURL)
	if err != nil {
		logger.Warn(ctx, "rabbitmq unavailable, job events disabled", "error", err)
		return events.Nop{}
	}
	return p
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// startHTTPServer returns only after in-flight requests have drained or
// the shutdown deadline passed.
func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "Starting HTTP server", "address", app.httpServer.Addr)
		errCh <- app.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error(ctx, "http server", "error", err)
		}
		cancelFunc()
		return
	case <-ctx.Done():
	}

	app.logger.Info(context.Background(), "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "http shutdown", "error", err)
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, "grpc server", "error", err)
		cancelFunc()
	}
}

// Run serves until a signal arrives or a server fails, then releases
// everything the app holds.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.health != nil {
		app.health.SetServing(true)

		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()
	app.close()
}

func (app *App) close() {
	ctx := context.Background()
	if err := app.publisher.Close(); err != nil {
		app.logger.Warn(ctx, "closing publisher", "error", err)
	}
	if err := app.repomanager.Close(); err != nil {
		app.logger.Warn(ctx, "closing database", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
