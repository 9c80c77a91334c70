package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DenisKhanov/CitySupport/internal/logcfg"
	apihttp "github.com/DenisKhanov/CitySupport/internal/server/api/http"
	"github.com/DenisKhanov/CitySupport/internal/server/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	envFile         = "server.env"
	shutdownTimeout = 5 * time.Second
)

// App represents the application structure responsible for initializing dependencies
// and running the HTTP server.
type App struct {
	serviceProvider *serviceProvider // The service provider for dependency injection
	config          *config.Config   // The configuration object for the application
	router          *apihttp.Router  // Routes and middleware
	server          *http.Server     // The HTTP server instance
}

// NewApp creates a new instance of the application.
func NewApp(ctx context.Context) (*App, error) {
	app := &App{}
	err := app.initDeps(ctx)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// initDeps initializes all dependencies required by the application.
func (a *App) initDeps(ctx context.Context) error {
	inits := []func(context.Context) error{
		a.initConfig,
		a.initServiceProvider,
		a.initHTTPServer,
	}

	for _, f := range inits {
		err := f(ctx)
		if err != nil {
			return err
		}
	}

	return nil
}

// initConfig initializes the application configuration.
func (a *App) initConfig(_ context.Context) error {
	cfg, err := config.NewConfig(envFile, os.Args[1:])
	if err != nil {
		return err
	}
	a.config = cfg
	logcfg.RunLoggerConfig(a.config.EnvLogsLevel, a.config.EnvLogFileName)
	return nil
}

// initServiceProvider initializes the service provider for dependency injection.
func (a *App) initServiceProvider(_ context.Context) error {
	a.serviceProvider = newServiceProvider(a.config)
	return nil
}

// initHTTPServer initializes the HTTP server with middleware and routes.
func (a *App) initHTTPServer(ctx context.Context) error {
	limits := apihttp.DefaultLimits
	limits.TrustProxy = a.config.TrustProxy
	a.router = apihttp.NewRouter(
		a.serviceProvider.Handler(ctx),
		a.serviceProvider.Metrics(),
		a.config.CORSOrigins(),
		limits,
	)
	a.server = &http.Server{
		Addr:              a.config.HTTPServer,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Run serves HTTP until SIGINT or SIGTERM, snapshotting the memory store
// periodically. On shutdown in-flight requests get a grace period and the
// tickets are saved one last time.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logrus.Infof("HTTP server started on: %s", a.config.HTTPServer)
		if err := a.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.router.Stop()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("HTTP server shutdown error")
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	if state := a.serviceProvider.tickets; state != nil {
		g.Go(func() error {
			ticker := time.NewTicker(a.config.SnapshotInterval())
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if err := state.SaveBatchToFile(); err != nil {
						logrus.Error("Error while saving tickets on ticker: ", err)
					}
				}
			}
		})
	}

	err := g.Wait()
	a.serviceProvider.Close()
	logrus.Info("Server exited")
	return err
}
