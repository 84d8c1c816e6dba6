package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/notebook/internal/config"
	"github.com/2beens/notebook/internal/middleware"
	"github.com/2beens/notebook/internal/notes"
	"github.com/2beens/notebook/internal/storage"
	"github.com/2beens/notebook/internal/telemetry/metrics"
	"github.com/2beens/notebook/internal/telemetry/tracing"
	"github.com/2beens/notebook/internal/ui"
)

type App struct {
	config   *config.Config
	gateway  *storage.Gateway
	manager  *notes.Manager
	prompter *ui.Prompter

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	metricsServer  *metrics.Server
	otelShutdown   func()

	serveMetricsOnce sync.Once
	shutdownOnce     sync.Once
}

type NewAppParams struct {
	Config                  *config.Config
	HoneycombTracingEnabled bool
}

// NewApp connects to storage and prepares the UI. Any failure here is
// fatal for the caller: nothing is left open when an error is returned.
func NewApp(
	ctx context.Context,
	params NewAppParams,
) (_ *App, err error) {
	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "notebook")
	if err != nil {
		return nil, fmt.Errorf("honeycomb setup: %w", err)
	}

	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("notebook", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	a := &App{
		config:         params.Config,
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
		prompter:       ui.NewPrompter(),
	}
	defer func() {
		if err != nil {
			a.GracefulShutdown()
		}
	}()

	a.gateway = storage.NewGateway(storage.Params{
		Host:           params.Config.PostgresHost,
		Port:           params.Config.PostgresPort,
		User:           params.Config.PostgresUser,
		Password:       params.Config.PostgresPassword,
		Database:       params.Config.PostgresDBName,
		TracingEnabled: params.HoneycombTracingEnabled,
	}, metricsManager)
	if err = a.gateway.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initialize storage: %w", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		a.gateway.Pool(),
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	if err = promRegistry.Register(pgxpoolCollector); err != nil {
		return nil, fmt.Errorf("register pgxpool collector: %w", err)
	}

	if params.Config.MetricsEnabled {
		router := metrics.NewRouter(promRegistry)
		router.Use(
			middleware.PanicRecovery(metricsManager),
			middleware.LogRequest(),
		)
		a.metricsServer, err = metrics.NewServer(
			params.Config.PrometheusMetricsHost,
			params.Config.PrometheusMetricsPort,
			router,
		)
		if err != nil {
			return nil, fmt.Errorf("metrics server: %w", err)
		}
	}

	a.manager = notes.NewManager(notes.NewRepo(a.gateway), a.prompter, metricsManager)

	return a, nil
}

func (a *App) Gateway() *storage.Gateway {
	return a.gateway
}

// MetricsAddr is empty when metrics are disabled.
func (a *App) MetricsAddr() string {
	if a.metricsServer == nil {
		return ""
	}
	return a.metricsServer.Addr()
}

// ServeMetrics starts the /metrics endpoint when metrics are enabled.
func (a *App) ServeMetrics() {
	if a.metricsServer == nil {
		return
	}
	a.serveMetricsOnce.Do(a.metricsServer.Serve)
}

// Run blocks until the user quits, ctx is cancelled or a storage failure
// stops the UI. Only the last case returns an error.
func (a *App) Run(ctx context.Context) error {
	a.ServeMetrics()
	a.metricsManager.GaugeLifeSignal.Set(1)

	program := tea.NewProgram(
		ui.NewModel(ctx, a.manager, a.prompter),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	final, err := program.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			log.Debugf("ui stopped: %s", ctx.Err())
			return nil
		}
		return fmt.Errorf("run ui: %w", err)
	}

	if m, ok := final.(ui.Model); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}

// GracefulShutdown closes storage and flushes telemetry. Safe to call
// more than once.
func (a *App) GracefulShutdown() {
	a.shutdownOnce.Do(a.shutdown)
}

func (a *App) shutdown() {
	log.Debug("graceful shutdown initiated ...")

	// unblock an operation waiting on a dialog before closing storage
	a.prompter.Close()
	a.metricsManager.GaugeLifeSignal.Set(0)

	a.otelShutdown()
	log.Trace("otel shut down ...")

	if a.gateway != nil {
		a.gateway.Shutdown()
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	if a.metricsServer != nil {
		ctx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			log.Errorf("failed to gracefully shutdown metrics server: %s", err)
		}
	}

	log.Warnln("notebook shut down")
}
