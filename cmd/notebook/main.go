package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/notebook/internal"
	"github.com/2beens/notebook/internal/config"
	"github.com/2beens/notebook/internal/logging"
	"github.com/2beens/notebook/pkg"
)

func main() {
	fmt.Println("starting ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	envFile := flag.String("env-file", ".env", "optional dotenv file with NOTEBOOK_DB_PASSWORD, SENTRY_DSN, HONEYCOMB_*")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "load env file [%s]: %s\n", *envFile, err)
	}

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %s\n", err)
		os.Exit(1)
	}

	if cfg.LogsPath != "" {
		if err := pkg.EnsureDir(filepath.Dir(cfg.LogsPath)); err != nil {
			fmt.Fprintf(os.Stderr, "logs dir: %s\n", err)
			os.Exit(1)
		}
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    false,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        os.Getenv("SENTRY_DSN"),
		SentryServerName: "notebook",
	})

	log.Warnf("---->> running in [%s] environment", *env)
	log.Debugf("using logs path: [%s]", cfg.LogsPath)
	log.Debugf("using postgres: %s:%s/%s", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDBName)

	honeycombEnabled := cfg.TracingEnabled || os.Getenv("HONEYCOMB_ENABLED") == "true"
	if honeycombEnabled {
		if honeycombApiKey := os.Getenv("HONEYCOMB_API_KEY"); honeycombApiKey == "" {
			log.Warnln("HONEYCOMB_API_KEY env var not set")
		}
	} else {
		log.Debugln("honeycomb tracing disabled")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := internal.NewApp(ctx, internal.NewAppParams{
		Config:                  cfg,
		HoneycombTracingEnabled: honeycombEnabled,
	})
	if err != nil {
		log.Errorf("new app: %s", err)
		fmt.Fprintf(os.Stderr, "notebook: %s\n", err)
		os.Exit(1)
	}

	runErr := app.Run(ctx)
	if runErr != nil {
		log.Errorf("notebook stopped: %s", runErr)
	}

	app.GracefulShutdown()

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "notebook: %s\n", runErr)
		os.Exit(1)
	}
}
