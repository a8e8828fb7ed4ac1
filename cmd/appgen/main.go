// Command appgen runs the application-generation orchestrator: the HTTP
// surface (internal/httpapi), the model-driven orchestrator
// (internal/orchestrator), and, when Temporal is enabled, the durable
// heal workflow's worker (internal/healworkflow).
//
// Grounded on cmd/loom/main.go's wiring order: load config, initialize
// telemetry, construct the domain components, start the HTTP server,
// wait on an interrupt signal, shut down with a bounded timeout.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/redis/go-redis/v9"

	"github.com/appgenhq/appgen/internal/backendproc"
	"github.com/appgenhq/appgen/internal/config"
	ctxload "github.com/appgenhq/appgen/internal/context"
	"github.com/appgenhq/appgen/internal/database"
	"github.com/appgenhq/appgen/internal/errorstore"
	"github.com/appgenhq/appgen/internal/executor"
	"github.com/appgenhq/appgen/internal/healworkflow"
	"github.com/appgenhq/appgen/internal/httpapi"
	"github.com/appgenhq/appgen/internal/orchestrator"
	"github.com/appgenhq/appgen/internal/preview"
	"github.com/appgenhq/appgen/internal/provider"
	"github.com/appgenhq/appgen/internal/telemetry"
	"github.com/appgenhq/appgen/internal/tools"
	"github.com/appgenhq/appgen/internal/workspace"
)

const version = "0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("appgen v%s\n", version)
		return
	}

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		log.Fatalf("failed to load config from %s: %v", *configPath, err)
	}

	apiKey, err := config.ResolveAPIKey(cfg)
	if err != nil {
		log.Fatalf("failed to resolve provider api key: %v", err)
	}
	cfg.Provider.APIKey = apiKey

	if cfg.Database.URL != "" && os.Getenv("DATABASE_URL") == "" {
		os.Setenv("DATABASE_URL", cfg.Database.URL)
	}

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "otel-collector:4317"
	}
	shutdownTelemetry, err := telemetry.InitTelemetry(context.Background(), "appgen", otelEndpoint)
	if err != nil {
		log.Printf("warning: failed to initialize telemetry: %v", err)
	} else {
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				log.Printf("error shutting down telemetry: %v", err)
			}
		}()
	}

	db, err := database.NewFromEnv()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	shell := executor.NewShell()
	files := workspace.NewStore(db, shell, cfg.Workspace.BaseDir)

	errStore := errorstore.NewStore(db, files, cfg.Workspace.BaseDir)

	var bridge *errorstore.RuntimeBridge
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		bridge, err = errorstore.NewRuntimeBridge(natsURL, errStore)
		if err != nil {
			log.Printf("warning: failed to connect to nats, runtime errors will be recorded inline: %v", err)
		} else {
			defer bridge.Close()
		}
	}

	builder := preview.NewBuilder(cfg.Workspace.BaseDir, shell, errStore)
	backends := backendproc.NewManager(cfg.Workspace.BackendPort, cfg.Workspace.MaxBackends)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	}
	contextCache := ctxload.NewCache(ctxload.NewLoader(db), redisClient, ctxload.DefaultCacheTTL)

	registry := tools.NewRegistry()
	tools.RegisterAll(registry, &tools.Deps{
		DB:       db,
		Files:    files,
		Errors:   errStore,
		Builder:  builder,
		Backends: backends,
		Shell:    shell,
		BaseDir:  cfg.Workspace.BaseDir,
	})

	modelProvider := provider.NewOpenAIProvider(cfg.Provider.Endpoint, cfg.Provider.APIKey)

	orch := &orchestrator.Orchestrator{
		DB:       db,
		Files:    files,
		Errors:   errStore,
		Builder:  builder,
		Context:  contextCache,
		Registry: registry,
		Provider: modelProvider,
		Model:    cfg.Provider.Model,
	}

	if cfg.Temporal.Enabled {
		temporalClient, err := healworkflow.New(&cfg.Temporal)
		if err != nil {
			log.Printf("warning: failed to connect to temporal, the heal workflow will not run durably: %v", err)
		} else {
			defer temporalClient.Close()
			activities := &healworkflow.Activities{
				Files:    files,
				Errors:   errStore,
				Builder:  builder,
				Provider: modelProvider,
				Model:    cfg.Provider.Model,
			}
			w := temporalClient.NewWorker(activities)
			go func() {
				if err := w.Run(); err != nil {
					log.Printf("temporal worker stopped: %v", err)
				}
			}()
		}
	}

	server := httpapi.NewServer(orch, registry, files, errStore, builder, backends, bridge)
	var handler http.Handler = otelhttp.NewHandler(server, "appgen-http-server")

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: handler,
	}

	go func() {
		log.Printf("appgen listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	backends.StopAll(shutdownCtx)
	_ = httpSrv.Shutdown(shutdownCtx)
}
