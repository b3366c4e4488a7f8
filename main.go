package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"

	"actengine/pkg/clients/email"
	"actengine/pkg/clients/flood"
	"actengine/pkg/clients/sms"
	"actengine/pkg/clients/weather"
	"actengine/pkg/db"
	"actengine/services/actfile"
	"actengine/services/agent"
	"actengine/services/dag"
	"actengine/services/execmanager"
	"actengine/services/execnodes"
	"actengine/services/history"
	"actengine/services/metrics"
	"actengine/services/registry"
)

func main() {
	ctx := context.Background()
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	slog.SetDefault(slog.New(logHandler))

	actfilePath := envOr("ACTFILE_PATH", "Actfile")
	wf, err := actfile.Parse(actfilePath)
	if err != nil {
		slog.Error("failed to parse actfile", "path", actfilePath, "error", err)
		return
	}

	if res, err := dag.Validate(wf); err != nil {
		slog.Error("workflow graph is invalid", "error", err)
		return
	} else if len(res.Orphans) > 0 {
		slog.Warn("workflow has unreachable nodes", "orphans", res.Orphans)
	}

	reg := registry.New()
	execnodes.Register(reg)

	weatherClient := weather.NewOpenMeteoClient(nil)
	emailClient := email.NewStubClient(envOr("ALERTS_FROM_ADDRESS", "weather-alerts@example.com"))
	smsClient := sms.NewStubClient()
	floodClient := flood.NewOpenMeteoClient(nil)
	deps := registry.Deps{
		WeatherClient: weatherClient,
		EmailClient:   emailClient,
		SMSClient:     smsClient,
		FloodClient:   floodClient,
		HTTPClient:    http.DefaultClient,
	}

	// Execution history is optional: the agent and the admin surface
	// degrade gracefully to nil readers/recorders when no DATABASE_URL
	// is configured.
	var historyStore *history.Store
	if dbURL, ok := os.LookupEnv("DATABASE_URL"); ok {
		pool, err := db.Connect(ctx, db.DefaultConfig(dbURL))
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			return
		}
		defer pool.Close()

		historyStore, err = history.New(pool)
		if err != nil {
			slog.Error("failed to create history store", "error", err)
			return
		}
	} else {
		slog.Warn("DATABASE_URL not set, execution history is disabled")
	}

	collectors := metrics.NewCollectors()
	promRegistry := prometheus.NewRegistry()
	if err := collectors.Register(promRegistry); err != nil {
		slog.Error("failed to register prometheus collectors", "error", err)
		return
	}

	mgrOpts := execmanager.DefaultOptions()
	mgrOpts.CheckpointDir = envOr("CHECKPOINT_DIR", mgrOpts.CheckpointDir)
	mgr := execmanager.New(wf, reg, deps, mgrOpts)

	agentOpts := agent.Options{
		Name:       envOr("AGENT_NAME", wf.Name),
		Version:    envOr("AGENT_VERSION", "dev"),
		Collectors: collectors,
		Manager:    mgr,
	}
	if historyStore != nil {
		agentOpts.History = historyStore
		agentOpts.HistoryReader = historyStore
	}
	a := agent.New(wf, reg, deps, agentOpts)
	a.RegisterPrometheus(promRegistry)
	mgr.SetAciRegistrar(a)

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{envOr("FRONTEND_ORIGIN", "http://localhost:3003")}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	)(a.Router())

	srv := &http.Server{
		Addr:    ":" + envOr("PORT", "8080"),
		Handler: corsHandler,
	}

	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("starting agent server", "addr", srv.Addr, "workflow", wf.Name)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		slog.Error("server error", "error", err)

	case sig := <-shutdown:
		slog.Info("shutdown signal received", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("could not stop server gracefully", "error", err)
			srv.Close()
		}
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
