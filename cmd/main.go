package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"readiness/internal/configuration"
	"readiness/internal/engine"
	"readiness/internal/journal"
	"readiness/internal/schema"
	"readiness/internal/server"
	"readiness/internal/session"
	"readiness/internal/store"
)

// prepareLogger configures the global slog logger with JSON output on
// os.Stdout at the configured level. Unrecognized levels fall back to
// Info.
func prepareLogger(level string) {
	var logLevel slog.Level

	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	slog.SetDefault(slog.New(handler))
}

// Errors while loading configuration, parsing the schema, or
// initializing components terminate the process with exit code 1.
func main() {
	configPath := flag.String("config", "/etc/readiness/config.yaml", "configuration file")
	flag.Parse()
	config, err := configuration.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Unable to load configuration", "error", err)
		os.Exit(1)
	}
	prepareLogger(config.Logger.Level)

	appCtx, appCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer appCancel()

	doc, err := os.ReadFile(config.Assessment.Schema)
	if err != nil {
		slog.Error("Unable to read schema document", "error", err)
		os.Exit(1)
	}
	assessmentSchema, err := schema.Parse(doc)
	if err != nil {
		slog.Error("Unable to load schema", "error", err)
		os.Exit(1)
	}
	slog.Info("Schema loaded",
		"assessment", assessmentSchema.AssessmentID,
		"version", assessmentSchema.Version,
		"questions", len(assessmentSchema.Questions),
	)

	sessions := session.NewRepository(config.Assessment.HistoryLength, config.Assessment.SessionTtl)
	go sessions.Serve()

	var reports *store.Store
	if config.Store.Path != "" {
		reports, err = store.New(config.Store.Path)
		if err != nil {
			slog.Error("Unable to open report store", "error", err)
			os.Exit(1)
		}
		if err := reports.UpsertSchema(assessmentSchema.AssessmentID, assessmentSchema.Version, doc); err != nil {
			slog.Error("Unable to register schema version", "error", err)
			os.Exit(1)
		}
	}

	var reportJournal *journal.ReportJournal
	if config.Journal.File != "" {
		reportJournal = journal.New(config.Journal.File, config.Journal.Size, config.Journal.Amount)
	}

	srv := server.NewServer(
		config.Server.Address,
		config.Server.Static,
		engine.New(assessmentSchema),
		sessions,
		reports,
		reportJournal,
	)
	go srv.ListenAndServe()
	slog.Info("Server listening " + config.Server.Address)
	<-appCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second*10)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown", "error", err)
	}
	slog.Info("Server stopped")

	sessions.Stop()
	if reportJournal != nil {
		reportJournal.Close()
	}
	if reports != nil {
		if err := reports.Close(); err != nil {
			slog.Error("Store close", "error", err)
		}
	}
}
