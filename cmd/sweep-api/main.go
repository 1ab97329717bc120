package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/PabloGalante/sweep-agent/internal/adapters/http"
	"github.com/PabloGalante/sweep-agent/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/sweep-agent/internal/adapters/storage/firestore"
	"github.com/PabloGalante/sweep-agent/internal/adapters/storage/jsonfile"
	memstore "github.com/PabloGalante/sweep-agent/internal/adapters/storage/memory"
	"github.com/PabloGalante/sweep-agent/internal/app/conversation"
	"github.com/PabloGalante/sweep-agent/internal/config"
	"github.com/PabloGalante/sweep-agent/internal/domain"
	"github.com/PabloGalante/sweep-agent/internal/observability"
)

func main() {
	if err := run(); err != nil {
		observability.Logger().Error("sweep-api exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	observability.Configure(os.Stdout, cfg.LogLevel)
	log := observability.WithFields("service", "sweep-api")

	// LLM: mock or Gemini
	var llmClient domain.LLMClient
	if cfg.UseMockLLM {
		log.Info("using mock LLM client")
		llmClient = llm.NewMockLLM()
	} else {
		log.Info("using Gemini LLM client", "backend", cfg.LLMBackend, "model", cfg.ModelName)
		llmClient, err = llm.NewGeminiClient(ctx, llm.GeminiConfig{
			Backend:  llm.Backend(cfg.LLMBackend),
			APIKey:   cfg.GeminiAPIKey,
			Project:  cfg.GCPProjectID,
			Location: cfg.GCPLocation,
			Model:    cfg.ModelName,
		})
		if err != nil {
			return err
		}
	}

	// Storage: file, Firestore or memory
	var store domain.SessionStore
	switch cfg.StorageBackend {
	case config.StorageFirestore:
		log.Info("using Firestore storage", "project", cfg.GCPProjectID, "collection", cfg.FirestoreCollection)
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCPProjectID, cfg.FirestoreCollection)
		if err != nil {
			return err
		}
		defer fsStore.Close()
		store = fsStore

	case config.StorageMemory:
		log.Info("using in-memory storage")
		store = memstore.NewSessionStore()

	default:
		if err := jsonfile.EnsureDir(cfg.HistoryDir); err != nil {
			return err
		}
		log.Info("using file storage", "dir", cfg.HistoryDir)
		store = jsonfile.NewStore(cfg.HistoryDir)
	}

	metrics := observability.NewMetrics()

	svc := conversation.NewService(llmClient, store,
		conversation.WithMetrics(metrics),
		conversation.WithSerializedTurns(cfg.SerializeTurns),
		conversation.WithUpstreamTimeout(cfg.UpstreamTimeout),
	)

	serverOpts := []httpadapter.Option{httpadapter.WithMetrics(metrics)}
	if cfg.StaticDir != "" {
		if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
			serverOpts = append(serverOpts, httpadapter.WithStaticDir(cfg.StaticDir))
		} else {
			log.Warn("static dir not found, UI disabled", "dir", cfg.StaticDir)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           httpadapter.NewServer(svc, serverOpts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Sweep API listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
