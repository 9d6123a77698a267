package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stackhire/intake-gateway/internal/adapter"
	adapterloopback "github.com/stackhire/intake-gateway/internal/adapter/loopback"
	adapteropenai "github.com/stackhire/intake-gateway/internal/adapter/openai"
	"github.com/stackhire/intake-gateway/internal/agent"
	"github.com/stackhire/intake-gateway/internal/config"
	"github.com/stackhire/intake-gateway/internal/httpserver"
	"github.com/stackhire/intake-gateway/internal/logging"
	"github.com/stackhire/intake-gateway/internal/mailbox"
	"github.com/stackhire/intake-gateway/internal/orchestrator"
	"github.com/stackhire/intake-gateway/internal/store"
	storepostgres "github.com/stackhire/intake-gateway/internal/store/postgres"
	storesqlite "github.com/stackhire/intake-gateway/internal/store/sqlite"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	const maxLogBytes = int64(100 * 1024 * 1024) // 100MB
	if cfg.LogFile != "" {
		rot, err := logging.NewRotatingWriter(cfg.LogFile, maxLogBytes)
		if err != nil {
			log.Fatalf("init rotating log: %v", err)
		}
		// Mirror to stdout as well for foreground runs
		log.SetOutput(io.MultiWriter(os.Stdout, rot))
		log.SetFlags(log.LstdFlags | log.Lmicroseconds)
		log.SetPrefix("[intaked] ")
		defer rot.Close()
	}

	st, err := openStore(cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	pack := agent.DefaultPromptPack()
	if cfg.PromptPack != "" {
		pack, err = agent.LoadPromptPack(cfg.PromptPack)
		if err != nil {
			log.Fatalf("load prompt pack: %v", err)
		}
		log.Printf("prompt pack loaded from %s model=%s", cfg.PromptPack, pack.Model)
	}

	chat, err := buildChatAdapter(cfg)
	if err != nil {
		log.Fatalf("build chat adapter: %v", err)
	}

	mb := mailbox.New()
	engine := agent.New(chat, pack)
	orch := orchestrator.New(st, engine, mb, cfg.GreetingDelay)
	server := httpserver.New(st, orch, mb)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("intake gateway listening on %s (env=%s, db=%s)", cfg.ListenAddr, cfg.Environment, cfg.DBDriver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func openStore(cfg config.Config) (store.Store, error) {
	if cfg.DBDriver == "postgres" {
		return storepostgres.New(cfg.DBDSN, storepostgres.DefaultConfig())
	}
	return storesqlite.New(cfg.DBPath)
}

// buildChatAdapter selects the upstream model client. Without an API key the
// loopback adapter keeps the service runnable for local development.
func buildChatAdapter(cfg config.Config) (adapter.ChatAdapter, error) {
	if cfg.OpenAIAPIKey == "" {
		log.Printf("no openai_api_key configured; using loopback adapter")
		return adapterloopback.New(), nil
	}
	return adapteropenai.New(adapteropenai.Config{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		RequestTimeout: cfg.RequestTimeout,
	})
}
