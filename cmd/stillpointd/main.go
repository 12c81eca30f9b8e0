// Stillpoint Daemon - The companion background service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/stillpoint-hq/stillpoint/internal/api"
	"github.com/stillpoint-hq/stillpoint/internal/assessment"
	"github.com/stillpoint-hq/stillpoint/internal/audit"
	"github.com/stillpoint-hq/stillpoint/internal/config"
	"github.com/stillpoint-hq/stillpoint/internal/extract"
	"github.com/stillpoint-hq/stillpoint/internal/llm"
	"github.com/stillpoint-hq/stillpoint/internal/logging"
	"github.com/stillpoint-hq/stillpoint/internal/orchestrator"
	"github.com/stillpoint-hq/stillpoint/internal/respond"
	"github.com/stillpoint-hq/stillpoint/internal/storage"
	"github.com/stillpoint-hq/stillpoint/internal/wisdom"
)

var (
	configPath  string
	dataDir     string
	port        int
	keywordOnly bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stillpointd",
		Short: "Stillpoint Daemon - Your spiritual wellbeing companion",
		RunE:  runDaemon,
	}

	rootCmd.Flags().StringVar(&configPath, "config", "", "Config file path (default: <data-dir>/config.json)")
	rootCmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory (default: ~/.stillpoint)")
	rootCmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default: 8080)")
	rootCmd.Flags().BoolVar(&keywordOnly, "keyword-only", false, "Disable model extraction, use keyword matching only")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	fmt.Println("🕊️  Starting Stillpoint Daemon...")

	// Local .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if keywordOnly {
		cfg.Assessment.KeywordOnly = true
	}

	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// Open database
	dbPath := filepath.Join(cfg.DataDir, "stillpoint.db")
	db, err := storage.Open(storage.Config{Path: dbPath})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// Ollama handles extraction and embeddings locally
	ollama := llm.NewOllamaClient(llm.OllamaConfig{
		BaseURL:    cfg.Ollama.URL,
		Model:      cfg.Ollama.Model,
		EmbedModel: cfg.Ollama.EmbedModel,
		Timeout:    time.Duration(cfg.Assessment.ExtractTimeoutSeconds) * time.Second,
	})
	ollamaUp := ollama.IsConfigured()
	if ollamaUp {
		fmt.Println("✅ Ollama connected")
	} else {
		fmt.Println("⚠️  Ollama not available - extraction falls back to keywords")
	}

	// Connect to Qdrant for the teachings library
	var wisdomStore *wisdom.Store
	wisdomStore, err = wisdom.NewStore(wisdom.StoreConfig{
		Host:       cfg.Qdrant.Host,
		Port:       cfg.Qdrant.Port,
		Collection: cfg.Qdrant.Collection,
	})
	if err != nil {
		fmt.Printf("⚠️  Qdrant not available: %v\n", err)
		fmt.Println("   Teachings will be served from the built-in library")
		wisdomStore = nil
	} else {
		defer wisdomStore.Close()
		fmt.Println("✅ Qdrant connected")
		if ollamaUp {
			probe, err := ollama.Embed(context.Background(), "stillness")
			if err != nil {
				fmt.Printf("⚠️  Embedding probe failed: %v\n", err)
			} else if err := wisdomStore.EnsureCollection(context.Background(), uint64(len(probe))); err != nil {
				fmt.Printf("⚠️  Failed to ensure teachings collection: %v\n", err)
			}
		}
	}

	// Initialize Claude client for companion responses
	claude := llm.NewClient(llm.Config{
		APIKey: cfg.Claude.APIKey,
		Model:  cfg.Claude.Model,
	})
	if claude.IsConfigured() {
		fmt.Println("✅ Claude API configured")
	} else {
		fmt.Println("⚠️  ANTHROPIC_API_KEY not set - companion replies will use fallbacks")
	}

	router := llm.NewRouter(llm.RouterConfig{
		Claude:         claude,
		Ollama:         ollama,
		PreferLocal:    true,
		EnableFallback: true,
	})

	extractor := extract.New(router, cfg.Assessment.KeywordOnly)
	engine := assessment.NewEngine(extractor, extract.DetectGrief, assessment.EngineConfig{
		MaxTurnsInStage: cfg.Assessment.MaxTurnsInStage,
	})
	responder := respond.New(router)

	var wisdomSvc *wisdom.Service
	if wisdomStore != nil && ollamaUp {
		wisdomSvc = wisdom.NewService(wisdomStore, ollama)
	} else {
		wisdomSvc = wisdom.NewService(nil, nil)
	}

	sessions := storage.NewSessionStore(db)
	practiceLog := storage.NewPracticeLogStore(db)
	auditLog := audit.NewLog(db)

	orch := orchestrator.New(engine, responder, wisdomSvc, sessions, practiceLog, auditLog)

	server := api.New(api.Config{
		Port:         cfg.Server.Port,
		Orchestrator: orch,
		DB:           db,
	})

	// Handle shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		fmt.Println("\n🛑 Shutting down...")
		server.Stop(context.Background())
	}()

	// Start server (blocks)
	fmt.Printf("🌐 Listening on http://localhost:%d\n", cfg.Server.Port)
	return server.Start()
}
