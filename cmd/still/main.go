// Stillpoint CLI - The command-line interface for the companion.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/joho/godotenv"

	"github.com/stillpoint-hq/stillpoint/internal/assessment"
	"github.com/stillpoint-hq/stillpoint/internal/audit"
	"github.com/stillpoint-hq/stillpoint/internal/calendar"
	"github.com/stillpoint-hq/stillpoint/internal/config"
	"github.com/stillpoint-hq/stillpoint/internal/core"
	"github.com/stillpoint-hq/stillpoint/internal/extract"
	"github.com/stillpoint-hq/stillpoint/internal/llm"
	"github.com/stillpoint-hq/stillpoint/internal/orchestrator"
	"github.com/stillpoint-hq/stillpoint/internal/respond"
	"github.com/stillpoint-hq/stillpoint/internal/storage"
	"github.com/stillpoint-hq/stillpoint/internal/vault"
	"github.com/stillpoint-hq/stillpoint/internal/wisdom"
)

var (
	// Config
	dataDir string

	// Version
	version = "0.1.0-alpha"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "still",
		Short: "Stillpoint - Your spiritual wellbeing companion",
		Long: `Stillpoint is a conversational companion for moments when life
feels too loud.

It listens first. Through a short natural conversation it learns
what you are feeling, what is going on, and where you are - then
offers a teaching, a breathing practice, and a small concrete step
sized to the time you actually have.

Your conversations stay on YOUR device. Always.`,
	}

	// Global flags
	home, _ := os.UserHomeDir()
	defaultDataDir := filepath.Join(home, ".stillpoint")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir, "data directory")

	// Commands
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(sessionsCmd())
	rootCmd.AddCommand(auditCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// chatCmd runs an interactive companion session in the terminal
func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk with the companion",
		Long: `Starts an interactive session. The companion asks one question
at a time; answer in your own words. Type /end to finish.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			keywordOnly, _ := cmd.Flags().GetBool("keyword-only")

			_ = godotenv.Load()

			cfg, err := config.Load("")
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg.DataDir = dataDir
			if keywordOnly {
				cfg.Assessment.KeywordOnly = true
			}

			db, orch, closeFn, err := buildCompanion(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			defer closeFn()

			sess, greeting, err := orch.StartSession(name)
			if err != nil {
				return fmt.Errorf("failed to start session: %w", err)
			}

			fmt.Println("🕊️  Stillpoint")
			fmt.Println("   Type /end when you're done.")
			fmt.Println()
			fmt.Printf("companion> %s\n\n", greeting)

			reader := bufio.NewReader(os.Stdin)
			for {
				fmt.Print("you> ")
				line, err := reader.ReadString('\n')
				if err != nil {
					break
				}
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if line == "/end" || line == "/quit" {
					break
				}

				out, err := orch.HandleTurn(context.Background(), sess.ID, line)
				if err != nil {
					fmt.Printf("⚠️  %v\n", err)
					continue
				}

				fmt.Printf("\ncompanion> %s\n\n", out.Reply)

				if out.Solution != nil {
					fmt.Println("   Take your time with it. Type /end when you're ready.")
					fmt.Println()
				}
			}

			if err := orch.EndSession(sess.ID); err != nil {
				return err
			}
			fmt.Println("\n🙏 Until next time.")
			return nil
		},
	}
	cmd.Flags().String("name", "", "How the companion should address you")
	cmd.Flags().Bool("keyword-only", false, "Disable model extraction, use keyword matching only")
	return cmd
}

// sessionsCmd lists and inspects past sessions
func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Session history",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			store := storage.NewSessionStore(db)
			sessions, err := store.List(limit)
			if err != nil {
				return err
			}
			total, _ := store.Count()

			if len(sessions) == 0 {
				fmt.Println("No sessions yet. Run 'still chat' to start one.")
				return nil
			}

			fmt.Printf("🗂  Sessions (%d of %d)\n\n", len(sessions), total)
			for i, s := range sessions {
				name := s.UserName
				if name == "" {
					name = "anonymous"
				}
				delivered := "○"
				if s.SolutionDelivered {
					delivered = "✓"
				}
				fmt.Printf("%d. %s %s - %s\n", i+1, delivered, s.CreatedAt.Format("2006-01-02 15:04"), name)
				fmt.Printf("   %s\n\n", s.ID)
			}

			return nil
		},
	}
	listCmd.Flags().Int("limit", 10, "Max results")

	showCmd := &cobra.Command{
		Use:   "show [session-id]",
		Short: "Show one session's transcript and assessment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			store := storage.NewSessionStore(db)
			id := core.SessionID(args[0])

			sess, rec, err := store.Get(id)
			if err != nil {
				return err
			}
			messages, err := store.Messages(id, 200)
			if err != nil {
				return err
			}

			name := sess.UserName
			if name == "" {
				name = "anonymous"
			}
			fmt.Printf("🗂  Session %s\n\n", sess.ID)
			fmt.Printf("   Name: %s\n", name)
			fmt.Printf("   Started: %s\n", sess.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("   Stage: %s\n", rec.Stage)
			fmt.Printf("   Turns: %d\n", rec.TotalTurns)
			printField("Emotion", string(rec.Emotion))
			printField("Situation", string(rec.Situation))
			printField("Location", string(rec.Location))
			printField("Time", string(rec.Time))
			printField("Meal", string(rec.Meal))
			fmt.Println()

			for _, m := range messages {
				fmt.Printf("%s> %s\n", m.Role, truncate(m.Content, 200))
			}

			return nil
		},
	}

	cmd.AddCommand(listCmd, showCmd)
	return cmd
}

// auditCmd verifies and inspects the hash-chained audit log
func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit log operations",
	}

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the audit log hash chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			log := audit.NewLog(db)
			count, err := log.Count()
			if err != nil {
				return err
			}

			if err := log.VerifyChain(); err != nil {
				fmt.Printf("❌ Audit chain is BROKEN: %v\n", err)
				os.Exit(1)
			}

			fmt.Printf("✅ Audit chain intact (%d entries)\n", count)
			return nil
		},
	}

	recentCmd := &cobra.Command{
		Use:   "recent",
		Short: "Show recent audit entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			log := audit.NewLog(db)
			entries, err := log.Recent(limit)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Println("Audit log is empty.")
				return nil
			}

			fmt.Printf("📜 Audit Log (%d)\n\n", len(entries))
			for _, e := range entries {
				fmt.Printf("%6d  %s  %-22s %s\n",
					e.Seq, e.CreatedAt.Format("2006-01-02 15:04:05"), e.EventType, e.SessionID)
			}

			return nil
		},
	}
	recentCmd.Flags().Int("limit", 20, "Max entries")

	cmd.AddCommand(verifyCmd, recentCmd)
	return cmd
}

// calendarCmd manages the Google Calendar connection
func calendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Calendar connection for scheduling practices",
	}

	connectCmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect Google Calendar",
		Long: `Runs the OAuth flow in your browser and stores the resulting
token encrypted with a passphrase of your choosing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load("")
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg.DataDir = dataDir

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			v, err := unlockVault("Vault passphrase: ")
			if err != nil {
				return err
			}
			defer v.Lock()

			creds := storage.NewCredentialStore(db, v)
			oauth := calendar.NewOAuthClient(cfg.Google)
			sched := calendar.NewScheduler(oauth, creds)

			fmt.Println("🔗 Connecting Google Calendar...")
			if err := sched.Connect(context.Background()); err != nil {
				return fmt.Errorf("connection failed: %w", err)
			}

			fmt.Println("✅ Calendar connected. Practices can now be scheduled.")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show calendar connection status",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			v, err := unlockVault("Vault passphrase: ")
			if err != nil {
				return err
			}
			defer v.Lock()

			creds := storage.NewCredentialStore(db, v)
			sched := calendar.NewScheduler(nil, creds)

			connected, err := sched.Connected()
			if err != nil {
				return err
			}
			if connected {
				fmt.Println("✅ Calendar: connected")
			} else {
				fmt.Println("○ Calendar: not connected")
				fmt.Println("  Run 'still calendar connect' to set it up.")
			}
			return nil
		},
	}

	disconnectCmd := &cobra.Command{
		Use:   "disconnect",
		Short: "Remove the stored calendar token",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			v, err := unlockVault("Vault passphrase: ")
			if err != nil {
				return err
			}
			defer v.Lock()

			creds := storage.NewCredentialStore(db, v)
			sched := calendar.NewScheduler(nil, creds)

			if err := sched.Disconnect(); err != nil {
				return err
			}
			fmt.Println("✅ Calendar disconnected.")
			return nil
		},
	}

	scheduleCmd := &cobra.Command{
		Use:   "schedule [session-id]",
		Short: "Put a session's recommended practice on the calendar",
		Long: `Books the practice recommended for a finished session as a
calendar event with a reminder. The session must already have
received its solution.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetDuration("in")

			_ = godotenv.Load()

			cfg, err := config.Load("")
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg.DataDir = dataDir

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			v, err := unlockVault("Vault passphrase: ")
			if err != nil {
				return err
			}
			defer v.Lock()

			creds := storage.NewCredentialStore(db, v)
			sched := calendar.NewScheduler(calendar.NewOAuthClient(cfg.Google), creds)

			connected, err := sched.Connected()
			if err != nil {
				return err
			}
			if !connected {
				return fmt.Errorf("calendar is not connected. Run 'still calendar connect' first")
			}

			// Only the stores matter for scheduling
			orch := orchestrator.New(nil, nil, nil,
				storage.NewSessionStore(db), storage.NewPracticeLogStore(db), audit.NewLog(db))

			event, err := orch.SchedulePractice(context.Background(), core.SessionID(args[0]), sched, time.Now().Add(in))
			if err != nil {
				return err
			}

			fmt.Printf("✅ Practice scheduled for %s\n", event.Start.Format("2006-01-02 15:04"))
			if event.Link != "" {
				fmt.Printf("   %s\n", event.Link)
			}
			return nil
		},
	}
	scheduleCmd.Flags().Duration("in", time.Hour, "How far from now to book the practice")

	cmd.AddCommand(connectCmd, statusCmd, disconnectCmd, scheduleCmd)
	return cmd
}

// versionCmd shows version
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show Stillpoint version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Stillpoint %s\n", version)
			fmt.Println("A companion for the quiet moments")
		},
	}
}

// buildCompanion assembles the full local stack for an interactive chat.
// The second cleanup closes the vector store when one connected.
func buildCompanion(cfg *config.Config) (*storage.DB, *orchestrator.Orchestrator, func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := storage.Open(storage.Config{Path: filepath.Join(cfg.DataDir, "stillpoint.db")})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("migration failed: %w", err)
	}

	ollama := llm.NewOllamaClient(llm.OllamaConfig{
		BaseURL:    cfg.Ollama.URL,
		Model:      cfg.Ollama.Model,
		EmbedModel: cfg.Ollama.EmbedModel,
		Timeout:    time.Duration(cfg.Assessment.ExtractTimeoutSeconds) * time.Second,
	})
	claude := llm.NewClient(llm.Config{
		APIKey: cfg.Claude.APIKey,
		Model:  cfg.Claude.Model,
	})
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

	closeFn := func() {}
	var wisdomSvc *wisdom.Service
	store, err := wisdom.NewStore(wisdom.StoreConfig{
		Host:       cfg.Qdrant.Host,
		Port:       cfg.Qdrant.Port,
		Collection: cfg.Qdrant.Collection,
	})
	if err == nil && ollama.IsConfigured() {
		wisdomSvc = wisdom.NewService(store, ollama)
		closeFn = func() { store.Close() }
	} else {
		if store != nil {
			store.Close()
		}
		wisdomSvc = wisdom.NewService(nil, nil)
	}

	sessions := storage.NewSessionStore(db)
	practiceLog := storage.NewPracticeLogStore(db)
	auditLog := audit.NewLog(db)

	orch := orchestrator.New(engine, responder, wisdomSvc, sessions, practiceLog, auditLog)
	return db, orch, closeFn, nil
}

// openDB opens the database read path shared by the inspection commands
func openDB() (*storage.DB, error) {
	dbPath := filepath.Join(dataDir, "stillpoint.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("no Stillpoint data found. Run 'still chat' first")
	}

	db, err := storage.Open(storage.Config{Path: dbPath})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

func unlockVault(prompt string) (*vault.Vault, error) {
	fmt.Print(prompt)
	passphrase, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(passphrase) < 8 {
		return nil, fmt.Errorf("passphrase must be at least 8 characters")
	}

	v := vault.New()
	if err := v.Unlock(string(passphrase)); err != nil {
		return nil, err
	}
	return v, nil
}

func printField(label, value string) {
	if value == "" {
		value = "unknown"
	}
	fmt.Printf("   %s: %s\n", label, value)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
