package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AvaWorks/TaskAssist/internal/action"
	"github.com/AvaWorks/TaskAssist/internal/api"
	"github.com/AvaWorks/TaskAssist/internal/dialogue"
	"github.com/AvaWorks/TaskAssist/internal/genai"
	"github.com/AvaWorks/TaskAssist/internal/lockfile"
	"github.com/AvaWorks/TaskAssist/internal/nlu"
	"github.com/AvaWorks/TaskAssist/internal/session"
	"github.com/AvaWorks/TaskAssist/internal/store"
	"github.com/AvaWorks/TaskAssist/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for TaskAssist state data
	DefaultStateDir = "/var/lib/taskassist"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "taskassist.db"
	// DefaultOutboxDirName is the directory for per-action JSON files,
	// relative to the state directory
	DefaultOutboxDirName = "outbox"
	// ShutdownTimeout bounds graceful HTTP shutdown
	ShutdownTimeout = 10 * time.Second
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := run(flags); err != nil {
		slog.Error("TaskAssist failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("TaskAssist exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL   string
	StateDir      string
	OutboxDir     string
	OpenAIKey     string
	APIAddr       string
	DisableRemote bool
}

// Flags holds command line flag values
type Flags struct {
	stateDir      *string
	dbDSN         *string
	outboxDir     *string
	openaiKey     *string
	apiAddr       *string
	disableRemote *bool
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		StateDir:      os.Getenv("TASKASSIST_STATE_DIR"),
		OutboxDir:     os.Getenv("TASKASSIST_OUTBOX_DIR"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		APIAddr:       os.Getenv("API_ADDR"),
		DisableRemote: util.ParseBoolEnv("TASKASSIST_DISABLE_REMOTE", false),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No TASKASSIST_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No DATABASE_URL provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}
	if config.OutboxDir == "" {
		config.OutboxDir = filepath.Join(config.StateDir, DefaultOutboxDirName)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", os.Getenv("DATABASE_URL") != "",
		"TASKASSIST_STATE_DIR", config.StateDir,
		"TASKASSIST_OUTBOX_DIR", config.OutboxDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"TASKASSIST_DISABLE_REMOTE", config.DisableRemote)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:      flag.String("state-dir", config.StateDir, "state directory for TaskAssist data (overrides $TASKASSIST_STATE_DIR)"),
		dbDSN:         flag.String("db-dsn", config.DatabaseURL, "database DSN, PostgreSQL URL or SQLite file path (overrides $DATABASE_URL)"),
		outboxDir:     flag.String("outbox-dir", config.OutboxDir, "directory for per-action JSON files (overrides $TASKASSIST_OUTBOX_DIR)"),
		openaiKey:     flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		apiAddr:       flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		disableRemote: flag.Bool("disable-remote", config.DisableRemote, "use only the local rule-based capability provider"),
	}

	flag.Parse()

	// Re-derive file paths when only the state directory was overridden.
	if *flags.stateDir != config.StateDir {
		if *flags.dbDSN == filepath.Join(config.StateDir, DefaultDBFileName) {
			*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		}
		if *flags.outboxDir == filepath.Join(config.StateDir, DefaultOutboxDirName) {
			*flags.outboxDir = filepath.Join(*flags.stateDir, DefaultOutboxDirName)
		}
	}

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"outboxDir", *flags.outboxDir,
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr,
		"disableRemote", *flags.disableRemote)

	return flags
}

// buildStore selects the persistence backend from the DSN.
func buildStore(dsn string) (store.Store, error) {
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		return store.NewPostgresStore(store.WithDSN(dsn))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", dsn)
	return store.NewSQLiteStore(store.WithDSN(dsn))
}

// buildProvider wires the capability provider: remote with local fallback
// when an API key is available, local-only otherwise.
func buildProvider(openaiKey string, disableRemote bool) nlu.Provider {
	local := nlu.NewLocalProvider()
	if disableRemote || openaiKey == "" {
		slog.Info("Using local rule-based capability provider only", "remote_disabled", disableRemote)
		return local
	}

	client, err := genai.NewClientWithKey(openaiKey)
	if err != nil {
		slog.Warn("Remote capability client unavailable, falling back to local provider", "error", err)
		return local
	}

	ctx, cancel := context.WithTimeout(context.Background(), genai.DefaultTimeout)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		slog.Warn("Remote capability check failed, remote will be retried per turn", "error", err)
	} else {
		slog.Info("Remote capability provider ready")
	}

	return nlu.NewFailoverProvider(nlu.NewRemoteProvider(client), local)
}

func run(flags Flags) error {
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			slog.Warn("lock release failed", "error", err)
		}
	}()

	st, err := buildStore(*flags.dbDSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Warn("store close failed", "error", err)
		}
	}()

	outbox, err := store.NewOutbox(*flags.outboxDir)
	if err != nil {
		return err
	}

	orchestrator := dialogue.NewOrchestrator(
		session.NewRegistry(),
		buildProvider(*flags.openaiKey, *flags.disableRemote),
		action.NewExecutor(),
		st,
		outbox,
	)

	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	if limit := util.ParseIntEnv("TASKASSIST_HISTORY_LIMIT", 0); limit > 0 {
		apiOpts = append(apiOpts, api.WithHistoryLimit(limit))
	}
	server := api.NewServer(orchestrator, apiOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("Shutdown signal received, draining requests")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	}
}
