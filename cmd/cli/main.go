package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
	"github.com/aryan0dhankhar/crafthire/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/crafthire/internal/repository"
	"github.com/aryan0dhankhar/crafthire/internal/security/auth"
	"github.com/aryan0dhankhar/crafthire/internal/worker"
	"github.com/aryan0dhankhar/crafthire/pkg/config"
	"github.com/aryan0dhankhar/crafthire/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch command {
	case "migrate":
		err = runMigrate(ctx, args)
	case "reconcile":
		err = runReconcile(ctx, args)
	case "token":
		err = runToken(ctx, args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env carries what every command needs
type env struct {
	cfg *config.Config
	log *slog.Logger
}

func setup(fs *pflag.FlagSet, args []string) (*env, error) {
	verbose := fs.BoolP("verbose", "v", false, "log at debug level")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	level := "warn"
	if *verbose {
		level = "debug"
	}
	return &env{cfg: cfg, log: logger.New(os.Stderr, level)}, nil
}

func (e *env) openPool(ctx context.Context) (*database.ConnectionPool, error) {
	if e.cfg.StoreDriver == config.StoreMemory {
		return nil, fmt.Errorf("STORE_DRIVER=memory has no database to operate on")
	}
	dbCfg := database.DefaultConfig()
	dbCfg.URL = e.cfg.DatabaseURL
	dbCfg.MaxOpenConns = 2
	return database.NewConnectionPool(ctx, dbCfg, e.log)
}

func runMigrate(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	printOnly := fs.Bool("print", false, "print the schema instead of applying it")
	e, err := setup(fs, args)
	if err != nil {
		return err
	}

	if *printOnly {
		fmt.Print(database.Schema())
		return nil
	}

	pool, err := e.openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Migrate(ctx); err != nil {
		return err
	}
	fmt.Println("✓ Schema applied")
	return nil
}

func runReconcile(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("reconcile", pflag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "report drift without repairing it")
	e, err := setup(fs, args)
	if err != nil {
		return err
	}

	pool, err := e.openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := repository.NewPostgresStore(pool.GetDB(), e.log)
	report, err := worker.NewReconcileWorker(store, e.log, time.Minute, *dryRun).RunOnce(ctx)
	if err != nil {
		return err
	}

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")
	return out.Encode(report)
}

// runToken mints an access token. With --user-id and --role no database is
// needed; otherwise the user is looked up by --email.
func runToken(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("token", pflag.ContinueOnError)
	email := fs.String("email", "", "user email")
	userID := fs.String("user-id", "", "user ID (skips the database lookup)")
	role := fs.String("role", "", "role for --user-id: company, provider or craftworker")
	e, err := setup(fs, args)
	if err != nil {
		return err
	}

	var user *domain.User
	switch {
	case *userID != "":
		r := domain.Role(strings.ToLower(*role))
		if !r.Valid() {
			return fmt.Errorf("--role must be company, provider or craftworker")
		}
		user = &domain.User{ID: *userID, Email: strings.ToLower(*email), Role: r, IsActive: true}
	case *email != "":
		pool, err := e.openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		store := repository.NewPostgresStore(pool.GetDB(), e.log)
		user, err = store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(*email)))
		if err != nil {
			return fmt.Errorf("failed to find user: %w", err)
		}
	default:
		fs.PrintDefaults()
		return fmt.Errorf("--email or --user-id is required")
	}

	tm := auth.NewTokenManager(e.cfg.JWTSecret, e.cfg.JWTRefreshSecret, "crafthire", e.cfg.JWTAccessTTL, e.cfg.JWTRefreshTTL)
	token, err := tm.GenerateAccessToken(user)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func printUsage() {
	fmt.Print(`CraftHire operator CLI

Usage:
  crafthire <command> [options]

Commands:
  migrate     Apply the database schema (--print to show it)
  reconcile   Repair craftworker affiliations that disagree with provider rosters
  token       Mint an access token for a user
  help        Show this help message

Configuration is read the same way as the server (environment, .env,
CRAFTHIRE_CONFIG).

Examples:
  crafthire migrate
  crafthire reconcile --dry-run
  crafthire token --email dana@harbor.example
  crafthire token --user-id 3f0c... --role provider
`)
}
