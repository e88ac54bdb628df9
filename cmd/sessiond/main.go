package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pearcestephens/session-engine/internal/config"
	"github.com/pearcestephens/session-engine/internal/db"
	"github.com/pearcestephens/session-engine/internal/session"
	"github.com/pearcestephens/session-engine/internal/web"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sessiond",
		Short: "Session and identity engine for automated browsing workers",
		RunE:  run,
	}

	f := rootCmd.Flags()
	f.String("db-path", "/state/sessions.db", "path to the SQLite session store")
	f.Int("listen-port", 8080, "HTTP port for the operational API")
	f.Int("risk-threshold", 75, "risk score at or above which a profile is high risk")
	f.Int64("max-uses-per-profile", 100, "hard rotation ceiling on profile use count")
	f.Float64("rotation-threshold", 0.5, "ban rate above which a profile rotates")
	f.Int("retention-days", 30, "age in days beyond which sessions are deleted")
	f.Int("cleanup-interval", 3600, "seconds between cleanup sweeps")
	f.Float64("prior-alpha", 2, "Beta prior alpha for success estimation")
	f.Float64("prior-beta", 2, "Beta prior beta for success estimation")
	f.Int("query-timeout-ms", 5000, "per-call persistence deadline in milliseconds")
	f.String("allowed-origins", "", "comma-separated CORS origins for the API")

	// Bind flags to viper. Viper keys use underscores (db_path) so they
	// match the env var suffix after stripping the SESSIOND_ prefix.
	bindFlag := func(viperKey, flagName string) {
		_ = viper.BindPFlag(viperKey, f.Lookup(flagName))
	}
	bindFlag("db_path", "db-path")
	bindFlag("listen_port", "listen-port")
	bindFlag("risk_threshold", "risk-threshold")
	bindFlag("max_uses_per_profile", "max-uses-per-profile")
	bindFlag("rotation_threshold", "rotation-threshold")
	bindFlag("retention_days", "retention-days")
	bindFlag("cleanup_interval", "cleanup-interval")
	bindFlag("prior_alpha", "prior-alpha")
	bindFlag("prior_beta", "prior-beta")
	bindFlag("query_timeout_ms", "query-timeout-ms")
	bindFlag("allowed_origins", "allowed-origins")

	// SESSIOND_DB_PATH -> "db_path", SESSIOND_RISK_THRESHOLD -> "risk_threshold", etc.
	viper.SetEnvPrefix("SESSIOND")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	fmt.Printf("sessiond %s starting\n", config.Version)
	fmt.Printf("  Store: %s\n", cfg.DBPath)
	fmt.Printf("  API: :%d\n", cfg.ListenPort)
	fmt.Printf("  Risk threshold: %d\n", cfg.RiskThreshold)
	fmt.Printf("  Max uses per profile: %d\n", cfg.MaxUsesPerProfile)
	fmt.Printf("  Rotation ban rate: %.2f\n", cfg.RotationThreshold)
	fmt.Printf("  Retention: %d days\n", cfg.RetentionDays)
	fmt.Println()

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	store, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer store.Close() //nolint:errcheck
	store.SetQueryTimeout(time.Duration(cfg.QueryTimeoutMS) * time.Millisecond)

	mgr := session.New(&cfg, store)

	webServer := web.New(&cfg, mgr)
	go func() {
		if err := webServer.Start(); err != nil {
			log.Printf("web server error: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		log.Printf("received %s, shutting down...", sig)
		cancel()
	}()

	if err := mgr.Run(ctx); err != nil {
		return fmt.Errorf("cleanup loop: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("web server shutdown: %v", err)
	}

	return nil
}
