package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/opscart/k8s-resource-dashboard/pkg/api"
	"github.com/opscart/k8s-resource-dashboard/pkg/config"
	"github.com/opscart/k8s-resource-dashboard/pkg/dump"
	"github.com/opscart/k8s-resource-dashboard/pkg/pricing"
	"github.com/opscart/k8s-resource-dashboard/pkg/storage"
)

var (
	inMemory bool
	verbose  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dashboard-api",
		Short: "Resource utilization dashboard API",
		Long:  `Serves the resource utilization reporting API over PostgreSQL: utilization listings, over-provisioning reports, optimization history and JSON dump/restore.`,
		Run:   runServe,
	}

	rootCmd.Flags().BoolVar(&inMemory, "in-memory", false, "Use an in-memory store seeded with sample data (no database required)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initLogging(verbose bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(os.Stdout)
}

func runServe(cmd *cobra.Command, args []string) {
	initLogging(verbose)

	cfg := config.NewConfig()
	if verbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	store, err := newStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed initializing storage")
	}
	defer store.Close()

	dumps, err := dump.NewManager(cfg.DumpDir, store)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DumpDir).Msg("Failed initializing dump manager")
	}

	pricingProvider := pricing.NewDefaultProvider(cfg.CPUCostPerCore)
	server := api.NewServer(cfg, store, dumps, pricingProvider)

	// Prometheus metrics on a separate listener, away from the public API.
	go func() {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.MetricsAddress, metricsMux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Metrics listener failed")
		}
	}()

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("address", cfg.ListenAddress).
			Str("schema", cfg.DBSchema).
			Str("table", cfg.DBTable).
			Msg("Starting dashboard API")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("API listener failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown")
	}
}

func newStore(cfg *config.Config) (storage.Store, error) {
	if inMemory {
		log.Info().Msg("Using in-memory store with sample data")
		store := storage.NewMemoryStore()
		store.SeedSampleData()
		return store, nil
	}

	return storage.NewPostgresStore(storage.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		Schema:   cfg.DBSchema,
		Table:    cfg.DBTable,
		SSLMode:  cfg.DBSSLMode,
	})
}
