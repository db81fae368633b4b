package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/opscart/k8s-resource-dashboard/pkg/config"
	"github.com/opscart/k8s-resource-dashboard/pkg/datasource"
	"github.com/opscart/k8s-resource-dashboard/pkg/output"
	"github.com/opscart/k8s-resource-dashboard/pkg/pricing"
	"github.com/opscart/k8s-resource-dashboard/pkg/reporter"
	"github.com/opscart/k8s-resource-dashboard/pkg/scanner"
	"github.com/opscart/k8s-resource-dashboard/pkg/storage"
)

var (
	namespace      string
	allNamespaces  bool
	outputFormat   string
	saveResults    bool
	dryRun         bool
	env            string
	clusterName    string
	verbose        bool
	generateReport bool
	reportFormat   string
	reportOutput   string
	usePrometheus  bool
	prometheusURL  string
	lookbackDays   int

	cfg   *config.Config
	store storage.Store
)

func main() {
	cfg = config.NewConfig()

	rootCmd := &cobra.Command{
		Use:   "utilization-scan",
		Short: "Kubernetes CPU utilization scanner",
		Long:  `Scan Kubernetes workloads for over-provisioned CPU requests and feed the results into the resource utilization dashboard.`,
		Run:   runScan,
	}

	rootCmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Namespace to scan")
	rootCmd.Flags().BoolVarP(&allNamespaces, "all-namespaces", "A", false, "Scan all namespaces")
	rootCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, commands")
	rootCmd.Flags().BoolVar(&saveResults, "save", false, "Save utilization records to the database")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show records without saving")
	rootCmd.Flags().StringVar(&env, "env", "", "Environment label for produced records (defaults to CLUSTER_ENV)")
	rootCmd.Flags().StringVar(&clusterName, "cluster-name", "default", "Cluster name used in reports")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&generateReport, "generate-report", false, "Generate a utilization report")
	rootCmd.Flags().StringVar(&reportFormat, "report-format", "html", "Report format: html, csv")
	rootCmd.Flags().StringVar(&reportOutput, "report-output", "utilization-report.html", "Output file for report")
	rootCmd.Flags().BoolVar(&usePrometheus, "use-prometheus", false, "Use Prometheus usage history instead of instant readings")
	rootCmd.Flags().StringVar(&prometheusURL, "prometheus-url", cfg.PrometheusURL, "Prometheus base URL")
	rootCmd.Flags().IntVar(&lookbackDays, "lookback-days", 7, "Usage history window in days")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	// scan output goes to stdout; keep logs on stderr
	log.Logger = log.Output(os.Stderr)
}

func runScan(cmd *cobra.Command, args []string) {
	initLogging()

	if namespace == "" && !allNamespaces {
		fmt.Fprintln(os.Stderr, "Error: either --namespace or --all-namespaces must be specified")
		os.Exit(1)
	}
	if outputFormat != "text" && outputFormat != "json" && outputFormat != "commands" {
		fmt.Fprintln(os.Stderr, "Error: output must be text, json, or commands")
		os.Exit(1)
	}
	if env == "" {
		env = cfg.ClusterEnv
	}

	ctx := context.Background()

	// Each run gets an id so saved records and logs can be correlated.
	runID := uuid.New().String()
	log.Info().
		Str("runID", runID).
		Str("namespace", namespace).
		Bool("allNamespaces", allNamespaces).
		Msg("Starting utilization scan")

	if saveResults && !dryRun {
		var err error
		store, err = storage.NewPostgresStore(storage.Config{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			Database: cfg.DBName,
			Schema:   cfg.DBSchema,
			Table:    cfg.DBTable,
			SSLMode:  cfg.DBSSLMode,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize storage")
		}
		defer store.Close()
		log.Info().Msg("Results will be saved to database")
	} else if dryRun {
		log.Info().Msg("Dry-run mode: records will not be saved")
	}

	pricingProvider := pricing.NewDefaultProvider(cfg.CPUCostPerCore)

	scan, err := scanner.New(env, pricingProvider, cfg.SafetyBuffer)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scanner")
	}

	if usePrometheus {
		dsCfg := datasource.Config{
			PrometheusURL: prometheusURL,
			LookbackDays:  lookbackDays,
			Timeout:       30 * time.Second,
		}
		source, err := datasource.NewPrometheusSource(dsCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Prometheus source")
		}
		scan = scan.WithUsageSource(source, dsCfg.Lookback())
		log.Info().
			Str("source", source.Name()).
			Int("lookbackDays", lookbackDays).
			Msg("Using usage history")
	}

	results, err := scan.Scan(ctx, namespace, allNamespaces)
	if err != nil {
		log.Fatal().Err(err).Msg("Scan failed")
	}

	if len(results) == 0 {
		log.Info().Msg("No workloads found")
		return
	}

	var totalSavings float64
	for _, result := range results {
		if result.Recommendation != nil {
			totalSavings += result.Recommendation.Savings
		}

		if store != nil && result.Record != nil {
			saved, err := store.InsertResourceUtilization(ctx, result.Record)
			if err != nil {
				log.Warn().Err(err).Str("app", result.Record.AppUniq).Msg("Failed to save record")
				continue
			}
			log.Info().
				Str("runID", runID).
				Str("app", saved.AppUniq).
				Int64("id", saved.ID).
				Msg("Saved utilization record")
		}
	}

	switch outputFormat {
	case "json":
		handler := output.NewJSONHandler(os.Stdout)
		if err := handler.DisplayResults(ctx, results); err != nil {
			log.Fatal().Err(err).Msg("Failed to render results")
		}
	case "commands":
		for _, result := range results {
			if result.Command != "" {
				fmt.Println(result.Command)
			}
		}
	default:
		handler := output.NewTextHandler(os.Stdout, env)
		if err := handler.DisplayResults(ctx, results); err != nil {
			log.Fatal().Err(err).Msg("Failed to render results")
		}
		handler.DisplaySummary(ctx, totalSavings, len(results))
	}

	if generateReport {
		if err := writeReport(results); err != nil {
			log.Error().Err(err).Msg("Failed to generate report")
		}
	}
}

func writeReport(results []scanner.ScanResult) error {
	format := reporter.ReportFormat(reportFormat)
	if format != reporter.FormatHTML && format != reporter.FormatCSV {
		return fmt.Errorf("unsupported report format: %s", reportFormat)
	}

	rep := reporter.New(format)
	report, err := rep.Generate(results, clusterName, namespace, env)
	if err != nil {
		return err
	}

	f, err := os.Create(reportOutput)
	if err != nil {
		return err
	}
	defer f.Close()

	switch format {
	case reporter.FormatCSV:
		err = reporter.GenerateCSV(report, f)
	default:
		err = reporter.GenerateHTML(report, f)
	}
	if err != nil {
		return err
	}

	log.Info().Str("file", reportOutput).Msg("Report written")
	return nil
}
