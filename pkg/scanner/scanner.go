package scanner

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
	metricsv "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/opscart/k8s-resource-dashboard/pkg/analyzer"
	"github.com/opscart/k8s-resource-dashboard/pkg/converter"
	"github.com/opscart/k8s-resource-dashboard/pkg/datasource"
	"github.com/opscart/k8s-resource-dashboard/pkg/models"
	"github.com/opscart/k8s-resource-dashboard/pkg/pricing"
	"github.com/opscart/k8s-resource-dashboard/pkg/recommender"
	"github.com/rs/zerolog/log"
)

type Scanner struct {
	clientset     *kubernetes.Clientset
	metricsClient *metricsv.Clientset
	analyzer      *analyzer.Analyzer
	recommender   *recommender.Recommender
	env           string

	usage    datasource.UsageSource
	lookback time.Duration
}

// New builds a scanner against the current kubeconfig context. env labels
// every produced record (dit, uat, prod and the like).
func New(env string, pricingProvider pricing.Provider, safetyBuffer float64) (*Scanner, error) {
	var kubeconfig string
	if home := homedir.HomeDir(); home != "" {
		kubeconfig = filepath.Join(home, ".kube", "config")
	}

	config, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	metricsClient, err := metricsv.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics client: %w", err)
	}

	return &Scanner{
		clientset:     clientset,
		metricsClient: metricsClient,
		analyzer:      analyzer.New(clientset, metricsClient),
		recommender:   recommender.New(pricingProvider, safetyBuffer),
		env:           env,
	}, nil
}

// WithUsageSource makes the scanner prefer historical peak usage from the
// given source over the instant metrics-server reading. The source is only
// consulted when it reports itself available.
func (s *Scanner) WithUsageSource(src datasource.UsageSource, lookback time.Duration) *Scanner {
	s.usage = src
	s.lookback = lookback
	return s
}

// ScanResult pairs one workload's recommendation with its flattened
// dashboard record.
type ScanResult struct {
	Recommendation *recommender.Recommendation
	Record         *models.ResourceUtilizationRecord
	Command        string
}

func (s *Scanner) Scan(ctx context.Context, namespace string, allNamespaces bool) ([]ScanResult, error) {
	version, err := s.clientset.Discovery().ServerVersion()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cluster: %w", err)
	}

	log.Info().Str("version", version.GitVersion).Msg("Connected to cluster")

	namespaces := []string{namespace}
	if allNamespaces {
		nsList, err := s.clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to list namespaces: %w", err)
		}
		namespaces = []string{}
		for _, ns := range nsList.Items {
			namespaces = append(namespaces, ns.Name)
		}
		log.Info().Int("namespaces", len(namespaces)).Msg("Scanning all namespaces")
	} else {
		log.Info().Str("namespace", namespace).Msg("Scanning namespace")
	}

	var results []ScanResult

	for _, ns := range namespaces {
		nsResults, err := s.scanNamespace(ctx, ns)
		if err != nil {
			log.Warn().Err(err).Str("namespace", ns).Msg("Error scanning namespace")
			continue
		}
		results = append(results, nsResults...)
	}

	return results, nil
}

func (s *Scanner) scanNamespace(ctx context.Context, namespace string) ([]ScanResult, error) {
	deployments, err := s.clientset.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	statefulSets, err := s.clientset.AppsV1().StatefulSets(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list statefulsets: %w", err)
	}

	daemonSets, err := s.clientset.AppsV1().DaemonSets(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list daemonsets: %w", err)
	}

	replicaSets, err := s.clientset.AppsV1().ReplicaSets(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list replicasets: %w", err)
	}

	analyses, err := s.analyzer.AnalyzePods(ctx, namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze pods: %w", err)
	}

	if s.usage != nil && s.usage.IsAvailable(ctx) {
		s.enrichWithHistory(ctx, analyses)
	}

	// Group pods by their parent workload
	workloadPods := make(map[string][]analyzer.PodAnalysis)

	for _, analysis := range analyses {
		workloadKey := analysis.WorkloadName
		if workloadKey == "" {
			// Fallback: try to extract from pod name
			workloadKey = extractWorkloadName(analysis.Name)
		}

		if workloadKey != "" {
			workloadPods[workloadKey] = append(workloadPods[workloadKey], analysis)
		}
	}

	var workloadNames []string
	for _, deploy := range deployments.Items {
		workloadNames = append(workloadNames, deploy.Name)
	}
	for _, sts := range statefulSets.Items {
		workloadNames = append(workloadNames, sts.Name)
	}
	for _, ds := range daemonSets.Items {
		workloadNames = append(workloadNames, ds.Name)
	}
	for _, rs := range replicaSets.Items {
		// Skip ReplicaSets owned by Deployments (already handled above)
		if len(rs.OwnerReferences) > 0 && rs.OwnerReferences[0].Kind == "Deployment" {
			continue
		}
		workloadNames = append(workloadNames, rs.Name)
	}

	var results []ScanResult
	for _, name := range workloadNames {
		pods, exists := workloadPods[name]
		if !exists || len(pods) == 0 {
			continue
		}
		rec := s.recommender.Analyze(pods, name)
		if rec == nil {
			continue
		}
		results = append(results, ScanResult{
			Recommendation: rec,
			Record:         converter.ToUtilizationRecord(pods, rec, s.env),
			Command:        converter.KubectlCommand(rec),
		})
	}

	return results, nil
}

// enrichWithHistory replaces the instant CPU reading with the peak observed
// over the lookback window, per pod. Peaks only ever raise the reading, so a
// workload that is busy once a day is not flagged off a quiet moment.
func (s *Scanner) enrichWithHistory(ctx context.Context, analyses []analyzer.PodAnalysis) {
	for i := range analyses {
		samples, err := s.usage.CPUUsageSamples(ctx, analyses[i].Namespace, analyses[i].Name, s.lookback)
		if err != nil {
			log.Debug().Err(err).Str("pod", analyses[i].Name).Msg("No usage history available")
			continue
		}

		percentiles, err := analyzer.CalculatePercentiles(samples)
		if err != nil {
			continue
		}

		peak := int64(percentiles.Peak)
		if peak > analyses[i].ActualCPU {
			analyses[i].ActualCPU = peak
			if analyses[i].RequestedCPU > 0 {
				analyses[i].CPUUtilization = float64(peak) / float64(analyses[i].RequestedCPU) * 100
			}
		}
	}
}

// extractWorkloadName extracts workload name from pod name
// Handles formats like: "workload-name-7d9f8b-xyz" (Deployment) or "workload-name-0" (StatefulSet)
func extractWorkloadName(podName string) string {
	// Try StatefulSet pattern first (ends with -<number>)
	if len(podName) > 2 && podName[len(podName)-2] == '-' {
		lastChar := podName[len(podName)-1]
		if lastChar >= '0' && lastChar <= '9' {
			return podName[:len(podName)-2]
		}
	}

	// Try Deployment pattern (remove last two dash-separated segments)
	dashCount := 0
	for i := len(podName) - 1; i >= 0; i-- {
		if podName[i] == '-' {
			dashCount++
			if dashCount == 2 {
				return podName[:i]
			}
		}
	}

	return podName
}

// GetAnalyzer returns the analyzer for direct use
func (s *Scanner) GetAnalyzer() *analyzer.Analyzer {
	return s.analyzer
}
