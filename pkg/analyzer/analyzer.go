package analyzer

import (
	"context"
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	metricsv "k8s.io/metrics/pkg/client/clientset/versioned"
)

type PodAnalysis struct {
	Name           string
	Namespace      string
	ContainerName  string
	RequestedCPU   int64   // in millicores
	ActualCPU      int64   // in millicores
	CPUUtilization float64 // percentage of request
	HasHPA         bool    // workloads behind an HPA are skipped by the scan
	HPAName        string
	WorkloadType   string // Deployment, StatefulSet, etc.
	WorkloadName   string // name of the parent workload
}

type Analyzer struct {
	clientset     *kubernetes.Clientset
	metricsClient *metricsv.Clientset
}

func New(clientset *kubernetes.Clientset, metricsClient *metricsv.Clientset) *Analyzer {
	return &Analyzer{
		clientset:     clientset,
		metricsClient: metricsClient,
	}
}

// getTopLevelOwner extracts the top-level workload (Deployment/StatefulSet) from pod
func getTopLevelOwner(pod corev1.Pod) (kind string, name string) {
	if len(pod.OwnerReferences) == 0 {
		return "", ""
	}

	owner := pod.OwnerReferences[0]

	// If owner is ReplicaSet, extract Deployment name
	if owner.Kind == "ReplicaSet" {
		rsName := owner.Name
		lastDash := strings.LastIndex(rsName, "-")
		if lastDash > 0 {
			return "Deployment", rsName[:lastDash]
		}
	}

	return owner.Kind, owner.Name
}

// checkHPA checks if a pod's workload has an HPA configured
func (a *Analyzer) checkHPA(ctx context.Context, pod corev1.Pod) (bool, string) {
	ownerKind, ownerName := getTopLevelOwner(pod)

	if ownerName == "" {
		return false, ""
	}

	hpaList, err := a.clientset.AutoscalingV2().HorizontalPodAutoscalers(pod.Namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		// Log error but don't fail - just assume no HPA
		return false, ""
	}

	for _, hpa := range hpaList.Items {
		if hpa.Spec.ScaleTargetRef.Name == ownerName &&
			hpa.Spec.ScaleTargetRef.Kind == ownerKind {
			return true, hpa.Name
		}
	}
	return false, ""
}

// AnalyzePods collects CPU request and instant usage for every container in
// the namespace, keyed to its parent workload.
func (a *Analyzer) AnalyzePods(ctx context.Context, namespace string) ([]PodAnalysis, error) {
	pods, err := a.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}

	podMetrics, err := a.metricsClient.MetricsV1beta1().PodMetricses(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get pod metrics: %w", err)
	}

	// Create metrics lookup
	metricsMap := make(map[string]map[string]resource.Quantity)
	for _, pm := range podMetrics.Items {
		metricsMap[pm.Name] = make(map[string]resource.Quantity)
		for _, container := range pm.Containers {
			metricsMap[pm.Name][container.Name] = container.Usage[corev1.ResourceCPU]
		}
	}

	var analyses []PodAnalysis

	for _, pod := range pods.Items {
		// Check HPA once per pod (not per container)
		hasHPA, hpaName := a.checkHPA(ctx, pod)
		workloadKind, workloadName := getTopLevelOwner(pod)

		for _, container := range pod.Spec.Containers {
			analysis := PodAnalysis{
				Name:          pod.Name,
				Namespace:     pod.Namespace,
				ContainerName: container.Name,
				HasHPA:        hasHPA,
				HPAName:       hpaName,
				WorkloadType:  workloadKind,
				WorkloadName:  workloadName,
			}

			if cpu, ok := container.Resources.Requests[corev1.ResourceCPU]; ok {
				analysis.RequestedCPU = cpu.MilliValue()
			}

			if containers, ok := metricsMap[pod.Name]; ok {
				if usage, ok := containers[container.Name]; ok {
					analysis.ActualCPU = usage.MilliValue()
				}
			}

			if analysis.RequestedCPU > 0 {
				analysis.CPUUtilization = float64(analysis.ActualCPU) / float64(analysis.RequestedCPU) * 100
			}

			analyses = append(analyses, analysis)
		}
	}

	return analyses, nil
}
