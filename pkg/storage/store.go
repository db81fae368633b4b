package storage

import (
	"context"
	"errors"

	"github.com/opscart/k8s-resource-dashboard/pkg/models"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for the report queries and writes backing the
// dashboard API. Each method is a single parameterized statement; no state
// is held between calls.
type Store interface {
	GetAllResourceUtilization(ctx context.Context) ([]models.ResourceUtilizationRecord, error)
	GetResourceUtilizationByEnv(ctx context.Context, env string) ([]models.ResourceUtilizationRecord, error)
	GetResourceUtilizationByProject(ctx context.Context, project string) ([]models.ResourceUtilizationRecord, error)
	GetOverprovisionedApps(ctx context.Context, thresholdPercent float64) ([]models.ResourceUtilizationRecord, error)
	GetOptimizationRecommendations(ctx context.Context) ([]models.Recommendation, error)
	GetProjectStats(ctx context.Context) ([]models.GroupStats, error)
	GetEnvironmentStats(ctx context.Context) ([]models.GroupStats, error)
	InsertResourceUtilization(ctx context.Context, rec *models.ResourceUtilizationRecord) (*models.ResourceUtilizationRecord, error)

	GetAllOptimizationHistory(ctx context.Context) ([]models.OptimizationHistoryRecord, error)
	GetOptimizationRecord(ctx context.Context, id int64) (*models.OptimizationHistoryRecord, error)
	InsertOptimizationRecord(ctx context.Context, rec *models.OptimizationHistoryRecord) (*models.OptimizationHistoryRecord, error)
	UpdateOptimizationStatus(ctx context.Context, id int64, status string, prURL *string) (*models.OptimizationHistoryRecord, error)

	// RestoreAll replaces the contents of both tables with the snapshot's
	// rows as a single transaction.
	RestoreAll(ctx context.Context, snapshot *models.DumpSnapshot) error

	Ping(ctx context.Context) error
	Close() error
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Schema   string
	Table    string
	SSLMode  string
}
