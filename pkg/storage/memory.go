package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/opscart/k8s-resource-dashboard/pkg/analyzer"
	"github.com/opscart/k8s-resource-dashboard/pkg/models"
)

// MemoryStore is an in-memory Store used for local development without a
// database and for tests. It applies the same classification rule as the
// SQL queries through pkg/analyzer.
type MemoryStore struct {
	mu            sync.RWMutex
	records       []models.ResourceUtilizationRecord
	history       []models.OptimizationHistoryRecord
	nextRecordID  int64
	nextHistoryID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextRecordID: 1, nextHistoryID: 1}
}

// SeedSampleData loads a handful of representative rows for local
// development, mirroring what a first cluster scan would produce.
func (s *MemoryStore) SeedSampleData() {
	samples := []models.ResourceUtilizationRecord{
		{AppUniq: "aaoesigcloud-dit", Project: "filiannaccop-api", PRStatus: "Merged", AppName: "aaoesigclouc", AppID: "AP153454", Env: "dit", MaxCPU: 481.24, AvgCPU: 10.55, ReqCPU: 512, NewReqCPU: 100},
		{AppUniq: "acctbenasset-uat", Project: "nextgensp-api", PRStatus: "Open", AppName: "aaogateway", AppID: "AP155472", Env: "uat", MaxCPU: 137.44, AvgCPU: 11.07, ReqCPU: 250, NewReqCPU: 100},
		{AppUniq: "acctbenasset-uat", Project: "faa-retail-api", PRStatus: "Merged", AppName: "acctbenasse", AppID: "AP158019", Env: "uat", MaxCPU: 86.47, AvgCPU: 11.22, ReqCPU: 500, NewReqCPU: 100},
		{AppUniq: "aaoesigcloud-dit", Project: "filiannaccop-api", PRStatus: "Open", AppName: "aaoesigclouc", AppID: "AP153455", Env: "dit", MaxCPUUtilzPercent: 81.89, ReqCPU: 300, NewReqCPU: 100},
		{AppUniq: "acctbenasset-uat", Project: "nextgensp-api", PRStatus: "Merged", AppName: "aaogateway", AppID: "AP155473", Env: "uat", MaxCPUUtilzPercent: 20.0, ReqCPU: 200, NewReqCPU: 100},
	}
	ctx := context.Background()
	for i := range samples {
		_, _ = s.InsertResourceUtilization(ctx, &samples[i])
	}
}

// normalize fills both usage representations the way the SQL select list
// does.
func normalize(rec models.ResourceUtilizationRecord) models.ResourceUtilizationRecord {
	maxCPU, percent := rec.MaxCPU, rec.MaxCPUUtilzPercent
	rec.MaxCPU = analyzer.ActualCPUUsed(maxCPU, percent, rec.ReqCPU)
	rec.MaxCPUUtilzPercent = analyzer.UtilizationPercent(maxCPU, percent, rec.ReqCPU)
	return rec
}

func (s *MemoryStore) GetAllResourceUtilization(ctx context.Context) ([]models.ResourceUtilizationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ResourceUtilizationRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, normalize(rec))
	}
	return out, nil
}

func (s *MemoryStore) filterRecords(keep func(models.ResourceUtilizationRecord) bool) []models.ResourceUtilizationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.ResourceUtilizationRecord{}
	for _, rec := range s.records {
		if keep(rec) {
			out = append(out, normalize(rec))
		}
	}
	return out
}

func (s *MemoryStore) GetResourceUtilizationByEnv(ctx context.Context, env string) ([]models.ResourceUtilizationRecord, error) {
	return s.filterRecords(func(r models.ResourceUtilizationRecord) bool { return r.Env == env }), nil
}

func (s *MemoryStore) GetResourceUtilizationByProject(ctx context.Context, project string) ([]models.ResourceUtilizationRecord, error) {
	return s.filterRecords(func(r models.ResourceUtilizationRecord) bool { return r.Project == project }), nil
}

func (s *MemoryStore) GetOverprovisionedApps(ctx context.Context, thresholdPercent float64) ([]models.ResourceUtilizationRecord, error) {
	out := s.filterRecords(func(r models.ResourceUtilizationRecord) bool {
		return analyzer.IsOverProvisioned(r.MaxCPU, r.MaxCPUUtilzPercent, r.ReqCPU, thresholdPercent)
	})
	sort.SliceStable(out, func(i, j int) bool {
		return analyzer.WastedCPU(out[i].MaxCPU, out[i].MaxCPUUtilzPercent, out[i].ReqCPU) >
			analyzer.WastedCPU(out[j].MaxCPU, out[j].MaxCPUUtilzPercent, out[j].ReqCPU)
	})
	return out, nil
}

func (s *MemoryStore) GetOptimizationRecommendations(ctx context.Context) ([]models.Recommendation, error) {
	candidates := s.filterRecords(func(r models.ResourceUtilizationRecord) bool {
		return r.NewReqCPU < r.ReqCPU &&
			analyzer.IsOverProvisioned(r.MaxCPU, r.MaxCPUUtilzPercent, r.ReqCPU, analyzer.DefaultThresholdPercent)
	})

	recommendations := make([]models.Recommendation, 0, len(candidates))
	for _, rec := range candidates {
		recommendations = append(recommendations, models.Recommendation{
			AppUniq:            rec.AppUniq,
			AppName:            rec.AppName,
			AppID:              rec.AppID,
			Env:                rec.Env,
			Project:            rec.Project,
			MaxCPU:             rec.MaxCPU,
			AvgCPU:             rec.AvgCPU,
			ReqCPU:             rec.ReqCPU,
			NewReqCPU:          rec.NewReqCPU,
			MaxCPUUtilzPercent: rec.MaxCPUUtilzPercent,
			CPUSavingsPercent:  analyzer.CPUSavingsPercent(rec.ReqCPU, rec.NewReqCPU),
		})
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].CPUSavingsPercent > recommendations[j].CPUSavingsPercent
	})

	return recommendations, nil
}

func (s *MemoryStore) groupStats(key func(models.ResourceUtilizationRecord) string, assign func(*models.GroupStats, string)) []models.GroupStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := map[string]*models.GroupStats{}
	apps := map[string]map[string]bool{}
	utilSums := map[string]float64{}
	keys := []string{}

	for _, rec := range s.records {
		k := key(rec)
		st, ok := groups[k]
		if !ok {
			st = &models.GroupStats{}
			assign(st, k)
			groups[k] = st
			apps[k] = map[string]bool{}
			keys = append(keys, k)
		}

		st.TotalEntries++
		apps[k][rec.AppID] = true
		utilSums[k] += analyzer.UtilizationPercent(rec.MaxCPU, rec.MaxCPUUtilzPercent, rec.ReqCPU)

		if analyzer.IsOverProvisioned(rec.MaxCPU, rec.MaxCPUUtilzPercent, rec.ReqCPU, analyzer.DefaultThresholdPercent) {
			st.OverprovisionedApps++
			st.PotentialCPUSavings += rec.ReqCPU - rec.NewReqCPU
		} else {
			st.ProperlyProvisionedApps++
		}
	}

	sort.Strings(keys)
	out := make([]models.GroupStats, 0, len(keys))
	for _, k := range keys {
		st := groups[k]
		st.UniqueApps = len(apps[k])
		if st.TotalEntries > 0 {
			st.AvgCPUUtilization = utilSums[k] / float64(st.TotalEntries)
		}
		out = append(out, *st)
	}
	return out
}

func (s *MemoryStore) GetProjectStats(ctx context.Context) ([]models.GroupStats, error) {
	return s.groupStats(
		func(r models.ResourceUtilizationRecord) string { return r.Project },
		func(st *models.GroupStats, k string) { st.Project = k },
	), nil
}

func (s *MemoryStore) GetEnvironmentStats(ctx context.Context) ([]models.GroupStats, error) {
	return s.groupStats(
		func(r models.ResourceUtilizationRecord) string { return r.Env },
		func(st *models.GroupStats, k string) { st.Environment = k },
	), nil
}

func (s *MemoryStore) InsertResourceUtilization(ctx context.Context, rec *models.ResourceUtilizationRecord) (*models.ResourceUtilizationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := *rec
	created.ID = s.nextRecordID
	s.nextRecordID++
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now()
	}
	if created.UpdatedAt.IsZero() {
		created.UpdatedAt = created.CreatedAt
	}
	if created.PRStatus == "" {
		created.PRStatus = "Open"
	}

	s.records = append(s.records, created)
	return &created, nil
}

func (s *MemoryStore) GetAllOptimizationHistory(ctx context.Context) ([]models.OptimizationHistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.OptimizationHistoryRecord, len(s.history))
	copy(out, s.history)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OptimizationDate.After(out[j].OptimizationDate) })
	return out, nil
}

func (s *MemoryStore) GetOptimizationRecord(ctx context.Context, id int64) (*models.OptimizationHistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.history {
		if s.history[i].ID == id {
			rec := s.history[i]
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) InsertOptimizationRecord(ctx context.Context, rec *models.OptimizationHistoryRecord) (*models.OptimizationHistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := *rec
	created.ID = s.nextHistoryID
	s.nextHistoryID++
	if created.Status == "" {
		created.Status = string(models.StatusPending)
	}
	if created.OptimizationDate.IsZero() {
		created.OptimizationDate = time.Now()
	}
	created.UpdatedAt = created.OptimizationDate

	s.history = append(s.history, created)
	return &created, nil
}

func (s *MemoryStore) UpdateOptimizationStatus(ctx context.Context, id int64, status string, prURL *string) (*models.OptimizationHistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.history {
		if s.history[i].ID == id {
			s.history[i].Status = status
			if prURL != nil {
				s.history[i].PRURL = *prURL
			}
			s.history[i].UpdatedAt = time.Now()
			updated := s.history[i]
			return &updated, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) RestoreAll(ctx context.Context, snapshot *models.DumpSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.history = nil
	s.nextRecordID = 1
	s.nextHistoryID = 1

	for _, rec := range snapshot.ResourceUtilization {
		rec.ID = s.nextRecordID
		s.nextRecordID++
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now()
		}
		s.records = append(s.records, rec)
	}

	for _, rec := range snapshot.OptimizationHistory {
		rec.ID = s.nextHistoryID
		s.nextHistoryID++
		if rec.Status == "" {
			rec.Status = string(models.StatusPending)
		}
		if rec.OptimizationDate.IsZero() {
			rec.OptimizationDate = time.Now()
		}
		s.history = append(s.history, rec)
	}

	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
