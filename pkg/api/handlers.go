package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opscart/k8s-resource-dashboard/pkg/analyzer"
	"github.com/opscart/k8s-resource-dashboard/pkg/dump"
	"github.com/opscart/k8s-resource-dashboard/pkg/models"
	"github.com/opscart/k8s-resource-dashboard/pkg/storage"
	"github.com/rs/zerolog/log"
)

// storeError converts any persistence failure into the uniform error shape.
// The underlying message is passed through; this is an internal tool.
func storeError(c *gin.Context, err error, msg string) {
	log.Error().Err(err).Str("requestID", c.GetString("requestID")).Msg(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (s *Server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database": gin.H{
			"schema": s.cfg.DBSchema,
			"table":  s.cfg.DBTable,
		},
	})
}

func (s *Server) getAllResourceUtilization(c *gin.Context) {
	records, err := s.store.GetAllResourceUtilization(c.Request.Context())
	if err != nil {
		storeError(c, err, "Failed retrieving resource utilization")
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) getResourceUtilizationByEnv(c *gin.Context) {
	records, err := s.store.GetResourceUtilizationByEnv(c.Request.Context(), c.Param("env"))
	if err != nil {
		storeError(c, err, "Failed retrieving resource utilization by env")
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) getResourceUtilizationByProject(c *gin.Context) {
	records, err := s.store.GetResourceUtilizationByProject(c.Request.Context(), c.Param("project"))
	if err != nil {
		storeError(c, err, "Failed retrieving resource utilization by project")
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) getOverprovisionedApps(c *gin.Context) {
	threshold := s.cfg.OverprovisionedThreshold
	if raw := c.Query("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a number between 0 and 100"})
			return
		}
		threshold = parsed
	}

	records, err := s.store.GetOverprovisionedApps(c.Request.Context(), threshold)
	if err != nil {
		storeError(c, err, "Failed retrieving overprovisioned apps")
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) getOptimizationRecommendations(c *gin.Context) {
	recommendations, err := s.store.GetOptimizationRecommendations(c.Request.Context())
	if err != nil {
		storeError(c, err, "Failed retrieving optimization recommendations")
		return
	}

	for i := range recommendations {
		saved := recommendations[i].ReqCPU - recommendations[i].NewReqCPU
		recommendations[i].EstMonthlySavings = math.Round(s.pricing.MonthlyCPUCost(saved)*100) / 100
	}

	c.JSON(http.StatusOK, recommendations)
}

func (s *Server) getProjectStats(c *gin.Context) {
	stats, err := s.store.GetProjectStats(c.Request.Context())
	if err != nil {
		storeError(c, err, "Failed retrieving project stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) getEnvironmentStats(c *gin.Context) {
	stats, err := s.store.GetEnvironmentStats(c.Request.Context())
	if err != nil {
		storeError(c, err, "Failed retrieving environment stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) getProjectDetail(c *gin.Context) {
	records, err := s.store.GetResourceUtilizationByProject(c.Request.Context(), c.Param("project"))
	if err != nil {
		storeError(c, err, "Failed retrieving project detail")
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) getProjectStatsByName(c *gin.Context) {
	stats, err := s.store.GetProjectStats(c.Request.Context())
	if err != nil {
		storeError(c, err, "Failed retrieving project stats")
		return
	}

	project := c.Param("project")
	for _, st := range stats {
		if st.Project == project {
			c.JSON(http.StatusOK, st)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
}

func (s *Server) getOptimizationHistory(c *gin.Context) {
	history, err := s.store.GetAllOptimizationHistory(c.Request.Context())
	if err != nil {
		storeError(c, err, "Failed retrieving optimization history")
		return
	}
	c.JSON(http.StatusOK, history)
}

func (s *Server) getOptimizationRecord(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}

	rec, err := s.store.GetOptimizationRecord(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Optimization record not found"})
		return
	}
	if err != nil {
		storeError(c, err, "Failed retrieving optimization record")
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) createOptimizationRecord(c *gin.Context) {
	var rec models.OptimizationHistoryRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if rec.AppUniq == "" || rec.AppID == "" || rec.Env == "" || rec.OldReqCPU <= 0 || rec.NewReqCPU <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "app_uniq, app_id, env, old_req_cpu and new_req_cpu are required"})
		return
	}
	if rec.Status != "" && !models.ValidStatus(rec.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be one of pending, in_progress, completed, failed"})
		return
	}

	created, err := s.store.InsertOptimizationRecord(c.Request.Context(), &rec)
	if err != nil {
		storeError(c, err, "Failed creating optimization record")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) updateOptimizationStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}

	var body struct {
		Status string  `json:"status"`
		PRURL  *string `json:"pr_url"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if !models.ValidStatus(body.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be one of pending, in_progress, completed, failed"})
		return
	}

	updated, err := s.store.UpdateOptimizationStatus(c.Request.Context(), id, body.Status, body.PRURL)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Optimization record not found"})
		return
	}
	if err != nil {
		storeError(c, err, "Failed updating optimization status")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) createDump(c *gin.Context) {
	file, err := s.dumps.CreateDump(c.Request.Context())
	if err != nil {
		storeError(c, err, "Failed creating dump")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Database dump created successfully", "file": file})
}

func (s *Server) listDumps(c *gin.Context) {
	dumps, err := s.dumps.ListDumps()
	if err != nil {
		storeError(c, err, "Failed listing dumps")
		return
	}
	c.JSON(http.StatusOK, dumps)
}

func (s *Server) restoreFromDump(c *gin.Context) {
	file := c.Param("dumpFile")

	err := s.dumps.RestoreFromDump(c.Request.Context(), file)
	if errors.Is(err, dump.ErrDumpNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dump file not found"})
		return
	}
	if err != nil {
		// a failed reload rolls back; tables keep the previous dataset
		storeError(c, err, "Failed restoring from dump")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Database restored successfully", "file": file})
}

func (s *Server) getStatsSummary(c *gin.Context) {
	ctx := c.Request.Context()

	records, err := s.store.GetAllResourceUtilization(ctx)
	if err != nil {
		storeError(c, err, "Failed retrieving summary statistics")
		return
	}
	projectStats, err := s.store.GetProjectStats(ctx)
	if err != nil {
		storeError(c, err, "Failed retrieving summary statistics")
		return
	}
	envStats, err := s.store.GetEnvironmentStats(ctx)
	if err != nil {
		storeError(c, err, "Failed retrieving summary statistics")
		return
	}

	summary := models.Summary{
		TotalApps:        len(records),
		TotalProjects:    len(projectStats),
		Environments:     make([]string, 0, len(envStats)),
		Projects:         make([]string, 0, len(projectStats)),
		ProjectBreakdown: projectStats,
	}
	for _, st := range envStats {
		summary.Environments = append(summary.Environments, st.Environment)
	}
	for _, st := range projectStats {
		summary.Projects = append(summary.Projects, st.Project)
	}

	var utilizationSum float64
	for _, rec := range records {
		utilizationSum += rec.MaxCPUUtilzPercent
		if analyzer.IsOverProvisioned(rec.MaxCPU, rec.MaxCPUUtilzPercent, rec.ReqCPU, analyzer.DefaultThresholdPercent) {
			summary.OverprovisionedCount++
			summary.TotalCPUSavings += rec.ReqCPU - rec.NewReqCPU
		}
	}
	if len(records) > 0 {
		summary.AvgCPUUtilization = utilizationSum / float64(len(records))
	}

	c.JSON(http.StatusOK, summary)
}
