package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscart/k8s-resource-dashboard/pkg/config"
	"github.com/opscart/k8s-resource-dashboard/pkg/dump"
	"github.com/opscart/k8s-resource-dashboard/pkg/models"
	"github.com/opscart/k8s-resource-dashboard/pkg/pricing"
	"github.com/opscart/k8s-resource-dashboard/pkg/storage"
)

func newTestRouter(t *testing.T) (*gin.Engine, *storage.MemoryStore) {
	t.Helper()

	store := storage.NewMemoryStore()
	store.SeedSampleData()

	dumps, err := dump.NewManager(t.TempDir(), store)
	require.NoError(t, err)

	cfg := config.NewConfig()
	srv := NewServer(cfg, store, dumps, pricing.NewDefaultProvider(cfg.CPUCostPerCore))
	return srv.Router(), store
}

func doRequest(router *gin.Engine, method, target string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "OK", body["status"])
	assert.NotEmpty(t, body["timestamp"])
	assert.Contains(t, body, "database")
}

func TestGetAllResourceUtilization(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/resource-utilization", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var records []models.ResourceUtilizationRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	assert.Len(t, records, 5)
}

func TestGetResourceUtilizationByEnv(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/resource-utilization/env/uat", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var records []models.ResourceUtilizationRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 3)
	for _, rec := range records {
		assert.Equal(t, "uat", rec.Env)
	}
}

func TestGetOverprovisionedApps(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("default threshold", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/overprovisioned-apps", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var records []models.ResourceUtilizationRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
		assert.Len(t, records, 2)
	})

	t.Run("zero threshold excludes everything", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/overprovisioned-apps?threshold=0", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var records []models.ResourceUtilizationRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
		assert.Empty(t, records)
	})

	t.Run("non-numeric threshold is rejected", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/overprovisioned-apps?threshold=abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("out of range threshold is rejected", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/overprovisioned-apps?threshold=150", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetOptimizationRecommendations(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/optimization-recommendations", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var recs []models.Recommendation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
	require.NotEmpty(t, recs)
	for _, rec := range recs {
		assert.Less(t, rec.NewReqCPU, rec.ReqCPU)
		assert.Greater(t, rec.CPUSavingsPercent, 0.0)
		assert.Greater(t, rec.EstMonthlySavings, 0.0, "savings should be priced on %s", rec.AppUniq)
	}
}

func TestGetProjectStatsByName(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("known project", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/projects/nextgensp-api/stats", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var stats models.GroupStats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Equal(t, "nextgensp-api", stats.Project)
		assert.Equal(t, 2, stats.TotalEntries)
	})

	t.Run("unknown project", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/projects/no-such-project/stats", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCreateOptimizationRecord(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("valid record defaults to pending", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{
			"app_uniq":    "aaoesigcloud-dit",
			"app_id":      "AP153454",
			"env":         "dit",
			"old_req_cpu": 512,
			"new_req_cpu": 100,
		})
		w := doRequest(router, http.MethodPost, "/api/optimization-history", body)
		require.Equal(t, http.StatusCreated, w.Code)

		var created models.OptimizationHistoryRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.NotZero(t, created.ID)
		assert.Equal(t, string(models.StatusPending), created.Status)
		assert.False(t, created.OptimizationDate.IsZero())
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{"app_uniq": "x"})
		w := doRequest(router, http.MethodPost, "/api/optimization-history", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{
			"app_uniq":    "aaoesigcloud-dit",
			"app_id":      "AP153454",
			"env":         "dit",
			"old_req_cpu": 512,
			"new_req_cpu": 100,
			"status":      "done",
		})
		w := doRequest(router, http.MethodPost, "/api/optimization-history", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetOptimizationRecord(t *testing.T) {
	router, store := newTestRouter(t)

	created, err := store.InsertOptimizationRecord(context.Background(), &models.OptimizationHistoryRecord{
		AppUniq:   "filiannaccop-api-dit",
		AppID:     "AP153990",
		Env:       "dit",
		OldReqCPU: 250,
		NewReqCPU: 130,
	})
	require.NoError(t, err)

	t.Run("existing record", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, fmt.Sprintf("/api/optimization-history/%d", created.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var got models.OptimizationHistoryRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "filiannaccop-api-dit", got.AppUniq)
	})

	t.Run("unknown id", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/optimization-history/99999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/optimization-history/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateOptimizationStatus(t *testing.T) {
	router, store := newTestRouter(t)

	created, err := store.InsertOptimizationRecord(context.Background(), &models.OptimizationHistoryRecord{
		AppUniq:   "acctbenasset-uat",
		AppID:     "AP158019",
		Env:       "uat",
		OldReqCPU: 500,
		NewReqCPU: 100,
	})
	require.NoError(t, err)

	t.Run("valid transition", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{
			"status": "completed",
			"pr_url": "https://git.example.com/pr/42",
		})
		w := doRequest(router, http.MethodPut, fmt.Sprintf("/api/optimization-history/%d", created.ID), body)
		require.Equal(t, http.StatusOK, w.Code)

		var updated models.OptimizationHistoryRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		assert.Equal(t, "completed", updated.Status)
		assert.Equal(t, "https://git.example.com/pr/42", updated.PRURL)
	})

	t.Run("unknown id", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{"status": "failed"})
		w := doRequest(router, http.MethodPut, "/api/optimization-history/99999", body)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{"status": "failed"})
		w := doRequest(router, http.MethodPut, "/api/optimization-history/abc", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid status", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{"status": "merged"})
		w := doRequest(router, http.MethodPut, fmt.Sprintf("/api/optimization-history/%d", created.ID), body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDumpAndRestoreEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/api/dump", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var createResp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &createResp))
	file := createResp["file"]
	require.NotEmpty(t, file)

	w = doRequest(router, http.MethodGet, "/api/dumps", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var files []models.DumpFileInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &files))
	require.Len(t, files, 1)
	assert.Equal(t, file, files[0].Filename)

	w = doRequest(router, http.MethodPost, "/api/restore/"+file, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/resource-utilization", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var records []models.ResourceUtilizationRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	assert.Len(t, records, 5)

	w = doRequest(router, http.MethodPost, "/api/restore/no-such-dump.json", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetStatsSummary(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/stats/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var summary models.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 5, summary.TotalApps)
	assert.Equal(t, 3, summary.TotalProjects)
	assert.Equal(t, 2, summary.OverprovisionedCount)
	assert.ElementsMatch(t, []string{"dit", "uat"}, summary.Environments)
	assert.Len(t, summary.ProjectBreakdown, 3)
	assert.Greater(t, summary.AvgCPUUtilization, 0.0)
}

func TestUnknownRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/bogus", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Route not found", body["error"])
}
