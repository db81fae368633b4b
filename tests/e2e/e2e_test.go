//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"
)

// baseURL points at a running dashboard-api instance. Start one with
// `dashboard-api --in-memory` before running this suite.
func baseURL() string {
	if url := os.Getenv("DASHBOARD_API_URL"); url != "" {
		return url
	}
	return "http://localhost:3001"
}

var client = &http.Client{Timeout: 10 * time.Second}

func getJSON(t *testing.T, path string, out interface{}) {
	t.Helper()

	resp, err := client.Get(baseURL() + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s returned %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("GET %s: invalid JSON: %v", path, err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	var health map[string]interface{}
	getJSON(t, "/api/health", &health)

	if health["status"] != "OK" {
		t.Errorf("status = %v, want OK", health["status"])
	}
	t.Logf("✓ API healthy: %v", health)
}

func TestResourceUtilizationEndpoints(t *testing.T) {
	var records []map[string]interface{}
	getJSON(t, "/api/resource-utilization", &records)

	if len(records) == 0 {
		t.Fatal("No utilization records. Seed the database or run with --in-memory")
	}
	t.Logf("✓ Found %d utilization records", len(records))

	var overprovisioned []map[string]interface{}
	getJSON(t, "/api/overprovisioned-apps", &overprovisioned)

	if len(overprovisioned) > len(records) {
		t.Errorf("overprovisioned (%d) exceeds total (%d)", len(overprovisioned), len(records))
	}
	t.Logf("✓ %d of %d apps over-provisioned at default threshold", len(overprovisioned), len(records))
}

func TestOptimizationHistoryLifecycle(t *testing.T) {
	body, _ := json.Marshal(map[string]interface{}{
		"app_uniq":    "e2e-test-app",
		"app_id":      "E2E001",
		"env":         "dit",
		"old_req_cpu": 500,
		"new_req_cpu": 150,
	})

	resp, err := client.Post(baseURL()+"/api/optimization-history", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST returned %d, want 201", resp.StatusCode)
	}

	var created struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("invalid create response: %v", err)
	}
	if created.Status != "pending" {
		t.Errorf("status = %q, want pending", created.Status)
	}

	update, _ := json.Marshal(map[string]string{"status": "completed"})
	req, _ := http.NewRequest(http.MethodPut,
		fmt.Sprintf("%s/api/optimization-history/%d", baseURL(), created.ID),
		bytes.NewReader(update))
	req.Header.Set("Content-Type", "application/json")

	updateResp, err := client.Do(req)
	if err != nil {
		t.Fatalf("PUT failed: %v", err)
	}
	defer updateResp.Body.Close()

	if updateResp.StatusCode != http.StatusOK {
		t.Fatalf("PUT returned %d, want 200", updateResp.StatusCode)
	}
	t.Logf("✓ Optimization record %d created and completed", created.ID)
}

func TestDumpRestoreRoundTrip(t *testing.T) {
	resp, err := client.Post(baseURL()+"/api/dump", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/dump failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dump returned %d", resp.StatusCode)
	}

	var dumpResp struct {
		File string `json:"file"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&dumpResp); err != nil {
		t.Fatalf("invalid dump response: %v", err)
	}

	restoreResp, err := client.Post(baseURL()+"/api/restore/"+dumpResp.File, "application/json", nil)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	defer restoreResp.Body.Close()

	if restoreResp.StatusCode != http.StatusOK {
		t.Fatalf("restore returned %d", restoreResp.StatusCode)
	}
	t.Logf("✓ Dump %s created and restored", dumpResp.File)
}

func TestScanCLIExecution(t *testing.T) {
	if os.Getenv("E2E_CLUSTER") == "" {
		t.Skip("set E2E_CLUSTER=1 to run the scan CLI against a real cluster")
	}

	t.Log("Building utilization-scan...")
	build := exec.Command("go", "build", "-o", "../../bin/utilization-scan", "../../cmd/utilization-scan")
	if output, err := build.CombinedOutput(); err != nil {
		t.Fatalf("Build failed: %v\n%s", err, output)
	}
	t.Log("✓ Built CLI")

	cmd := exec.Command("../../bin/utilization-scan", "-n", "default", "--dry-run")
	output, err := cmd.CombinedOutput()

	outputStr := string(output)
	t.Logf("Output:\n%s", outputStr)

	if err != nil {
		t.Fatalf("CLI failed: %v", err)
	}

	if !strings.Contains(outputStr, "default") {
		t.Error("Output should mention the scanned namespace")
	}
}
