package dump

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/opscart/k8s-resource-dashboard/pkg/models"
	"github.com/opscart/k8s-resource-dashboard/pkg/storage"
)

// ErrDumpNotFound is returned when the named snapshot file does not exist.
var ErrDumpNotFound = fmt.Errorf("dump file not found")

// Manager creates, lists and restores point-in-time JSON snapshots of both
// tables.
type Manager struct {
	dir   string
	store storage.Store
}

func NewManager(dir string, store storage.Store) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create dump directory: %w", err)
	}
	return &Manager{dir: dir, store: store}, nil
}

// CreateDump reads both tables in full, wraps them with a metadata summary
// and writes a uniquely named file. The name carries sub-second precision
// to avoid collisions between back-to-back dumps.
func (m *Manager) CreateDump(ctx context.Context) (string, error) {
	utilization, err := m.store.GetAllResourceUtilization(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read resource utilization: %w", err)
	}

	history, err := m.store.GetAllOptimizationHistory(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read optimization history: %w", err)
	}

	now := time.Now().UTC()
	snapshot := models.DumpSnapshot{
		ResourceUtilization: utilization,
		OptimizationHistory: history,
		Timestamp:           now,
		Metadata: models.DumpMetadata{
			TotalApps:          len(utilization),
			TotalOptimizations: len(history),
			Environments:       distinct(utilization, func(r models.ResourceUtilizationRecord) string { return r.Env }),
			Projects:           distinct(utilization, func(r models.ResourceUtilizationRecord) string { return r.Project }),
		},
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode dump: %w", err)
	}

	name := dumpFilename(now)
	if err := os.WriteFile(filepath.Join(m.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write dump file: %w", err)
	}

	return name, nil
}

// ListDumps enumerates snapshot files with size and modification time.
// Filesystem only, no database access.
func (m *Manager) ListDumps() ([]models.DumpFileInfo, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list dumps: %w", err)
	}

	dumps := []models.DumpFileInfo{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat dump %s: %w", entry.Name(), err)
		}
		dumps = append(dumps, models.DumpFileInfo{
			Filename: entry.Name(),
			Size:     info.Size(),
			Created:  info.ModTime(),
		})
	}

	sort.Slice(dumps, func(i, j int) bool { return dumps[i].Filename < dumps[j].Filename })

	return dumps, nil
}

// LoadDump reads and parses one snapshot file.
func (m *Manager) LoadDump(name string) (*models.DumpSnapshot, error) {
	// strip any path components before touching the filesystem
	name = filepath.Base(name)

	data, err := os.ReadFile(filepath.Join(m.dir, name))
	if os.IsNotExist(err) {
		return nil, ErrDumpNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dump file: %w", err)
	}

	var snapshot models.DumpSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse dump file: %w", err)
	}

	return &snapshot, nil
}

// RestoreFromDump reloads both tables from the named snapshot. The reload
// itself runs as one transaction in the store, so a failed restore leaves
// the previous dataset intact.
func (m *Manager) RestoreFromDump(ctx context.Context, name string) error {
	snapshot, err := m.LoadDump(name)
	if err != nil {
		return err
	}

	if err := m.store.RestoreAll(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to restore from dump %s: %w", name, err)
	}

	return nil
}

func dumpFilename(ts time.Time) string {
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(ts.Format("2006-01-02T15:04:05.000000000Z"))
	return fmt.Sprintf("resource-dump-%s.json", stamp)
}

func distinct(records []models.ResourceUtilizationRecord, key func(models.ResourceUtilizationRecord) string) []string {
	seen := make(map[string]bool)
	values := []string{}
	for _, rec := range records {
		v := key(rec)
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Strings(values)
	return values
}
