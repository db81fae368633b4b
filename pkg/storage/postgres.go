package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/opscart/k8s-resource-dashboard/pkg/analyzer"
	"github.com/opscart/k8s-resource-dashboard/pkg/models"
)

//go:embed migrations/*.sql
var postgresFS embed.FS

// actualUsedExpr normalizes the two storage representations into absolute
// used CPU: some backends populate max_cpu, others only the percent column.
const actualUsedExpr = "COALESCE(max_cpu, max_cpu_utilz_percent / 100.0 * req_cpu, 0)"

// utilizationExpr is the inverse normalization, peak usage as a percent of
// request.
const utilizationExpr = "COALESCE(max_cpu_utilz_percent, CASE WHEN req_cpu > 0 THEN max_cpu / req_cpu * 100.0 END, 0)"

// overProvisionedExpr is the single classification rule. The listing, the
// recommendation report and the grouped stats all embed this same fragment
// so their counts can never diverge. The placeholder is the threshold
// parameter (percent).
func overProvisionedExpr(thresholdParam string) string {
	return fmt.Sprintf("(req_cpu > 0 AND %s < req_cpu * %s / 100.0)", actualUsedExpr, thresholdParam)
}

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db           *sql.DB
	utilTable    string // qualified resource utilization table
	historyTable string // qualified optimization history table
	schema       string
	table        string
}

// NewPostgresStore opens a pooled connection and ensures the schema exists.
func NewPostgresStore(cfg Config) (*PostgresStore, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=30",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{
		db:           db,
		schema:       cfg.Schema,
		table:        cfg.Table,
		utilTable:    pq.QuoteIdentifier(cfg.Schema) + "." + pq.QuoteIdentifier(cfg.Table),
		historyTable: pq.QuoteIdentifier(cfg.Schema) + ".optimization_history",
	}

	// Run migrations
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// migrate runs the idempotent schema statements, rewritten for the
// configured schema and table names (one deployment variant points at an
// externally-owned table, so the names are not fixed).
func (s *PostgresStore) migrate() error {
	schema, err := postgresFS.ReadFile("migrations/001_postgres_schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	stmt := strings.NewReplacer(
		"{{schema}}", pq.QuoteIdentifier(s.schema),
		"{{util_table}}", s.utilTable,
		"{{history_table}}", s.historyTable,
	).Replace(string(schema))

	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// utilColumns is the normalized select list: both usage representations are
// always populated on the way out.
func (s *PostgresStore) utilColumns() string {
	return fmt.Sprintf(`id, app_uniq, project, COALESCE(pr_url, ''), COALESCE(pr_status, ''),
		app_name, app_id, env,
		%s AS max_cpu, COALESCE(avg_cpu, 0) AS avg_cpu,
		req_cpu, new_req_cpu,
		%s AS max_cpu_utilz_percent,
		COALESCE(tier, ''), created_at, updated_at`, actualUsedExpr, utilizationExpr)
}

func scanUtilRecord(rows interface{ Scan(...interface{}) error }) (models.ResourceUtilizationRecord, error) {
	var rec models.ResourceUtilizationRecord
	err := rows.Scan(
		&rec.ID, &rec.AppUniq, &rec.Project, &rec.PRURL, &rec.PRStatus,
		&rec.AppName, &rec.AppID, &rec.Env,
		&rec.MaxCPU, &rec.AvgCPU,
		&rec.ReqCPU, &rec.NewReqCPU,
		&rec.MaxCPUUtilzPercent,
		&rec.Tier, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

func (s *PostgresStore) queryUtilRecords(ctx context.Context, query string, args ...interface{}) ([]models.ResourceUtilizationRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.ResourceUtilizationRecord{}
	for rows.Next() {
		rec, err := scanUtilRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetAllResourceUtilization returns every row in stable identity order.
func (s *PostgresStore) GetAllResourceUtilization(ctx context.Context) ([]models.ResourceUtilizationRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", s.utilColumns(), s.utilTable)
	return s.queryUtilRecords(ctx, query)
}

// GetResourceUtilizationByEnv filters by exact, case-sensitive env value.
func (s *PostgresStore) GetResourceUtilizationByEnv(ctx context.Context, env string) ([]models.ResourceUtilizationRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE env = $1 ORDER BY id", s.utilColumns(), s.utilTable)
	return s.queryUtilRecords(ctx, query, env)
}

// GetResourceUtilizationByProject filters by exact, case-sensitive project value.
func (s *PostgresStore) GetResourceUtilizationByProject(ctx context.Context, project string) ([]models.ResourceUtilizationRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE project = $1 ORDER BY id", s.utilColumns(), s.utilTable)
	return s.queryUtilRecords(ctx, query, project)
}

// GetOverprovisionedApps returns rows whose used CPU is strictly below the
// threshold fraction of their request, largest waste first.
func (s *PostgresStore) GetOverprovisionedApps(ctx context.Context, thresholdPercent float64) ([]models.ResourceUtilizationRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE %s
		ORDER BY req_cpu - %s DESC`,
		s.utilColumns(), s.utilTable, overProvisionedExpr("$1"), actualUsedExpr)
	return s.queryUtilRecords(ctx, query, thresholdPercent)
}

// GetOptimizationRecommendations returns over-provisioned rows (at the
// default threshold) whose recommended request is an actual reduction,
// annotated with the relative savings and ordered best-first.
func (s *PostgresStore) GetOptimizationRecommendations(ctx context.Context) ([]models.Recommendation, error) {
	query := fmt.Sprintf(`SELECT
			app_uniq, app_name, app_id, env, project,
			%s AS max_cpu, COALESCE(avg_cpu, 0) AS avg_cpu,
			req_cpu, new_req_cpu,
			%s AS max_cpu_utilz_percent,
			ROUND(((req_cpu - new_req_cpu) / req_cpu * 100)::numeric, 2) AS cpu_savings_percent
		FROM %s
		WHERE new_req_cpu < req_cpu AND %s
		ORDER BY cpu_savings_percent DESC`,
		actualUsedExpr, utilizationExpr, s.utilTable, overProvisionedExpr("$1"))

	rows, err := s.db.QueryContext(ctx, query, analyzer.DefaultThresholdPercent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recommendations := []models.Recommendation{}
	for rows.Next() {
		var rec models.Recommendation
		err := rows.Scan(
			&rec.AppUniq, &rec.AppName, &rec.AppID, &rec.Env, &rec.Project,
			&rec.MaxCPU, &rec.AvgCPU,
			&rec.ReqCPU, &rec.NewReqCPU,
			&rec.MaxCPUUtilzPercent,
			&rec.CPUSavingsPercent,
		)
		if err != nil {
			return nil, err
		}
		recommendations = append(recommendations, rec)
	}

	return recommendations, rows.Err()
}

func (s *PostgresStore) queryGroupStats(ctx context.Context, keyColumn string) ([]models.GroupStats, error) {
	pred := overProvisionedExpr("$1")
	query := fmt.Sprintf(`SELECT
			%[1]s,
			COUNT(*) AS total_entries,
			COUNT(*) FILTER (WHERE %[2]s) AS overprovisioned_apps,
			COUNT(*) FILTER (WHERE NOT %[2]s) AS properly_provisioned_apps,
			COUNT(DISTINCT app_id) AS unique_apps,
			COALESCE(AVG(%[3]s), 0) AS avg_cpu_utilization,
			COALESCE(SUM(CASE WHEN %[2]s THEN req_cpu - new_req_cpu ELSE 0 END), 0) AS potential_cpu_savings
		FROM %[4]s
		GROUP BY %[1]s
		ORDER BY %[1]s`,
		keyColumn, pred, utilizationExpr, s.utilTable)

	rows, err := s.db.QueryContext(ctx, query, analyzer.DefaultThresholdPercent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []models.GroupStats{}
	for rows.Next() {
		var st models.GroupStats
		var key string
		err := rows.Scan(
			&key, &st.TotalEntries, &st.OverprovisionedApps, &st.ProperlyProvisionedApps,
			&st.UniqueApps, &st.AvgCPUUtilization, &st.PotentialCPUSavings,
		)
		if err != nil {
			return nil, err
		}
		if keyColumn == "project" {
			st.Project = key
		} else {
			st.Environment = key
		}
		stats = append(stats, st)
	}

	return stats, rows.Err()
}

// GetProjectStats groups by the raw project value. Inconsistent casing
// yields distinct groups; that mirrors the stored data.
func (s *PostgresStore) GetProjectStats(ctx context.Context) ([]models.GroupStats, error) {
	return s.queryGroupStats(ctx, "project")
}

// GetEnvironmentStats groups by the raw env value.
func (s *PostgresStore) GetEnvironmentStats(ctx context.Context) ([]models.GroupStats, error) {
	return s.queryGroupStats(ctx, "env")
}

// nullIfZero maps our "absent" convention onto SQL NULL so the read-side
// normalization can tell which representation a row carries.
func nullIfZero(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: v > 0}
}

func nullIfEmpty(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

// InsertResourceUtilization writes one row; used by restore and the cluster
// scan pipeline.
func (s *PostgresStore) InsertResourceUtilization(ctx context.Context, rec *models.ResourceUtilizationRecord) (*models.ResourceUtilizationRecord, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}

	query := fmt.Sprintf(`INSERT INTO %s
			(app_uniq, project, pr_url, pr_status, app_name, app_id, env,
			 max_cpu, avg_cpu, req_cpu, new_req_cpu, max_cpu_utilz_percent, tier,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`, s.utilTable)

	created := *rec
	err := s.db.QueryRowContext(ctx, query,
		rec.AppUniq, rec.Project, nullIfEmpty(rec.PRURL), rec.PRStatus,
		rec.AppName, rec.AppID, rec.Env,
		nullIfZero(rec.MaxCPU), nullIfZero(rec.AvgCPU),
		rec.ReqCPU, rec.NewReqCPU, nullIfZero(rec.MaxCPUUtilzPercent),
		nullIfEmpty(rec.Tier), rec.CreatedAt, rec.UpdatedAt,
	).Scan(&created.ID)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

const historyColumns = `id, app_uniq, app_id, env, old_req_cpu, new_req_cpu,
	optimization_date, status, COALESCE(pr_url, ''), COALESCE(notes, ''), updated_at`

func scanHistoryRecord(row interface{ Scan(...interface{}) error }) (models.OptimizationHistoryRecord, error) {
	var rec models.OptimizationHistoryRecord
	err := row.Scan(
		&rec.ID, &rec.AppUniq, &rec.AppID, &rec.Env,
		&rec.OldReqCPU, &rec.NewReqCPU,
		&rec.OptimizationDate, &rec.Status, &rec.PRURL, &rec.Notes, &rec.UpdatedAt,
	)
	return rec, err
}

// GetAllOptimizationHistory returns every history row, newest first.
func (s *PostgresStore) GetAllOptimizationHistory(ctx context.Context) ([]models.OptimizationHistoryRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY optimization_date DESC", historyColumns, s.historyTable)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.OptimizationHistoryRecord{}
	for rows.Next() {
		rec, err := scanHistoryRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetOptimizationRecord fetches one history row by id.
func (s *PostgresStore) GetOptimizationRecord(ctx context.Context, id int64) (*models.OptimizationHistoryRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", historyColumns, s.historyTable)

	rec, err := scanHistoryRecord(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// InsertOptimizationRecord creates one history row. Status defaults to
// pending when unset; optimization_date is server-assigned.
func (s *PostgresStore) InsertOptimizationRecord(ctx context.Context, rec *models.OptimizationHistoryRecord) (*models.OptimizationHistoryRecord, error) {
	status := rec.Status
	if status == "" {
		status = string(models.StatusPending)
	}

	query := fmt.Sprintf(`INSERT INTO %s
			(app_uniq, app_id, env, old_req_cpu, new_req_cpu, status, pr_url, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s`, s.historyTable, historyColumns)

	created, err := scanHistoryRecord(s.db.QueryRowContext(ctx, query,
		rec.AppUniq, rec.AppID, rec.Env, rec.OldReqCPU, rec.NewReqCPU,
		status, nullIfEmpty(rec.PRURL), nullIfEmpty(rec.Notes),
	))
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// UpdateOptimizationStatus updates exactly status, pr_url and updated_at.
// A nil prURL leaves the stored value untouched.
func (s *PostgresStore) UpdateOptimizationStatus(ctx context.Context, id int64, status string, prURL *string) (*models.OptimizationHistoryRecord, error) {
	query := fmt.Sprintf(`UPDATE %s
		SET status = $1, pr_url = COALESCE($2, pr_url), updated_at = NOW()
		WHERE id = $3
		RETURNING %s`, s.historyTable, historyColumns)

	var url sql.NullString
	if prURL != nil {
		url = sql.NullString{String: *prURL, Valid: true}
	}

	updated, err := scanHistoryRecord(s.db.QueryRowContext(ctx, query, status, url, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// RestoreAll wipes both tables and reloads them from the snapshot inside a
// single transaction, so concurrent readers see either the old or the new
// dataset and a failure leaves the tables untouched.
func (s *PostgresStore) RestoreAll(ctx context.Context, snapshot *models.DumpSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin restore transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		fmt.Sprintf("DELETE FROM %s", s.historyTable),
		fmt.Sprintf("DELETE FROM %s", s.utilTable),
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear tables: %w", err)
		}
	}

	// restart id sequences so restored datasets start from 1 again
	for _, table := range []string{
		fmt.Sprintf("%s.%s", s.schema, s.table),
		fmt.Sprintf("%s.optimization_history", s.schema),
	} {
		if _, err := tx.ExecContext(ctx,
			"SELECT setval(pg_get_serial_sequence($1, 'id'), 1, false)", table); err != nil {
			return fmt.Errorf("failed to reset sequence for %s: %w", table, err)
		}
	}

	utilInsert := fmt.Sprintf(`INSERT INTO %s
			(app_uniq, project, pr_url, pr_status, app_name, app_id, env,
			 max_cpu, avg_cpu, req_cpu, new_req_cpu, max_cpu_utilz_percent, tier)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`, s.utilTable)

	for _, rec := range snapshot.ResourceUtilization {
		_, err := tx.ExecContext(ctx, utilInsert,
			rec.AppUniq, rec.Project, nullIfEmpty(rec.PRURL), rec.PRStatus,
			rec.AppName, rec.AppID, rec.Env,
			nullIfZero(rec.MaxCPU), nullIfZero(rec.AvgCPU),
			rec.ReqCPU, rec.NewReqCPU, nullIfZero(rec.MaxCPUUtilzPercent),
			nullIfEmpty(rec.Tier),
		)
		if err != nil {
			return fmt.Errorf("failed to restore resource utilization row: %w", err)
		}
	}

	historyInsert := fmt.Sprintf(`INSERT INTO %s
			(app_uniq, app_id, env, old_req_cpu, new_req_cpu, status, pr_url, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, s.historyTable)

	for _, rec := range snapshot.OptimizationHistory {
		status := rec.Status
		if status == "" {
			status = string(models.StatusPending)
		}
		_, err := tx.ExecContext(ctx, historyInsert,
			rec.AppUniq, rec.AppID, rec.Env, rec.OldReqCPU, rec.NewReqCPU,
			status, nullIfEmpty(rec.PRURL), nullIfEmpty(rec.Notes),
		)
		if err != nil {
			return fmt.Errorf("failed to restore optimization history row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit restore: %w", err)
	}

	return nil
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
