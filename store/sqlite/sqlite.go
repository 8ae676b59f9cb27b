/*
Package sqlite provides a SQLite-backed course.Store.

PURPOSE:
  Keeps one row per course run keyed by unique_id, so re-importing a feed
  replaces rows in place. The schema mirrors course.ProcessedRecord closely
  enough that a stored record reads back equal to what was written.

KEY TABLES:
  courses: one row per run, upserted ON CONFLICT(unique_id)
  imports: append-only log of feed uploads

LOSSLESS COLUMNS:
  - Money is stored as decimal TEXT (never REAL) so 10,500,000.50 stays exact.
  - Dates are stored as YYYY-MM-DD TEXT.
  - Tags, parse issues and unknown columns are JSON TEXT.
  - revenue_adjusted is persisted so a reloaded record is never adjusted a
    second time.

CONCURRENCY:
  Uses sync.RWMutex around the connection; SQLite is opened in WAL mode so
  readers do not block each other.

USAGE:
  store, err := sqlite.New("./data/training.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  err = store.Upsert(ctx, records)

SEE ALSO:
  - course/store.go: Interface definition
  - course/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/training-report/course"
	"github.com/warp/training-report/generic"
)

// Store implements course.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (and migrates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL"
	if dbPath == ":memory:" {
		dsn = ":memory:?_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// each connection to :memory: opens a separate database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection, for the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS courses (
		unique_id TEXT PRIMARY KEY,
		course_id TEXT NOT NULL,
		course_name TEXT NOT NULL,
		run_label TEXT NOT NULL DEFAULT '',
		training_institution TEXT NOT NULL,
		original_training_institution TEXT NOT NULL,
		partner_institution TEXT NOT NULL DEFAULT '',
		original_partner_institution TEXT NOT NULL DEFAULT '',
		is_partnered BOOLEAN NOT NULL DEFAULT FALSE,
		lead_company TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		enrollment_count INTEGER NOT NULL DEFAULT 0,
		enrollment_display TEXT NOT NULL DEFAULT '',
		completed_count INTEGER NOT NULL DEFAULT 0,
		completed_display TEXT NOT NULL DEFAULT '',
		employed_count INTEGER NOT NULL DEFAULT 0,
		employed_count_3mo INTEGER NOT NULL DEFAULT 0,
		employed_count_6mo INTEGER NOT NULL DEFAULT 0,
		capacity INTEGER NOT NULL DEFAULT 0,
		completion_rate REAL NOT NULL DEFAULT 0,
		satisfaction REAL NOT NULL DEFAULT 0,
		employment_rate REAL NOT NULL DEFAULT 0,
		revenue_json TEXT NOT NULL,
		adjusted_revenue_json TEXT NOT NULL,
		revenue_adjusted BOOLEAN NOT NULL DEFAULT FALSE,
		revenue_vs_actual TEXT NOT NULL DEFAULT '0',
		cumulative_revenue TEXT NOT NULL DEFAULT '0',
		training_type TEXT NOT NULL DEFAULT '',
		tags_json TEXT NOT NULL DEFAULT '[]',
		row_index INTEGER NOT NULL DEFAULT 0,
		issues_json TEXT NOT NULL DEFAULT 'null',
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_courses_institution
		ON courses(training_institution);
	CREATE INDEX IF NOT EXISTS idx_courses_partner
		ON courses(partner_institution) WHERE partner_institution != '';
	CREATE INDEX IF NOT EXISTS idx_courses_start
		ON courses(start_date);
	CREATE INDEX IF NOT EXISTS idx_courses_row
		ON courses(row_index, unique_id);

	CREATE TABLE IF NOT EXISTS imports (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		record_count INTEGER NOT NULL,
		skipped_rows INTEGER NOT NULL DEFAULT 0,
		unknown_columns_json TEXT NOT NULL DEFAULT '[]',
		imported_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_imports_imported_at
		ON imports(imported_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// COURSE STORE (course.Store interface)
// =============================================================================

var courseColumns = []string{
	"unique_id", "course_id", "course_name", "run_label",
	"training_institution", "original_training_institution",
	"partner_institution", "original_partner_institution",
	"is_partnered", "lead_company", "start_date", "end_date",
	"enrollment_count", "enrollment_display", "completed_count", "completed_display",
	"employed_count", "employed_count_3mo", "employed_count_6mo", "capacity",
	"completion_rate", "satisfaction", "employment_rate",
	"revenue_json", "adjusted_revenue_json", "revenue_adjusted",
	"revenue_vs_actual", "cumulative_revenue",
	"training_type", "tags_json", "row_index", "issues_json",
}

var (
	selectCourses = "SELECT " + strings.Join(courseColumns, ", ") + " FROM courses"
	upsertCourse  = buildUpsert()
)

func buildUpsert() string {
	cols := append(append([]string(nil), courseColumns...), "updated_at")
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	updates := make([]string, 0, len(cols)-1)
	for _, c := range cols[1:] {
		updates = append(updates, c+" = excluded."+c)
	}
	return "INSERT INTO courses (" + strings.Join(cols, ", ") + ") VALUES (" + placeholders +
		") ON CONFLICT(unique_id) DO UPDATE SET " + strings.Join(updates, ", ")
}

// Upsert writes records in one transaction.
func (s *Store) Upsert(ctx context.Context, records []course.ProcessedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, upsertCourse)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, rec := range records {
		args, err := courseArgs(rec)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := stmt.ExecContext(ctx, append(args, now)...); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to upsert record %s: %w", rec.UniqueID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) Get(ctx context.Context, uniqueID string) (course.ProcessedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectCourses+" WHERE unique_id = ?", uniqueID)
	rec, err := scanCourse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return course.ProcessedRecord{}, generic.ErrRecordNotFound
	}
	return rec, err
}

func (s *Store) List(ctx context.Context) ([]course.ProcessedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectCourses+" ORDER BY row_index, unique_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	result := []course.ProcessedRecord{}
	for rows.Next() {
		rec, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (s *Store) Delete(ctx context.Context, uniqueID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM courses WHERE unique_id = ?", uniqueID)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrRecordNotFound
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM courses").Scan(&n)
	return n, err
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"courses", "imports"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// IMPORT LOG
// =============================================================================

func (s *Store) RecordImport(ctx context.Context, imp course.Import) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unknown, err := json.Marshal(nonNil(imp.UnknownColumns))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO imports (id, source, record_count, skipped_rows, unknown_columns_json, imported_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		imp.ID, imp.Source, imp.RecordCount, imp.SkippedRows, string(unknown),
		imp.ImportedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}
	return nil
}

func (s *Store) ListImports(ctx context.Context) ([]course.Import, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, record_count, skipped_rows, unknown_columns_json, imported_at
		FROM imports ORDER BY imported_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	defer rows.Close()

	result := []course.Import{}
	for rows.Next() {
		var imp course.Import
		var unknown, importedAt string
		if err := rows.Scan(&imp.ID, &imp.Source, &imp.RecordCount, &imp.SkippedRows, &unknown, &importedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(unknown), &imp.UnknownColumns); err != nil {
			return nil, fmt.Errorf("import %s: %w", imp.ID, err)
		}
		imp.ImportedAt, _ = time.Parse(time.RFC3339Nano, importedAt)
		result = append(result, imp)
	}
	return result, rows.Err()
}

// =============================================================================
// ROW MAPPING
// =============================================================================

func courseArgs(rec course.ProcessedRecord) ([]any, error) {
	revenue, err := json.Marshal(yearStrings(rec.RevenueByYear))
	if err != nil {
		return nil, err
	}
	adjusted, err := json.Marshal(yearStrings(rec.AdjustedRevenueByYear))
	if err != nil {
		return nil, err
	}
	tags, err := json.Marshal(nonNil(rec.TrainingTypeTags))
	if err != nil {
		return nil, err
	}
	issues, err := json.Marshal(rec.ParseIssues)
	if err != nil {
		return nil, err
	}
	return []any{
		rec.UniqueID, rec.CourseID, rec.CourseName, rec.RunLabel,
		rec.TrainingInstitution, rec.OriginalTrainingInstitution,
		rec.PartnerInstitution, rec.OriginalPartnerInstitution,
		rec.IsPartneredCourse, rec.LeadCompany,
		rec.StartDate.Format(time.DateOnly), rec.EndDate.Format(time.DateOnly),
		rec.EnrollmentCount, rec.EnrollmentDisplay, rec.CompletedCount, rec.CompletedDisplay,
		rec.EmployedCount, rec.EmployedCount3Mo, rec.EmployedCount6Mo, rec.Capacity,
		rec.CompletionRatePercent, rec.SatisfactionScore, rec.EmploymentRatePercent,
		string(revenue), string(adjusted), rec.RevenueAdjusted,
		rec.RevenueVsActual.Value.String(), rec.CumulativeRevenue.Value.String(),
		rec.TrainingType, string(tags), rec.Row, string(issues),
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCourse(row scanner) (course.ProcessedRecord, error) {
	var rec course.ProcessedRecord
	var start, end, revenue, adjusted, vsActual, cumulative, tags, issues string

	err := row.Scan(
		&rec.UniqueID, &rec.CourseID, &rec.CourseName, &rec.RunLabel,
		&rec.TrainingInstitution, &rec.OriginalTrainingInstitution,
		&rec.PartnerInstitution, &rec.OriginalPartnerInstitution,
		&rec.IsPartneredCourse, &rec.LeadCompany, &start, &end,
		&rec.EnrollmentCount, &rec.EnrollmentDisplay, &rec.CompletedCount, &rec.CompletedDisplay,
		&rec.EmployedCount, &rec.EmployedCount3Mo, &rec.EmployedCount6Mo, &rec.Capacity,
		&rec.CompletionRatePercent, &rec.SatisfactionScore, &rec.EmploymentRatePercent,
		&revenue, &adjusted, &rec.RevenueAdjusted, &vsActual, &cumulative,
		&rec.TrainingType, &tags, &rec.Row, &issues,
	)
	if err != nil {
		return course.ProcessedRecord{}, err
	}

	if rec.StartDate, err = time.Parse(time.DateOnly, start); err != nil {
		return course.ProcessedRecord{}, fmt.Errorf("record %s start_date: %w", rec.UniqueID, err)
	}
	if rec.EndDate, err = time.Parse(time.DateOnly, end); err != nil {
		return course.ProcessedRecord{}, fmt.Errorf("record %s end_date: %w", rec.UniqueID, err)
	}
	if rec.RevenueByYear, err = parseYears(revenue); err != nil {
		return course.ProcessedRecord{}, fmt.Errorf("record %s revenue: %w", rec.UniqueID, err)
	}
	if rec.AdjustedRevenueByYear, err = parseYears(adjusted); err != nil {
		return course.ProcessedRecord{}, fmt.Errorf("record %s adjusted revenue: %w", rec.UniqueID, err)
	}
	rec.RevenueVsActual = generic.ParseAmount(vsActual)
	rec.CumulativeRevenue = generic.ParseAmount(cumulative)
	if err := json.Unmarshal([]byte(tags), &rec.TrainingTypeTags); err != nil {
		return course.ProcessedRecord{}, fmt.Errorf("record %s tags: %w", rec.UniqueID, err)
	}
	if err := json.Unmarshal([]byte(issues), &rec.ParseIssues); err != nil {
		return course.ProcessedRecord{}, fmt.Errorf("record %s issues: %w", rec.UniqueID, err)
	}
	return rec, nil
}

// yearStrings keys exact decimal strings by year.
func yearStrings(y course.YearAmounts) map[string]string {
	out := make(map[string]string, course.RevenueYearCount)
	for _, year := range course.RevenueYears() {
		out[fmt.Sprint(year)] = y.Get(year).Value.String()
	}
	return out
}

func parseYears(s string) (course.YearAmounts, error) {
	var raw map[string]string
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return course.YearAmounts{}, err
	}
	var out course.YearAmounts
	for _, year := range course.RevenueYears() {
		if v, ok := raw[fmt.Sprint(year)]; ok {
			out = out.With(year, generic.ParseAmount(v))
		}
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ course.Store = (*Store)(nil)
