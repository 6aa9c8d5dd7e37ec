// Package sqlite implements job.Store on a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tendant/simple-inspector/internal/job"
)

var _ job.Store = (*Store)(nil)

const jobColumns = `id, job_count, car_number, customer_name, engine_number, classification,
	status, assigned_to, rejection_note, inspection_tabs, created_at, updated_at`

// Store persists jobs in SQLite. Conditional updates are a single
// UPDATE ... WHERE ... RETURNING statement, so the precondition and the write
// are one atomic step.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and ensures the schema.
// Missing parent directories of a file path are created.
func Open(path string) (*Store, error) {
	if err := ensureDir(path); err != nil {
		return nil, fmt.Errorf("sqlite: create database directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	// SQLite allows one writer; a single connection keeps writers queued in
	// database/sql instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping database: %w", err)
	}

	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: initialize schema: %w", err)
	}
	return s, nil
}

func ensureDir(path string) error {
	if path == "" || path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		job_count INTEGER NOT NULL UNIQUE,
		car_number TEXT NOT NULL,
		customer_name TEXT NOT NULL,
		engine_number TEXT NOT NULL DEFAULT '',
		classification TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		assigned_to TEXT NOT NULL DEFAULT '',
		rejection_note TEXT NOT NULL DEFAULT '',
		inspection_tabs TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);

	CREATE TABLE IF NOT EXISTS counters (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*job.Job, error) {
	var (
		j                job.Job
		classification   string
		status           string
		tabs             string
		created, updated int64
	)
	err := row.Scan(&j.ID, &j.JobCount, &j.CarNumber, &j.CustomerName, &j.EngineNumber,
		&classification, &status, &j.AssignedTo, &j.RejectionNote, &tabs, &created, &updated)
	if err != nil {
		return nil, err
	}
	j.Classification = job.Classification(classification)
	j.Status = job.Status(status)
	if err := json.Unmarshal([]byte(tabs), &j.InspectionTabs); err != nil {
		return nil, fmt.Errorf("decode inspection tabs: %w", err)
	}
	j.CreatedAt = time.Unix(0, created).UTC()
	j.UpdatedAt = time.Unix(0, updated).UTC()
	return &j, nil
}

func encodeTabs(tabs []job.InspectionTab) (string, error) {
	if tabs == nil {
		tabs = []job.InspectionTab{}
	}
	b, err := json.Marshal(tabs)
	if err != nil {
		return "", fmt.Errorf("encode inspection tabs: %w", err)
	}
	return string(b), nil
}

func (s *Store) Get(ctx context.Context, id string) (*job.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, job.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get job: %w", err)
	}
	return j, nil
}

func (s *Store) Find(ctx context.Context, q job.Query) ([]*job.Job, int64, error) {
	var (
		where []string
		args  []any
	)
	if !q.CreatedFrom.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, q.CreatedFrom.UnixNano())
	}
	if !q.CreatedTo.IsZero() {
		where = append(where, "created_at <= ?")
		args = append(args, q.CreatedTo.UnixNano())
	}
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(q.Status))
	}
	if q.VisibleTo != "" {
		where = append(where, "(status = ? OR (status = ? AND assigned_to = ?))")
		args = append(args, string(job.StatusPending), string(job.StatusInProgress), q.VisibleTo)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: count jobs: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT ` + jobColumns + ` FROM jobs` + clause +
		` ORDER BY created_at DESC, job_count DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, q.Skip)...)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: find jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]*job.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterate jobs: %w", err)
	}
	return jobs, total, nil
}

func (s *Store) Insert(ctx context.Context, j *job.Job) error {
	tabs, err := encodeTabs(j.InspectionTabs)
	if err != nil {
		return fmt.Errorf("sqlite: insert job: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.JobCount, j.CarNumber, j.CustomerName, j.EngineNumber, string(j.Classification),
		string(j.Status), j.AssignedTo, j.RejectionNote, tabs,
		j.CreatedAt.UnixNano(), j.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert job: %w", err)
	}
	return nil
}

func (s *Store) ConditionalUpdate(ctx context.Context, id string, e job.Expect, u job.Update) (*job.Job, error) {
	set, args, err := assignments(u, s.now())
	if err != nil {
		return nil, fmt.Errorf("sqlite: update job: %w", err)
	}

	where := []string{"id = ?"}
	args = append(args, id)
	if e.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*e.Status))
	}
	if e.AssignedTo != nil {
		where = append(where, "assigned_to = ?")
		args = append(args, *e.AssignedTo)
	}

	query := `UPDATE jobs SET ` + strings.Join(set, ", ") +
		` WHERE ` + strings.Join(where, " AND ") +
		` RETURNING ` + jobColumns
	j, err := scanJob(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: update job: %w", err)
	}
	return j, nil
}

func assignments(u job.Update, now time.Time) ([]string, []any, error) {
	var (
		set  []string
		args []any
	)
	add := func(col string, v any) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}
	if u.CarNumber != nil {
		add("car_number", *u.CarNumber)
	}
	if u.CustomerName != nil {
		add("customer_name", *u.CustomerName)
	}
	if u.EngineNumber != nil {
		add("engine_number", *u.EngineNumber)
	}
	if u.Classification != nil {
		add("classification", string(*u.Classification))
	}
	if u.Status != nil {
		add("status", string(*u.Status))
	}
	if u.AssignedTo != nil {
		add("assigned_to", *u.AssignedTo)
	}
	if u.RejectionNote != nil {
		add("rejection_note", *u.RejectionNote)
	}
	if u.InspectionTabs != nil {
		tabs, err := encodeTabs(*u.InspectionTabs)
		if err != nil {
			return nil, nil, err
		}
		add("inspection_tabs", tabs)
	}
	add("updated_at", now.UnixNano())
	return set, args, nil
}

func (s *Store) Increment(ctx context.Context, counter string) (int64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO counters (name, value) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1
		RETURNING value`, counter).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("sqlite: increment counter %s: %w", counter, err)
	}
	return value, nil
}

func (s *Store) Delete(ctx context.Context, id string) (*job.Job, error) {
	j, err := scanJob(s.db.QueryRowContext(ctx, `DELETE FROM jobs WHERE id = ? RETURNING `+jobColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: delete job: %w", err)
	}
	return j, nil
}
