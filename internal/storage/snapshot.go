package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/t77yq/cronhive/internal/model"
)

// Snapshot is one stored scan run: identifying fields plus summary counts.
// The full report lives in a JSON column and comes back via Get.
type Snapshot struct {
	ScanID      string        `json:"scan_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Hostname    string        `json:"hostname,omitempty"`
	Summary     model.Summary `json:"summary"`
}

// SnapshotStore persists scan reports so operators can audit how an
// inventory drifted between runs. Opt-in; the tool is stateless without it.
type SnapshotStore interface {
	// Store persists one scan report
	Store(ctx context.Context, report *model.Report) error

	// Get retrieves a full report by scan ID, nil when absent
	Get(ctx context.Context, scanID string) (*model.Report, error)

	// List retrieves snapshot summaries, newest first
	List(ctx context.Context, offset, limit int) ([]*Snapshot, error)

	// DeleteBefore deletes snapshots generated before the given time
	DeleteBefore(ctx context.Context, before time.Time) error

	// Close releases the underlying database
	Close() error
}

// SQLiteSnapshotStore implements SnapshotStore using SQLite
type SQLiteSnapshotStore struct {
	logger *zap.Logger
	db     *sql.DB
}

// NewSQLiteSnapshotStore opens (or creates) the snapshot database at dbPath.
func NewSQLiteSnapshotStore(logger *zap.Logger, dbPath string) (*SQLiteSnapshotStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteSnapshotStore{
		logger: logger.Named("storage"),
		db:     db,
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initialize creates the necessary tables if they don't exist
func (s *SQLiteSnapshotStore) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS scan_snapshots (
			scan_id TEXT PRIMARY KEY,
			generated_at DATETIME NOT NULL,
			hostname TEXT,
			total INTEGER NOT NULL,
			valid INTEGER NOT NULL,
			invalid INTEGER NOT NULL,
			ok INTEGER NOT NULL,
			dead INTEGER NOT NULL,
			unknown INTEGER NOT NULL,
			report TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_scan_snapshots_generated_at ON scan_snapshots(generated_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	return nil
}

// Store implements SnapshotStore.Store
func (s *SQLiteSnapshotStore) Store(ctx context.Context, report *model.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	var hostname string
	if report.Host != nil {
		hostname = report.Host.Hostname
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scan_snapshots (
			scan_id, generated_at, hostname, total, valid, invalid, ok, dead, unknown, report
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ScanID,
		report.GeneratedAt,
		sql.NullString{String: hostname, Valid: hostname != ""},
		report.Summary.Total,
		report.Summary.Valid,
		report.Summary.Invalid,
		report.Summary.OK,
		report.Summary.Dead,
		report.Summary.Unknown,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	s.logger.Info("Stored scan snapshot",
		zap.String("scan_id", report.ScanID),
		zap.Int("jobs", report.Summary.Total))
	return nil
}

// Get implements SnapshotStore.Get
func (s *SQLiteSnapshotStore) Get(ctx context.Context, scanID string) (*model.Report, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT report FROM scan_snapshots WHERE scan_id = ?", scanID).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// List implements SnapshotStore.List
func (s *SQLiteSnapshotStore) List(ctx context.Context, offset, limit int) ([]*Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scan_id, generated_at, hostname, total, valid, invalid, ok, dead, unknown
		FROM scan_snapshots
		ORDER BY generated_at DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		snap := &Snapshot{}
		var hostname sql.NullString

		err := rows.Scan(
			&snap.ScanID,
			&snap.GeneratedAt,
			&hostname,
			&snap.Summary.Total,
			&snap.Summary.Valid,
			&snap.Summary.Invalid,
			&snap.Summary.OK,
			&snap.Summary.Dead,
			&snap.Summary.Unknown,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		if hostname.Valid {
			snap.Hostname = hostname.String
		}
		snapshots = append(snapshots, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return snapshots, nil
}

// DeleteBefore implements SnapshotStore.DeleteBefore
func (s *SQLiteSnapshotStore) DeleteBefore(ctx context.Context, before time.Time) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM scan_snapshots WHERE generated_at < ?", before)
	if err != nil {
		return fmt.Errorf("failed to delete snapshots: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	s.logger.Info("Deleted old scan snapshots",
		zap.Time("before", before),
		zap.Int64("deleted", affected))

	return nil
}

// Close closes the database connection
func (s *SQLiteSnapshotStore) Close() error {
	return s.db.Close()
}
