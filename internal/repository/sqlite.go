package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mr1hm/crisis-globe/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

var _ CrisisRepository = (*SQLiteDB)(nil)

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// :memory: databases are per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			generation INTEGER PRIMARY KEY,
			source TEXT NOT NULL,
			loaded_at INTEGER NOT NULL,
			count INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS crises (
			id TEXT PRIMARY KEY,
			generation INTEGER NOT NULL,
			position INTEGER NOT NULL,
			type TEXT NOT NULL,
			severity REAL NOT NULL,
			status TEXT NOT NULL,
			country TEXT,
			city TEXT,
			latitude REAL,
			longitude REAL,
			verified_at INTEGER,
			raw BLOB NOT NULL,
			FOREIGN KEY (generation) REFERENCES snapshots(generation)
		);

		CREATE INDEX IF NOT EXISTS idx_crises_severity ON crises(severity);
		CREATE INDEX IF NOT EXISTS idx_crises_type ON crises(type);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) ReplaceSnapshot(ctx context.Context, snap *models.Snapshot) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	var latest uint64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(generation), 0) FROM snapshots`).Scan(&latest); err != nil {
		return false, fmt.Errorf("error reading latest generation: %w", err)
	}
	if snap.Generation <= latest {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (generation, source, loaded_at, count) VALUES (?, ?, ?, ?)`,
		snap.Generation, snap.Source, snap.LoadedAt.UnixNano(), len(snap.Crises),
	); err != nil {
		return false, fmt.Errorf("error inserting snapshot: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM crises`); err != nil {
		return false, fmt.Errorf("error clearing crises: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO crises (id, generation, position, type, severity, status, country, city, latitude, longitude, verified_at, raw)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return false, fmt.Errorf("error preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range snap.Crises {
		c := &snap.Crises[i]
		raw, err := json.Marshal(c)
		if err != nil {
			return false, fmt.Errorf("error encoding crisis %s: %w", c.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			c.ID, snap.Generation, i, c.Type, c.SeverityScore, string(c.Status),
			c.Location.Country, c.Location.City, nullFloat(c.Location.Lat), nullFloat(c.Location.Lng), nullTime(c.TimestampVerified), raw,
		); err != nil {
			return false, fmt.Errorf("error inserting crisis %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("error committing snapshot: %w", err)
	}
	return true, nil
}

// LatestSnapshot returns the stored snapshot with crises in load
// order, or ErrNotFound before the first load.
func (s *SQLiteDB) LatestSnapshot(ctx context.Context) (*models.Snapshot, error) {
	var (
		snap     models.Snapshot
		loadedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT generation, source, loaded_at FROM snapshots ORDER BY generation DESC LIMIT 1`,
	).Scan(&snap.Generation, &snap.Source, &loadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading snapshot: %w", err)
	}
	snap.LoadedAt = time.Unix(0, loadedAt).UTC()

	rows, err := s.db.QueryContext(ctx, `SELECT raw FROM crises WHERE generation = ? ORDER BY position`, snap.Generation)
	if err != nil {
		return nil, fmt.Errorf("error listing snapshot crises: %w", err)
	}
	snap.Crises, err = scanCrises(rows)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *SQLiteDB) GetByID(ctx context.Context, id string) (*models.Crisis, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT raw FROM crises WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting crisis %s: %w", id, err)
	}

	var c models.Crisis
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("error decoding crisis %s: %w", id, err)
	}
	return &c, nil
}

// ListCrises returns crises ordered by opts.Sort, severity by default.
func (s *SQLiteDB) ListCrises(ctx context.Context, opts Filter) ([]models.Crisis, error) {
	var (
		where []string
		args  []any
	)
	if opts.Type != nil {
		where = append(where, "type = ? COLLATE NOCASE")
		args = append(args, *opts.Type)
	}
	if opts.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*opts.Status))
	}
	if opts.MinSeverity != nil {
		where = append(where, "severity >= ?")
		args = append(args, *opts.MinSeverity)
	}
	if opts.Country != nil {
		where = append(where, "country = ? COLLATE NOCASE")
		args = append(args, *opts.Country)
	}

	query := "SELECT raw FROM crises"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	switch opts.Sort {
	case SortByRecent:
		// unknown verification times sort last
		query += " ORDER BY verified_at IS NULL, verified_at DESC, id ASC"
	default:
		query += " ORDER BY severity DESC, id ASC"
	}

	// SQLite only accepts OFFSET after LIMIT; -1 means no limit.
	if opts.Limit > 0 || opts.Offset > 0 {
		limit := -1
		if opts.Limit > 0 {
			limit = opts.Limit
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, max(opts.Offset, 0))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing crises: %w", err)
	}
	return scanCrises(rows)
}

func scanCrises(rows *sql.Rows) ([]models.Crisis, error) {
	defer rows.Close()

	crises := []models.Crisis{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("error scanning crisis: %w", err)
		}
		var c models.Crisis
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("error decoding crisis: %w", err)
		}
		crises = append(crises, c)
	}
	return crises, rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullTime(ts *models.Timestamp) sql.NullInt64 {
	if !ts.Known() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: ts.UnixNano(), Valid: true}
}
