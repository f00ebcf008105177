package catalog

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sort"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/chroma-data/gamut.report/internal/gamut"
	"github.com/chroma-data/gamut.report/internal/monitoring"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is the SQLite-backed catalog of sequences, characterization runs,
// and per-frame flattened statistics.
type Store struct {
	*sql.DB
}

// Open opens (or creates) a catalog database at path and migrates it to the
// latest schema version.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	s := &Store{db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrateUp applies every pending embedded migration.
func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(s.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	// Closing m would close the underlying DB connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("catalog migration failed: %w", err)
	}
	return nil
}

// InsertSequence registers one sequence, ignoring duplicates. It returns
// the sequence's row ID. RETURNING yields the row ID on both the insert and
// conflict-update paths; LastInsertId would report nothing on a conflict
// taken through a fresh connection.
func (s *Store) InsertSequence(seq ImageSequence) (int64, error) {
	var id int64
	err := s.QueryRow(`
		INSERT INTO sequences (dir, base, ext, pad, start_frame, end_frame, frame_inc)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (dir, base, ext, pad, start_frame) DO UPDATE SET
			end_frame = excluded.end_frame,
			frame_inc = excluded.frame_inc
		RETURNING id
	`, seq.Dir, seq.Base, seq.Ext, seq.Pad, seq.Start, seq.End, seq.Inc).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert sequence %s: %w", seq, err)
	}
	return id, nil
}

// RecordScan persists a whole scan result: its sequences and a scan record.
func (s *Store) RecordScan(res *ScanResult) error {
	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("begin scan transaction: %w", err)
	}
	defer tx.Rollback()

	for _, seq := range res.Sequences {
		if _, err := tx.Exec(`
			INSERT INTO sequences (dir, base, ext, pad, start_frame, end_frame, frame_inc)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (dir, base, ext, pad, start_frame) DO UPDATE SET
				end_frame = excluded.end_frame,
				frame_inc = excluded.frame_inc
		`, seq.Dir, seq.Base, seq.Ext, seq.Pad, seq.Start, seq.End, seq.Inc); err != nil {
			return fmt.Errorf("record sequence %s: %w", seq, err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO scans (root, sequence_count) VALUES (?, ?)`,
		res.Root, len(res.Sequences)); err != nil {
		return fmt.Errorf("record scan of %s: %w", res.Root, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scan: %w", err)
	}
	monitoring.Logf("recorded scan of %s (%d sequences)", res.Root, len(res.Sequences))
	return nil
}

// ListSequences returns every cataloged sequence ordered by directory and
// base name.
func (s *Store) ListSequences() ([]ImageSequence, error) {
	rows, err := s.Query(`
		SELECT id, dir, base, ext, pad, start_frame, end_frame, frame_inc
		FROM sequences ORDER BY dir, base, start_frame
	`)
	if err != nil {
		return nil, fmt.Errorf("list sequences: %w", err)
	}
	defer rows.Close()

	var seqs []ImageSequence
	for rows.Next() {
		var seq ImageSequence
		if err := rows.Scan(&seq.ID, &seq.Dir, &seq.Base, &seq.Ext, &seq.Pad,
			&seq.Start, &seq.End, &seq.Inc); err != nil {
			return nil, fmt.Errorf("scan sequence row: %w", err)
		}
		seqs = append(seqs, seq)
	}
	return seqs, rows.Err()
}

// InsertRun records a characterization run with its binning configuration.
// sequenceID may be 0 for ad-hoc runs on uncataloged directories.
func (s *Store) InsertRun(runID string, sequenceID int64, cfg gamut.BinConfig) error {
	var seqRef interface{}
	if sequenceID > 0 {
		seqRef = sequenceID
	}
	if _, err := s.Exec(`
		INSERT INTO runs (id, sequence_id, min_exponent, max_exponent, num_bins)
		VALUES (?, ?, ?, ?, ?)
	`, runID, seqRef, cfg.MinExponent, cfg.MaxExponent, cfg.NumBins); err != nil {
		return fmt.Errorf("insert run %s: %w", runID, err)
	}
	return nil
}

// InsertFrameStats appends one frame's flattened statistics to a run and
// bumps the run's frame count.
func (s *Store) InsertFrameStats(runID, framePath string, cols gamut.Columns) error {
	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("begin frame stats transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO frame_stats (run_id, frame_path, stat_key, stat_value)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare frame stats insert: %w", err)
	}
	defer stmt.Close()

	keys := make([]string, 0, len(cols))
	for k := range cols {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := stmt.Exec(runID, framePath, k, cols[k]); err != nil {
			return fmt.Errorf("insert stat %q for %s: %w", k, framePath, err)
		}
	}
	if _, err := tx.Exec(`UPDATE runs SET frames = frames + 1 WHERE id = ?`, runID); err != nil {
		return fmt.Errorf("bump run frame count: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit frame stats: %w", err)
	}
	return nil
}

// FrameStats loads a run's statistics back as one Columns map per frame.
func (s *Store) FrameStats(runID string) (map[string]gamut.Columns, error) {
	rows, err := s.Query(`
		SELECT frame_path, stat_key, stat_value FROM frame_stats WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("load frame stats for run %s: %w", runID, err)
	}
	defer rows.Close()

	out := make(map[string]gamut.Columns)
	for rows.Next() {
		var path, key string
		var value float64
		if err := rows.Scan(&path, &key, &value); err != nil {
			return nil, fmt.Errorf("scan frame stat row: %w", err)
		}
		if out[path] == nil {
			out[path] = make(gamut.Columns)
		}
		out[path][key] = value
	}
	return out, rows.Err()
}
