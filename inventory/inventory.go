// Package inventory keeps a SQLite catalogue of the fields found in GRIB2
// files: one row per scan of a file and one row per field.
package inventory

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Scan is one pass over a source file.
type Scan struct {
	ID       uuid.UUID
	Source   string
	Started  time.Time
	Messages int
	Fields   int
}

// Entry describes one field without its values.
type Entry struct {
	ID              int64
	ScanID          uuid.UUID
	Message         int
	Index           int
	Discipline      uint8
	ReferenceTime   time.Time
	GridTemplate    uint16
	Points          uint32
	ProductTemplate uint16
	Category        uint8
	Number          uint8
	Kind            string
	DataTemplate    uint16
	NumberOfValues  uint32
	DataLength      uint32
}

// DB wraps a SQLite database connection for the catalogue.
type DB struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		started TEXT NOT NULL,
		messages INTEGER DEFAULT 0,
		fields INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS fields (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_id TEXT NOT NULL REFERENCES scans(id),
		message INTEGER NOT NULL,
		field_index INTEGER NOT NULL,
		discipline INTEGER NOT NULL,
		reference_time TEXT NOT NULL,
		grid_template INTEGER NOT NULL,
		points INTEGER NOT NULL,
		product_template INTEGER NOT NULL,
		category INTEGER NOT NULL,
		number INTEGER NOT NULL,
		kind TEXT NOT NULL,
		data_template INTEGER NOT NULL,
		number_of_values INTEGER NOT NULL,
		data_length INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fields_scan ON fields(scan_id);
	CREATE INDEX IF NOT EXISTS idx_fields_kind ON fields(kind);
	CREATE INDEX IF NOT EXISTS idx_fields_reference_time ON fields(reference_time);
	`
	_, err := db.Exec(schema)
	return err
}

// BeginScan records the start of a scan of source.
func (d *DB) BeginScan(source string) (*Scan, error) {
	s := &Scan{ID: uuid.New(), Source: source, Started: time.Now().UTC()}
	if _, err := d.db.Exec(`INSERT INTO scans (id, source, started) VALUES (?, ?, ?)`,
		s.ID.String(), s.Source, s.Started.Format(time.RFC3339Nano)); err != nil {
		return nil, fmt.Errorf("insert scan: %w", err)
	}
	glog.V(1).Infof("scan %s of %s started", s.ID, s.Source)
	return s, nil
}

// FinishScan stores the message and field counts of s.
func (d *DB) FinishScan(s *Scan) error {
	if _, err := d.db.Exec(`UPDATE scans SET messages = ?, fields = ? WHERE id = ?`,
		s.Messages, s.Fields, s.ID.String()); err != nil {
		return fmt.Errorf("update scan: %w", err)
	}
	glog.V(1).Infof("scan %s of %s finished: %d messages, %d fields", s.ID, s.Source, s.Messages, s.Fields)
	return nil
}

// Scans returns every scan, oldest first.
func (d *DB) Scans() ([]Scan, error) {
	rows, err := d.db.Query(`SELECT id, source, started, messages, fields FROM scans ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var scans []Scan
	for rows.Next() {
		var s Scan
		var id, started string
		if err := rows.Scan(&id, &s.Source, &started, &s.Messages, &s.Fields); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if s.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("scan id %q: %w", id, err)
		}
		s.Started, _ = time.Parse(time.RFC3339Nano, started)
		scans = append(scans, s)
	}
	return scans, rows.Err()
}

// Insert stores e and returns its row id.
func (d *DB) Insert(e Entry) (int64, error) {
	result, err := d.db.Exec(`
		INSERT INTO fields (scan_id, message, field_index, discipline, reference_time, grid_template, points,
			product_template, category, number, kind, data_template, number_of_values, data_length)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ScanID.String(), e.Message, e.Index, e.Discipline, e.ReferenceTime.Format(time.RFC3339), e.GridTemplate, e.Points,
		e.ProductTemplate, e.Category, e.Number, e.Kind, e.DataTemplate, e.NumberOfValues, e.DataLength)
	if err != nil {
		return 0, fmt.Errorf("insert field: %w", err)
	}
	return result.LastInsertId()
}

// QueryParams contains filtering options for querying fields.
type QueryParams struct {
	ScanID uuid.UUID // Filter by scan.
	Kind   string    // Filter by kind name (exact match).
	Since  time.Time // Only fields with a reference time at or after Since.
	Limit  int       // Max results (default 1000).
}

// Query retrieves fields matching p in stream order.
func (d *DB) Query(p QueryParams) ([]Entry, error) {
	var conditions []string
	var args []interface{}

	if p.ScanID != uuid.Nil {
		conditions = append(conditions, "scan_id = ?")
		args = append(args, p.ScanID.String())
	}
	if p.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, p.Kind)
	}
	if !p.Since.IsZero() {
		conditions = append(conditions, "reference_time >= ?")
		args = append(args, p.Since.UTC().Format(time.RFC3339))
	}

	query := `SELECT id, scan_id, message, field_index, discipline, reference_time, grid_template, points,
			product_template, category, number, kind, data_template, number_of_values, data_length
			FROM fields`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	limit := 1000
	if p.Limit > 0 {
		limit = p.Limit
	}
	query += fmt.Sprintf(" ORDER BY id LIMIT %d", limit)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query fields: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var scanID, ref string
		err := rows.Scan(&e.ID, &scanID, &e.Message, &e.Index, &e.Discipline, &ref, &e.GridTemplate, &e.Points,
			&e.ProductTemplate, &e.Category, &e.Number, &e.Kind, &e.DataTemplate, &e.NumberOfValues, &e.DataLength)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if e.ScanID, err = uuid.Parse(scanID); err != nil {
			return nil, fmt.Errorf("scan id %q: %w", scanID, err)
		}
		e.ReferenceTime, _ = time.Parse(time.RFC3339, ref)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountByKind returns the number of fields of each kind in a scan.
func (d *DB) CountByKind(scanID uuid.UUID) (map[string]int, error) {
	rows, err := d.db.Query(`SELECT kind, COUNT(*) FROM fields WHERE scan_id = ? GROUP BY kind`, scanID.String())
	if err != nil {
		return nil, fmt.Errorf("count fields: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}
