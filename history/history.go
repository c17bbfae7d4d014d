// Package history keeps generated stereograms in a SQLite database so they can
// be listed, shown again and deleted later.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/stevecastle/asciistereo/stereogram"
)

// ErrNotFound is returned when no render has the requested ID.
var ErrNotFound = errors.New("history: render not found")

// Logf is the package diagnostic logger. Tests may replace it via SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil mutes it.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Origins recorded in Render.Origin.
const (
	OriginCLI  = "cli"
	OriginHTTP = "http"
)

// Render is one stored generation.
type Render struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Origin        string    `json:"origin"`
	Shift         int       `json:"shift"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	Rescale       float64   `json:"rescale"`
	Seed          int64     `json:"seed"`
	PatternSource string    `json:"pattern_source"`
	DepthMap      string    `json:"depth_map"`
	Output        string    `json:"output"`
}

// FromResult describes res as a Render. depthText is the depth map as it was
// supplied, before cropping and rescaling.
func FromResult(res *stereogram.Result, depthText, origin string) Render {
	return Render{
		Origin:        origin,
		Shift:         res.Shift,
		Width:         res.Width,
		Height:        res.Height,
		Rescale:       res.Rescale,
		Seed:          res.Seed,
		PatternSource: res.PatternSource,
		DepthMap:      depthText,
		Output:        res.Stereogram.String(),
	}
}

// Title returns the first non-blank depth map line, trimmed, for listings.
func (r Render) Title() string {
	for _, l := range strings.Split(r.DepthMap, "\n") {
		if s := strings.TrimSpace(l); s != "" {
			if r := []rune(s); len(r) > 40 {
				s = string(r[:40])
			}
			return s
		}
	}
	return "(blank)"
}

// Store persists renders.
type Store struct {
	db     *sql.DB
	ownsDB bool
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history: database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	// busy_timeout helps when the CLI and the server share a database.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout=5000&_pragma=journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	s, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// New wraps an open database and creates the renders table if needed.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.createTable(); err != nil {
		return nil, fmt.Errorf("create renders table: %w", err)
	}
	return s, nil
}

// DB returns the underlying database so other packages can share it.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database if Open created it.
func (s *Store) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

func (s *Store) createTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS renders (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		origin TEXT NOT NULL,
		shift INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		rescale REAL NOT NULL,
		seed INTEGER NOT NULL,
		pattern_source TEXT NOT NULL,
		depth_map TEXT NOT NULL,
		output TEXT NOT NULL
	)`
	if _, err := s.db.Exec(query); err != nil {
		return err
	}
	_, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_renders_created_at ON renders(created_at)`)
	return err
}

// Record stores r under a new ID and returns it with ID and CreatedAt set.
func (s *Store) Record(ctx context.Context, r Render) (Render, error) {
	r.ID = uuid.NewString()
	r.CreatedAt = time.Now().UTC()
	query := `
	INSERT INTO renders (
		id, created_at, origin, shift, width, height, rescale, seed,
		pattern_source, depth_map, output
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		r.ID,
		r.CreatedAt,
		r.Origin,
		r.Shift,
		r.Width,
		r.Height,
		r.Rescale,
		r.Seed,
		r.PatternSource,
		r.DepthMap,
		r.Output,
	)
	if err != nil {
		return Render{}, fmt.Errorf("insert render: %w", err)
	}
	return r, nil
}

const selectColumns = `id, created_at, origin, shift, width, height, rescale, seed, pattern_source, depth_map, output`

type scanner interface {
	Scan(dest ...any) error
}

func scanRender(row scanner) (Render, error) {
	var r Render
	err := row.Scan(
		&r.ID,
		&r.CreatedAt,
		&r.Origin,
		&r.Shift,
		&r.Width,
		&r.Height,
		&r.Rescale,
		&r.Seed,
		&r.PatternSource,
		&r.DepthMap,
		&r.Output,
	)
	return r, err
}

// Get returns the render with the given ID.
func (s *Store) Get(ctx context.Context, id string) (Render, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM renders WHERE id = ?`, id)
	r, err := scanRender(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Render{}, ErrNotFound
	}
	if err != nil {
		return Render{}, fmt.Errorf("get render %s: %w", id, err)
	}
	return r, nil
}

// List returns up to limit renders, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Render, error) {
	query := `SELECT ` + selectColumns + ` FROM renders ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list renders: %w", err)
	}
	defer rows.Close()

	renders := []Render{}
	for rows.Next() {
		r, err := scanRender(rows)
		if err != nil {
			Logf("Error scanning render row: %v", err)
			continue
		}
		renders = append(renders, r)
	}
	return renders, rows.Err()
}

// Delete removes the render with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM renders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete render %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored renders.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM renders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count renders: %w", err)
	}
	return n, nil
}
