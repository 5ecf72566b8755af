// Package sqlite persists occlusion run history in a SQLite database whose
// schema is managed by embedded migrations.
package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/occlusion.sim/internal/monitoring"
	"github.com/banshee-data/occlusion.sim/internal/occlusion"
	"github.com/banshee-data/occlusion.sim/internal/timeutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("occlusion run not found")

// Run status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Run is one recorded pipeline execution.
type Run struct {
	RunID          string
	CreatedAt      time.Time
	Modality       occlusion.Modality
	SampleID       string
	Seed           int64
	ConfigJSON     string
	Policy         string
	InputPoints    int
	OutputPoints   int
	DroppedSensors []occlusion.SensorID
	Status         string
	Error          string

	Sensors []SensorCount
}

// SensorCount is a per-sensor before/after point count.
type SensorCount struct {
	Sensor       occlusion.SensorID
	InputPoints  int
	OutputPoints int
}

// Store is a run history database. It is safe for concurrent use.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens or creates the database at path and applies pending
// migrations. Use ":memory:" for a private in-memory database.
func Open(path string) (*Store, error) {
	return OpenWithClock(path, timeutil.RealClock{})
}

// OpenWithClock is Open with an injected clock for created_at stamps.
func OpenWithClock(path string, clock timeutil.Clock) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}
	// One connection serialises writers and keeps ":memory:" databases
	// alive for the life of the Store.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &Store{db: db, clock: clock}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrateUp() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// Not closing m: it would close the shared *sql.DB.
	m.Log = migrateLogger{}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// SchemaVersion returns the applied migration version.
func (s *Store) SchemaVersion() (uint, error) {
	var v uint
	err := s.db.QueryRow(`SELECT version FROM schema_migrations LIMIT 1`).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[migrate] "+format, v...)
}

func (migrateLogger) Verbose() bool { return false }

// NewRun builds a Run record from a pipeline result.
func NewRun(m occlusion.Modality, sampleID string, seed int64, configJSON string, cfg occlusion.Config, res occlusion.Result) *Run {
	r := &Run{
		Modality:       m,
		SampleID:       sampleID,
		Seed:           seed,
		ConfigJSON:     configJSON,
		Policy:         cfg.String(),
		InputPoints:    res.Stats.InputPoints,
		OutputPoints:   res.Stats.OutputPoints,
		DroppedSensors: append([]occlusion.SensorID(nil), res.Stats.DroppedSensors...),
		Status:         StatusOK,
	}
	for s, n := range res.Stats.InputBySensor {
		r.Sensors = append(r.Sensors, SensorCount{Sensor: s, InputPoints: n, OutputPoints: res.Stats.OutputBySensor[s]})
	}
	sort.Slice(r.Sensors, func(i, j int) bool { return r.Sensors[i].Sensor < r.Sensors[j].Sensor })
	return r
}

// InsertRun stores r, assigning RunID and CreatedAt when they are unset.
func (s *Store) InsertRun(r *Run) error {
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.clock.Now()
	}
	if r.Status == "" {
		r.Status = StatusOK
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO occlusion_runs (
			run_id, created_at, modality, sample_id, seed, config_json, policy,
			input_points, output_points, dropped_sensors, status, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.CreatedAt.UnixNano(), string(r.Modality), r.SampleID, r.Seed, r.ConfigJSON, r.Policy,
		r.InputPoints, r.OutputPoints, joinSensors(r.DroppedSensors), r.Status, r.Error,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.RunID, err)
	}
	for _, sc := range r.Sensors {
		_, err = tx.Exec(`
			INSERT INTO occlusion_run_sensors (run_id, sensor_id, input_points, output_points)
			VALUES (?, ?, ?, ?)`,
			r.RunID, string(sc.Sensor), sc.InputPoints, sc.OutputPoints,
		)
		if err != nil {
			return fmt.Errorf("insert run %s sensor %s: %w", r.RunID, sc.Sensor, err)
		}
	}
	return tx.Commit()
}

const runColumns = `run_id, created_at, modality, sample_id, seed, config_json, policy,
	input_points, output_points, dropped_sensors, status, error`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		r        Run
		created  int64
		modality string
		dropped  string
	)
	if err := row.Scan(&r.RunID, &created, &modality, &r.SampleID, &r.Seed, &r.ConfigJSON, &r.Policy,
		&r.InputPoints, &r.OutputPoints, &dropped, &r.Status, &r.Error); err != nil {
		return nil, err
	}
	r.CreatedAt = time.Unix(0, created).UTC()
	r.Modality = occlusion.Modality(modality)
	r.DroppedSensors = splitSensors(dropped)
	return &r, nil
}

// GetRun returns the run with id, including its sensor counts.
func (s *Store) GetRun(id string) (*Run, error) {
	r, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM occlusion_runs WHERE run_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	if r.Sensors, err = s.SensorCounts(id); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means 50.
// Sensor counts are not loaded.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM occlusion_runs
		ORDER BY created_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SensorCounts returns the per-sensor counts of a run, sorted by sensor.
func (s *Store) SensorCounts(runID string) ([]SensorCount, error) {
	rows, err := s.db.Query(`
		SELECT sensor_id, input_points, output_points
		FROM occlusion_run_sensors WHERE run_id = ? ORDER BY sensor_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("sensor counts for %s: %w", runID, err)
	}
	defer rows.Close()

	var out []SensorCount
	for rows.Next() {
		var (
			sc     SensorCount
			sensor string
		)
		if err := rows.Scan(&sensor, &sc.InputPoints, &sc.OutputPoints); err != nil {
			return nil, fmt.Errorf("scan sensor count: %w", err)
		}
		sc.Sensor = occlusion.SensorID(sensor)
		out = append(out, sc)
	}
	return out, rows.Err()
}

func joinSensors(ss []occlusion.SensorID) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}

func splitSensors(s string) []occlusion.SensorID {
	if s == "" {
		return nil
	}
	var out []occlusion.SensorID
	for _, p := range strings.Split(s, ",") {
		out = append(out, occlusion.SensorID(p))
	}
	return out
}
