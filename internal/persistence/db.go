// Package persistence provides SQLite-based storage for completed runs, so
// prior experiments remain queryable after a model is reset.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/landlease/internal/engine"
)

// MaxSavedRuns caps the store; the oldest runs beyond it are pruned on save.
const MaxSavedRuns = 20

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		scenario_id TEXT NOT NULL,
		scenario_title TEXT NOT NULL,
		created_at TEXT NOT NULL,
		seed INTEGER NOT NULL,
		rounds INTEGER NOT NULL,
		params_json TEXT NOT NULL,
		final_stats_json TEXT NOT NULL,
		final_gini REAL NOT NULL,
		final_housing_rate REAL NOT NULL,
		final_population INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_metrics (
		run_id TEXT NOT NULL,
		round INTEGER NOT NULL,
		housing_rate REAL NOT NULL,
		unhoused_count INTEGER NOT NULL,
		population INTEGER NOT NULL,
		avg_land_value REAL NOT NULL,
		avg_lease_price REAL NOT NULL,
		avg_wealth_housed REAL NOT NULL,
		avg_wealth_unhoused REAL NOT NULL,
		gini REAL NOT NULL,
		PRIMARY KEY (run_id, round)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RunRecord is one archived run: its configuration, outcome, and full
// metrics history.
type RunRecord struct {
	ID            string               `json:"id"`
	ScenarioID    string               `json:"scenario_id"`
	ScenarioTitle string               `json:"scenario_title"`
	CreatedAt     string               `json:"timestamp"`
	Seed          int64                `json:"seed"`
	Rounds        int                  `json:"rounds"`
	Params        engine.Params        `json:"params"`
	FinalStats    engine.Stats         `json:"final_stats"`
	History       engine.HistorySeries `json:"history"`
}

// RunSummary is the listing view of an archived run.
type RunSummary struct {
	ID               string  `db:"id" json:"id"`
	ScenarioID       string  `db:"scenario_id" json:"scenario_id"`
	ScenarioTitle    string  `db:"scenario_title" json:"scenario_title"`
	CreatedAt        string  `db:"created_at" json:"timestamp"`
	Rounds           int     `db:"rounds" json:"rounds"`
	FinalGini        float64 `db:"final_gini" json:"final_gini"`
	FinalHousingRate float64 `db:"final_housing_rate" json:"final_housing_rate"`
	FinalPopulation  int     `db:"final_population" json:"final_population"`
}

// NewRunRecord captures a model's run under the given scenario label.
func NewRunRecord(scenarioID, scenarioTitle string, m *engine.Model) RunRecord {
	return RunRecord{
		ID:            uuid.NewString(),
		ScenarioID:    scenarioID,
		ScenarioTitle: scenarioTitle,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		Seed:          m.Seed,
		Rounds:        m.Round,
		Params:        m.Params,
		FinalStats:    m.State().Stats,
		History:       m.HistorySeries(),
	}
}

// SaveRun stores a run and prunes the archive down to MaxSavedRuns.
func (db *DB) SaveRun(run RunRecord) error {
	paramsJSON, err := json.Marshal(run.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	statsJSON, err := json.Marshal(run.FinalStats)
	if err != nil {
		return fmt.Errorf("marshal final stats: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs
		(id, scenario_id, scenario_title, created_at, seed, rounds,
		 params_json, final_stats_json, final_gini, final_housing_rate, final_population)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ScenarioID, run.ScenarioTitle, run.CreatedAt, run.Seed, run.Rounds,
		string(paramsJSON), string(statsJSON),
		run.FinalStats.Gini, run.FinalStats.HousingRate, run.FinalStats.Population,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.Preparex(`INSERT INTO run_metrics
		(run_id, round, housing_rate, unhoused_count, population,
		 avg_land_value, avg_lease_price, avg_wealth_housed, avg_wealth_unhoused, gini)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	h := run.History
	for i := 0; i < h.Len(); i++ {
		_, err := stmt.Exec(
			run.ID, h.Round[i], h.HousingRate[i], h.UnhousedCount[i], h.Population[i],
			h.AvgLandValue[i], h.AvgLeasePrice[i], h.AvgWealthHoused[i], h.AvgWealthUnhoused[i], h.Gini[i],
		)
		if err != nil {
			return fmt.Errorf("insert metrics row %d: %w", i, err)
		}
	}

	// Prune beyond MaxSavedRuns, oldest first.
	_, err = tx.Exec(`DELETE FROM run_metrics WHERE run_id NOT IN
		(SELECT id FROM runs ORDER BY created_at DESC, id DESC LIMIT ?)`, MaxSavedRuns)
	if err != nil {
		return fmt.Errorf("prune metrics: %w", err)
	}
	_, err = tx.Exec(`DELETE FROM runs WHERE id NOT IN
		(SELECT id FROM runs ORDER BY created_at DESC, id DESC LIMIT ?)`, MaxSavedRuns)
	if err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("run saved", "id", run.ID, "scenario", run.ScenarioID, "rounds", run.Rounds)
	return nil
}

// ListRuns returns summaries of all saved runs, newest first.
func (db *DB) ListRuns() ([]RunSummary, error) {
	runs := []RunSummary{}
	err := db.conn.Select(&runs, `SELECT
		id, scenario_id, scenario_title, created_at, rounds,
		final_gini, final_housing_rate, final_population
		FROM runs ORDER BY created_at DESC, id DESC`)
	return runs, err
}

// GetRun loads a full run record including its metrics history.
func (db *DB) GetRun(id string) (RunRecord, error) {
	var row struct {
		ID             string `db:"id"`
		ScenarioID     string `db:"scenario_id"`
		ScenarioTitle  string `db:"scenario_title"`
		CreatedAt      string `db:"created_at"`
		Seed           int64  `db:"seed"`
		Rounds         int    `db:"rounds"`
		ParamsJSON     string `db:"params_json"`
		FinalStatsJSON string `db:"final_stats_json"`
	}
	err := db.conn.Get(&row, `SELECT
		id, scenario_id, scenario_title, created_at, seed, rounds, params_json, final_stats_json
		FROM runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, ErrRunNotFound
	}
	if err != nil {
		return RunRecord{}, err
	}

	run := RunRecord{
		ID:            row.ID,
		ScenarioID:    row.ScenarioID,
		ScenarioTitle: row.ScenarioTitle,
		CreatedAt:     row.CreatedAt,
		Seed:          row.Seed,
		Rounds:        row.Rounds,
	}
	if err := json.Unmarshal([]byte(row.ParamsJSON), &run.Params); err != nil {
		return RunRecord{}, fmt.Errorf("unmarshal params: %w", err)
	}
	if err := json.Unmarshal([]byte(row.FinalStatsJSON), &run.FinalStats); err != nil {
		return RunRecord{}, fmt.Errorf("unmarshal final stats: %w", err)
	}

	type metricRow struct {
		Round             int     `db:"round"`
		HousingRate       float64 `db:"housing_rate"`
		UnhousedCount     int     `db:"unhoused_count"`
		Population        int     `db:"population"`
		AvgLandValue      float64 `db:"avg_land_value"`
		AvgLeasePrice     float64 `db:"avg_lease_price"`
		AvgWealthHoused   float64 `db:"avg_wealth_housed"`
		AvgWealthUnhoused float64 `db:"avg_wealth_unhoused"`
		Gini              float64 `db:"gini"`
	}
	var metrics []metricRow
	err = db.conn.Select(&metrics, `SELECT
		round, housing_rate, unhoused_count, population,
		avg_land_value, avg_lease_price, avg_wealth_housed, avg_wealth_unhoused, gini
		FROM run_metrics WHERE run_id = ? ORDER BY round`, id)
	if err != nil {
		return RunRecord{}, err
	}

	h := engine.HistorySeries{
		Round:             make([]int, 0, len(metrics)),
		HousingRate:       make([]float64, 0, len(metrics)),
		UnhousedCount:     make([]int, 0, len(metrics)),
		Population:        make([]int, 0, len(metrics)),
		AvgLandValue:      make([]float64, 0, len(metrics)),
		AvgLeasePrice:     make([]float64, 0, len(metrics)),
		AvgWealthHoused:   make([]float64, 0, len(metrics)),
		AvgWealthUnhoused: make([]float64, 0, len(metrics)),
		Gini:              make([]float64, 0, len(metrics)),
	}
	for _, r := range metrics {
		h.Round = append(h.Round, r.Round)
		h.HousingRate = append(h.HousingRate, r.HousingRate)
		h.UnhousedCount = append(h.UnhousedCount, r.UnhousedCount)
		h.Population = append(h.Population, r.Population)
		h.AvgLandValue = append(h.AvgLandValue, r.AvgLandValue)
		h.AvgLeasePrice = append(h.AvgLeasePrice, r.AvgLeasePrice)
		h.AvgWealthHoused = append(h.AvgWealthHoused, r.AvgWealthHoused)
		h.AvgWealthUnhoused = append(h.AvgWealthUnhoused, r.AvgWealthUnhoused)
		h.Gini = append(h.Gini, r.Gini)
	}
	run.History = h

	return run, nil
}

// RunCount returns the number of saved runs.
func (db *DB) RunCount() (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COUNT(*) FROM runs")
	return n, err
}
