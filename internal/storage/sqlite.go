// Package storage provides SQLite-based persistence for evaluated rounds.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection for round persistence.
type Store struct {
	db *sql.DB
}

// RoundRecord is the summary of one evaluated round.
type RoundRecord struct {
	ID          int64
	RoundID     string
	Policy      string
	Seed        int64
	Agents      int
	Ticks       int
	Score       int
	BestFitness float64
	Halted      bool // Stopped by the driver before the population died out
	CreatedAt   time.Time
}

// AgentRecord is the final outcome of one agent within a round.
type AgentRecord struct {
	RoundID    string
	AgentID    int
	Fitness    float64
	TicksAlive int
	Reason     string // Elimination reason, "none" when still alive
}

// PolicyStats contains aggregated statistics for one policy.
type PolicyStats struct {
	Policy      string
	Rounds      int
	BestScore   int
	AvgScore    float64
	BestFitness float64
	LastPlayed  time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			round_id TEXT NOT NULL UNIQUE,
			policy TEXT NOT NULL,
			seed INTEGER NOT NULL,
			agents INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			score INTEGER NOT NULL,
			best_fitness REAL NOT NULL,
			halted INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_rounds_policy ON rounds(policy);
		CREATE INDEX IF NOT EXISTS idx_rounds_top ON rounds(policy, score DESC, best_fitness DESC);

		CREATE TABLE IF NOT EXISTS agent_results (
			round_id TEXT NOT NULL REFERENCES rounds(round_id) ON DELETE CASCADE,
			agent_id INTEGER NOT NULL,
			fitness REAL NOT NULL,
			ticks_alive INTEGER NOT NULL,
			reason TEXT NOT NULL,
			PRIMARY KEY (round_id, agent_id)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRound records a round and the outcome of each of its agents in a
// single transaction. Returns the row ID of the round.
func (s *Store) SaveRound(round RoundRecord, agents []AgentRecord) (int64, error) {
	if round.RoundID == "" {
		return 0, errors.New("storage: round id is required")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO rounds
		 (round_id, policy, seed, agents, ticks, score, best_fitness, halted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		round.RoundID,
		round.Policy,
		round.Seed,
		round.Agents,
		round.Ticks,
		round.Score,
		round.BestFitness,
		round.Halted,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save round: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO agent_results (round_id, agent_id, fitness, ticks_alive, reason)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot prepare agent insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range agents {
		if _, err := stmt.Exec(round.RoundID, a.AgentID, a.Fitness, a.TicksAlive, a.Reason); err != nil {
			return 0, fmt.Errorf("storage: cannot save agent %d: %w", a.AgentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage: cannot commit round: %w", err)
	}

	return id, nil
}

const roundColumns = `id, round_id, policy, seed, agents, ticks, score, best_fitness, halted, created_at`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRound(sc scanner) (RoundRecord, error) {
	var r RoundRecord
	var createdAt any
	err := sc.Scan(
		&r.ID,
		&r.RoundID,
		&r.Policy,
		&r.Seed,
		&r.Agents,
		&r.Ticks,
		&r.Score,
		&r.BestFitness,
		&r.Halted,
		&createdAt,
	)
	if err != nil {
		return r, err
	}
	r.CreatedAt = parseTime(createdAt)
	return r, nil
}

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func (s *Store) queryRounds(query string, args ...any) ([]RoundRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query rounds: %w", err)
	}
	defer rows.Close()

	var rounds []RoundRecord
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		rounds = append(rounds, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return rounds, nil
}

// Round retrieves a round by its round ID.
// Returns nil without error if it does not exist.
func (s *Store) Round(roundID string) (*RoundRecord, error) {
	r, err := scanRound(s.db.QueryRow(
		`SELECT `+roundColumns+` FROM rounds WHERE round_id = ?`,
		roundID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query round: %w", err)
	}
	return &r, nil
}

// TopRounds retrieves the best N rounds, ordered by score and then by best
// fitness. An empty policy matches every policy.
func (s *Store) TopRounds(policy string, limit int) ([]RoundRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	return s.queryRounds(
		`SELECT `+roundColumns+`
		 FROM rounds
		 WHERE ? = '' OR policy = ?
		 ORDER BY score DESC, best_fitness DESC, id ASC
		 LIMIT ?`,
		policy, policy, limit,
	)
}

// RecentRounds retrieves the most recently saved rounds.
func (s *Store) RecentRounds(limit int) ([]RoundRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	return s.queryRounds(
		`SELECT `+roundColumns+`
		 FROM rounds
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
}

// AgentResults retrieves the per-agent outcomes of a round, fittest first.
func (s *Store) AgentResults(roundID string) ([]AgentRecord, error) {
	rows, err := s.db.Query(
		`SELECT round_id, agent_id, fitness, ticks_alive, reason
		 FROM agent_results
		 WHERE round_id = ?
		 ORDER BY fitness DESC, agent_id ASC`,
		roundID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query agent results: %w", err)
	}
	defer rows.Close()

	var results []AgentRecord
	for rows.Next() {
		var a AgentRecord
		if err := rows.Scan(&a.RoundID, &a.AgentID, &a.Fitness, &a.TicksAlive, &a.Reason); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		results = append(results, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return results, nil
}

// PolicyStats retrieves aggregated statistics for every policy that has
// saved rounds, ordered by policy name.
func (s *Store) PolicyStats() ([]PolicyStats, error) {
	rows, err := s.db.Query(
		`SELECT policy, COUNT(*), MAX(score), AVG(score), MAX(best_fitness), MAX(created_at)
		 FROM rounds
		 GROUP BY policy
		 ORDER BY policy`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get policy stats: %w", err)
	}
	defer rows.Close()

	var stats []PolicyStats
	for rows.Next() {
		var ps PolicyStats
		var lastPlayed any
		if err := rows.Scan(&ps.Policy, &ps.Rounds, &ps.BestScore, &ps.AvgScore, &ps.BestFitness, &lastPlayed); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		ps.LastPlayed = parseTime(lastPlayed)
		stats = append(stats, ps)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return stats, nil
}

// ClearRounds deletes the rounds of a policy together with their agent
// results. An empty policy clears everything.
func (s *Store) ClearRounds(policy string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM agent_results
		 WHERE round_id IN (SELECT round_id FROM rounds WHERE ? = '' OR policy = ?)`,
		policy, policy,
	); err != nil {
		return fmt.Errorf("storage: cannot clear agent results: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM rounds WHERE ? = '' OR policy = ?`, policy, policy); err != nil {
		return fmt.Errorf("storage: cannot clear rounds: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit clear: %w", err)
	}
	return nil
}
