package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists trading history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboard reads don't block the writing workers.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			attempt_id       TEXT NOT NULL,
			user_id          TEXT NOT NULL,
			instrument       TEXT NOT NULL,
			contract_id      TEXT,
			direction        TEXT,
			stake            REAL,
			confidence       REAL,
			outcome          TEXT,
			pnl_delta        REAL,
			martingale_level INTEGER,
			placed_at        INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_user ON trades(user_id, placed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_attempt ON trades(attempt_id)`,

		`CREATE TABLE IF NOT EXISTS daily_summaries (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			user_id         TEXT NOT NULL,
			instrument      TEXT NOT NULL,
			accumulated_pnl REAL,
			wins            INTEGER,
			losses          INTEGER,
			halted          INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_user ON daily_summaries(user_id, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordTrade(rec *TradeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO trades
		(attempt_id, user_id, instrument, contract_id, direction, stake,
		 confidence, outcome, pnl_delta, martingale_level, placed_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		rec.AttemptID, rec.UserID, rec.Instrument, rec.ContractID,
		string(rec.Direction), rec.Stake, rec.Confidence, string(rec.Outcome),
		rec.PnLDelta, rec.MartingaleLevel, rec.PlacedAt.Unix(),
	)
	return err
}

func (r *SQLiteRecorder) RecordSummary(rec *SummaryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	halted := 0
	if rec.Halted {
		halted = 1
	}
	_, err := r.db.Exec(`INSERT INTO daily_summaries
		(timestamp, user_id, instrument, accumulated_pnl, wins, losses, halted)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.UserID, rec.Instrument,
		rec.AccumulatedPnL, rec.Wins, rec.Losses, halted,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
