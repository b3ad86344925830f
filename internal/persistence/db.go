// Package persistence provides a SQLite journal of city events and monthly
// reports. The journal is append-only history for queries; cities are
// never restored from it.
package persistence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/gridcity/internal/session"
)

// DB wraps a SQLite connection for the event journal.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer; SQLite serializes anyway.
	conn.SetMaxOpenConns(1)

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
	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		session_id TEXT NOT NULL,
		at TEXT NOT NULL,
		city TEXT NOT NULL,
		month INTEGER NOT NULL,
		action TEXT NOT NULL,
		cell INTEGER NOT NULL,
		kind TEXT NOT NULL,
		amount INTEGER NOT NULL,
		money INTEGER NOT NULL,
		power INTEGER NOT NULL,
		population INTEGER NOT NULL,
		happiness INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS monthly_reports (
		event_id TEXT PRIMARY KEY REFERENCES events(id),
		session_id TEXT NOT NULL,
		city TEXT NOT NULL,
		month INTEGER NOT NULL,
		income INTEGER NOT NULL,
		deficit INTEGER NOT NULL,
		power_cost INTEGER NOT NULL,
		happiness_delta INTEGER NOT NULL,
		growth INTEGER NOT NULL,
		money INTEGER NOT NULL,
		power INTEGER NOT NULL,
		population INTEGER NOT NULL,
		happiness INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_city ON events(city, seq);
	CREATE INDEX IF NOT EXISTS idx_reports_city_month ON monthly_reports(city, month);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Append writes one event, and its monthly report if it has one, in a
// single transaction. It implements session.Journal.
func (db *DB) Append(e session.Event) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO events
		(id, session_id, at, city, month, action, cell, kind, amount, money, power, population, happiness)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Session, e.At.UTC().Format(time.RFC3339Nano), e.City, e.Month, string(e.Action),
		e.Cell, e.Kind.String(), e.Amount, e.Money, e.Power, e.Population, e.Happiness,
	)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", e.ID, err)
	}

	if r := e.Report; r != nil {
		_, err = tx.Exec(`INSERT INTO monthly_reports
			(event_id, session_id, city, month, income, deficit, power_cost, happiness_delta, growth,
			 money, power, population, happiness)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Session, e.City, r.Month, r.Income, r.Deficit, r.PowerCost, r.HappinessDelta, r.Growth,
			r.Money, r.Power, r.Population, r.Happiness,
		)
		if err != nil {
			return fmt.Errorf("insert report %s/%d: %w", e.City, r.Month, err)
		}
	}

	return tx.Commit()
}

// EventRow is one journaled event.
type EventRow struct {
	ID         string `db:"id" json:"id"`
	Session    string `db:"session_id" json:"session"`
	At         string `db:"at" json:"at"`
	City       string `db:"city" json:"city"`
	Month      int    `db:"month" json:"month"`
	Action     string `db:"action" json:"action"`
	Cell       int    `db:"cell" json:"cell"`
	Kind       string `db:"kind" json:"kind"`
	Amount     int    `db:"amount" json:"amount"`
	Money      int    `db:"money" json:"money"`
	Power      int    `db:"power" json:"power"`
	Population int    `db:"population" json:"population"`
	Happiness  int    `db:"happiness" json:"happiness"`
}

// RecentEvents returns the most recent events, newest first. An empty
// city matches all cities.
func (db *DB) RecentEvents(city string, limit int) ([]EventRow, error) {
	var rows []EventRow
	err := db.conn.Select(&rows, `
		SELECT id, session_id, at, city, month, action, cell, kind, amount, money, power, population, happiness
		FROM events
		WHERE (? = '' OR city = ?)
		ORDER BY seq DESC LIMIT ?`,
		city, city, limit,
	)
	return rows, err
}

// ReportRow is one journaled monthly report.
type ReportRow struct {
	Session        string `db:"session_id" json:"session"`
	City           string `db:"city" json:"city"`
	Month          int    `db:"month" json:"month"`
	Income         int    `db:"income" json:"income"`
	Deficit        int    `db:"deficit" json:"deficit"`
	PowerCost      int    `db:"power_cost" json:"power_cost"`
	HappinessDelta int    `db:"happiness_delta" json:"happiness_delta"`
	Growth         int    `db:"growth" json:"growth"`
	Money          int    `db:"money" json:"money"`
	Power          int    `db:"power" json:"power"`
	Population     int    `db:"population" json:"population"`
	Happiness      int    `db:"happiness" json:"happiness"`
}

// LoadHistory returns a city's monthly reports with fromMonth <= month <=
// toMonth, oldest first, at most limit rows. Reports from every session
// are included; ReportRow.Session tells runs apart.
func (db *DB) LoadHistory(city string, fromMonth, toMonth, limit int) ([]ReportRow, error) {
	var rows []ReportRow
	err := db.conn.Select(&rows, `
		SELECT session_id, city, month, income, deficit, power_cost, happiness_delta, growth,
		       money, power, population, happiness
		FROM monthly_reports
		WHERE city = ? AND month BETWEEN ? AND ?
		ORDER BY month ASC, rowid ASC LIMIT ?`,
		city, fromMonth, toMonth, limit,
	)
	if err != nil {
		return nil, err
	}
	slog.Debug("history loaded", "city", city, "rows", len(rows))
	return rows, nil
}
