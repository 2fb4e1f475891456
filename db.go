package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS knowledge_base (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		category    TEXT NOT NULL,
		team        TEXT NOT NULL,
		keywords    TEXT NOT NULL,
		description TEXT DEFAULT '',
		weight      REAL DEFAULT 1.0,
		is_active   INTEGER DEFAULT 1,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_kb_category ON knowledge_base(category);
	CREATE INDEX IF NOT EXISTS idx_kb_active ON knowledge_base(is_active);

	CREATE TABLE IF NOT EXISTS sync_logs (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		zoho_ticket_id  TEXT NOT NULL,
		clickup_task_id TEXT DEFAULT '',
		category        TEXT NOT NULL,
		team            TEXT NOT NULL,
		status          TEXT DEFAULT 'pending',
		error_message   TEXT DEFAULT '',
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_sync_logs_ticket ON sync_logs(zoho_ticket_id);
	CREATE INDEX IF NOT EXISTS idx_sync_logs_created_at ON sync_logs(created_at);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_sync_logs_terminal
		ON sync_logs(zoho_ticket_id) WHERE status IN ('success', 'duplicate');
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// --- Knowledge Base Store ---

// GetActiveKBEntries returns the active rule set in insertion order.
// The classifier relies on this order for reproducible tie-breaking.
func GetActiveKBEntries(db *sql.DB) ([]KnowledgeBaseEntry, error) {
	rows, err := db.Query(
		`SELECT id, category, team, keywords, description, weight, is_active, created_at
		 FROM knowledge_base WHERE is_active = 1 ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []KnowledgeBaseEntry
	for rows.Next() {
		var e KnowledgeBaseEntry
		var keywordsJSON string
		err := rows.Scan(&e.ID, &e.Category, &e.Team, &keywordsJSON,
			&e.Description, &e.Weight, &e.Active, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(keywordsJSON), &e.Keywords); err != nil {
			return nil, fmt.Errorf("parsing keywords for category %q: %w", e.Category, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UpsertKBEntries inserts new categories and updates existing ones in place.
func UpsertKBEntries(db *sql.DB, entries []KnowledgeBaseEntry) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range entries {
		keywordsJSON, err := json.Marshal(e.Keywords)
		if err != nil {
			return fmt.Errorf("encoding keywords for category %q: %w", e.Category, err)
		}
		weight := e.Weight
		if weight <= 0 {
			weight = 1.0
		}

		var id int64
		err = tx.QueryRow(`SELECT id FROM knowledge_base WHERE category = ?`, e.Category).Scan(&id)
		switch {
		case err == sql.ErrNoRows:
			_, err = tx.Exec(
				`INSERT INTO knowledge_base (category, team, keywords, description, weight, is_active)
				 VALUES (?, ?, ?, ?, ?, 1)`,
				e.Category, e.Team, string(keywordsJSON), e.Description, weight,
			)
		case err == nil:
			_, err = tx.Exec(
				`UPDATE knowledge_base
				 SET team = ?, keywords = ?, description = ?, weight = ?, is_active = 1,
				     updated_at = CURRENT_TIMESTAMP
				 WHERE id = ?`,
				e.Team, string(keywordsJSON), e.Description, weight, id,
			)
		}
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ReplaceKnowledgeBase deactivates every existing entry and inserts the
// provided set as the new active rule set. Old rows are kept for audit.
func ReplaceKnowledgeBase(db *sql.DB, entries []KnowledgeBaseEntry) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE knowledge_base SET is_active = 0, updated_at = CURRENT_TIMESTAMP`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO knowledge_base (category, team, keywords, description, weight, is_active)
		 VALUES (?, ?, ?, ?, ?, 1)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		keywordsJSON, err := json.Marshal(e.Keywords)
		if err != nil {
			return fmt.Errorf("encoding keywords for category %q: %w", e.Category, err)
		}
		weight := e.Weight
		if weight <= 0 {
			weight = 1.0
		}
		if _, err := stmt.Exec(e.Category, e.Team, string(keywordsJSON), e.Description, weight); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// TeamForCategory returns the owning team of an active category, or ""
// when the category is unmapped. Callers degrade to the default team.
func TeamForCategory(db *sql.DB, category string) (string, error) {
	var team string
	err := db.QueryRow(
		`SELECT team FROM knowledge_base WHERE category = ? AND is_active = 1`,
		category,
	).Scan(&team)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return team, err
}

func CountKBEntries(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM knowledge_base`).Scan(&count)
	return count, err
}

// --- Outcome Store ---

// InsertSyncOutcome appends one outcome row. A second terminal row for
// the same ticket hits the partial unique index; that conflict is a
// benign duplicate write, not an error.
func InsertSyncOutcome(db *sql.DB, o SyncOutcome) error {
	_, err := db.Exec(
		`INSERT INTO sync_logs (zoho_ticket_id, clickup_task_id, category, team, status, error_message)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		o.TicketID, o.RemoteTaskID, o.Category, o.Team, o.Status, o.ErrorMessage,
	)
	if isUniqueConstraintErr(err) {
		return nil
	}
	return err
}

func isUniqueConstraintErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// HasTerminalOutcome reports whether a ticket already has a success or
// duplicate outcome from any earlier cycle.
func HasTerminalOutcome(db *sql.DB, ticketID string) (bool, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM sync_logs
		 WHERE zoho_ticket_id = ? AND status IN ('success', 'duplicate')`,
		ticketID,
	).Scan(&count)
	return count > 0, err
}

func GetRecentOutcomes(db *sql.DB, limit int) ([]SyncOutcome, error) {
	rows, err := db.Query(
		`SELECT id, zoho_ticket_id, clickup_task_id, category, team, status, error_message, created_at
		 FROM sync_logs ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []SyncOutcome
	for rows.Next() {
		var o SyncOutcome
		err := rows.Scan(&o.ID, &o.TicketID, &o.RemoteTaskID, &o.Category,
			&o.Team, &o.Status, &o.ErrorMessage, &o.CreatedAt)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

type SyncStats struct {
	TotalProcessed int            `json:"total_processed"`
	Successful     int            `json:"successful"`
	Failed         int            `json:"failed"`
	Duplicates     int            `json:"duplicates"`
	SuccessRate    float64        `json:"success_rate"`
	ByCategory     map[string]int `json:"category_breakdown"`
}

func GetSyncStats(db *sql.DB) (SyncStats, error) {
	s := SyncStats{ByCategory: make(map[string]int)}
	err := db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN status = 'duplicate' THEN 1 ELSE 0 END), 0)
		 FROM sync_logs`,
	).Scan(&s.TotalProcessed, &s.Successful, &s.Failed, &s.Duplicates)
	if err != nil {
		return s, err
	}
	if s.TotalProcessed > 0 {
		s.SuccessRate = float64(s.Successful) / float64(s.TotalProcessed) * 100
	}

	rows, err := db.Query(`SELECT category, COUNT(*) FROM sync_logs GROUP BY category`)
	if err != nil {
		return s, err
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return s, err
		}
		s.ByCategory[category] = count
	}
	return s, rows.Err()
}

// PruneSyncLogs deletes all but the most recent keep rows.
func PruneSyncLogs(db *sql.DB, keep int) (int64, error) {
	res, err := db.Exec(
		`DELETE FROM sync_logs WHERE id NOT IN
		 (SELECT id FROM sync_logs ORDER BY created_at DESC, id DESC LIMIT ?)`,
		keep,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
