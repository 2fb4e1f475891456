package main

import (
	"strings"
	"time"
)

// Processing statuses recorded in sync_logs. Success and duplicate are
// terminal across cycles; a failed ticket is retried on the next cycle.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusSuccess    = "success"
	StatusFailed     = "failed"
	StatusDuplicate  = "duplicate"
)

type Ticket struct {
	ID           string
	Subject      string
	Description  string
	Status       string
	Priority     string
	CreatedTime  time.Time
	ModifiedTime time.Time
	ContactID    string
	Email        string
}

// SearchText is the text the classifier scores: lowercased subject plus description.
func (t Ticket) SearchText() string {
	return strings.ToLower(t.Subject + " " + t.Description)
}

type KnowledgeBaseEntry struct {
	ID          int64
	Category    string
	Team        string
	Keywords    []string // lowercase; may contain multi-word phrases
	Description string
	Weight      float64
	Active      bool
	CreatedAt   time.Time
}

// SyncOutcome is one row in sync_logs. Rows are append-only; corrections
// are new rows, never updates.
type SyncOutcome struct {
	ID           int64
	TicketID     string
	RemoteTaskID string
	Category     string
	Team         string
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
}

// SyncResult tracks separate counters for each outcome of one cycle.
type SyncResult struct {
	TotalFetched int           `json:"total_fetched"`
	Processed    int           `json:"processed"`
	Duplicates   int           `json:"duplicates"`
	Success      int           `json:"success"`
	Errors       int           `json:"errors"`
	Skipped      int           `json:"skipped"` // malformed tickets dropped before processing
	Elapsed      time.Duration `json:"elapsed_ns"`
	StartedAt    time.Time     `json:"started_at"`
}

// LookbackCutoff returns the earliest modified time included in a fetch window.
func LookbackCutoff(now time.Time, hoursBack int) time.Time {
	return now.Add(-time.Duration(hoursBack) * time.Hour)
}
