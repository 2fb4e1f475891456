package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"
)

// TicketSource fetches raw tickets from the helpdesk, scoped to a
// lookback window. A fetch failure aborts the whole cycle.
type TicketSource interface {
	FetchRecentTickets(ctx context.Context, hoursBack int) ([]Ticket, error)
}

// TaskSink creates one remote task per ticket. It performs no retry of
// its own; bounded retry is the orchestrator's responsibility.
type TaskSink interface {
	CreateTask(ctx context.Context, t Ticket, category, team string) (string, error)
}

// Syncer runs the fetch -> dedupe -> classify -> create-task -> log
// pipeline. Cycles are serialized: the scheduler and the manual HTTP
// trigger share one Syncer and never interleave.
type Syncer struct {
	cfg        Config
	db         *sql.DB
	source     TicketSource
	sink       TaskSink
	classifier *Classifier

	mu    sync.Mutex
	sleep func(time.Duration) // backoff hook, swapped out in tests
}

func NewSyncer(cfg Config, db *sql.DB, source TicketSource, sink TaskSink) *Syncer {
	return &Syncer{
		cfg:        cfg,
		db:         db,
		source:     source,
		sink:       sink,
		classifier: NewClassifier(KBRuleSource{DB: db}, cfg.DefaultCategory),
		sleep:      time.Sleep,
	}
}

// RunSync executes one full cycle. Per-ticket failures are isolated and
// recorded; only a fetch failure aborts and propagates.
func (s *Syncer) RunSync(ctx context.Context, hoursBack int) (SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	result := SyncResult{StartedAt: start}
	log.Printf("Starting sync for tickets from last %d hours", hoursBack)

	tickets, err := s.source.FetchRecentTickets(ctx, hoursBack)
	if err != nil {
		return result, fmt.Errorf("fetching tickets: %w", err)
	}
	result.TotalFetched = len(tickets)
	log.Printf("Fetched %d tickets", len(tickets))

	if len(tickets) == 0 {
		result.Elapsed = time.Since(start)
		return result, nil
	}

	candidates := s.filterDuplicates(tickets, &result)
	log.Printf("After duplicate removal: %d tickets", len(candidates))

	categorized := s.classifier.BatchCategorize(candidates)

	for _, t := range candidates {
		if err := ctx.Err(); err != nil {
			result.Elapsed = time.Since(start)
			return result, err
		}
		s.processTicket(ctx, t, categorized[t.ID], &result)
	}

	result.Elapsed = time.Since(start)
	log.Printf("Sync completed in %.2fs: %d success, %d errors, %d duplicates",
		result.Elapsed.Seconds(), result.Success, result.Errors, result.Duplicates)
	return result, nil
}

// filterDuplicates drops malformed tickets, tickets already settled in
// an earlier cycle, and intra-batch duplicates. Suppressed duplicates
// get their terminal outcome here; survivors go on to classification.
func (s *Syncer) filterDuplicates(tickets []Ticket, result *SyncResult) []Ticket {
	var fresh []Ticket
	for _, t := range tickets {
		if t.ID == "" {
			log.Printf("Skipping malformed ticket with empty id (subject %q)", t.Subject)
			result.Skipped++
			continue
		}
		done, err := HasTerminalOutcome(s.db, t.ID)
		if err != nil {
			log.Printf("Error checking history for ticket %s: %v", t.ID, err)
			continue
		}
		if done {
			result.Duplicates++
			continue
		}
		fresh = append(fresh, t)
	}

	groups := GroupSimilarTickets(fresh, s.cfg.SimilarityThreshold)
	suppressed := make(map[string]bool)
	for _, group := range groups {
		keep := group[0]
		for _, t := range group[1:] {
			if t.ModifiedTime.After(keep.ModifiedTime) {
				keep = t
			}
		}
		for _, t := range group {
			if t.ID == keep.ID {
				continue
			}
			suppressed[t.ID] = true
			result.Duplicates++
			s.recordOutcome(SyncOutcome{
				TicketID:     t.ID,
				Category:     "Duplicate",
				Team:         "N/A",
				Status:       StatusDuplicate,
				ErrorMessage: fmt.Sprintf("Duplicate of ticket %s", keep.ID),
			})
		}
	}

	var unique []Ticket
	for _, t := range fresh {
		if !suppressed[t.ID] {
			unique = append(unique, t)
		}
	}
	return unique
}

// processTicket resolves the owning team and attempts task creation with
// bounded retry, then persists exactly one terminal outcome.
func (s *Syncer) processTicket(ctx context.Context, t Ticket, category string, result *SyncResult) {
	team, err := TeamForCategory(s.db, category)
	if err != nil {
		log.Printf("Error resolving team for category %q: %v", category, err)
	}
	if team == "" {
		team = s.cfg.DefaultTeam
	}

	taskID, err := s.createTaskWithRetry(ctx, t, category, team)
	result.Processed++

	outcome := SyncOutcome{TicketID: t.ID, Category: category, Team: team}
	if err != nil {
		outcome.Status = StatusFailed
		outcome.ErrorMessage = err.Error()
		result.Errors++
	} else {
		outcome.Status = StatusSuccess
		outcome.RemoteTaskID = taskID
		result.Success++
		log.Printf("Processed ticket %s -> task %s", t.ID, taskID)
	}
	s.recordOutcome(outcome)
}

// createTaskWithRetry makes up to MaxRetries+1 attempts with exponential
// backoff of 2^attempt seconds between them, stopping at the first
// success. Retries of one ticket stay sequential so the backoff holds.
func (s *Syncer) createTaskWithRetry(ctx context.Context, t Ticket, category, team string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		taskID, err := s.sink.CreateTask(ctx, t, category, team)
		if err == nil {
			return taskID, nil
		}
		lastErr = err

		if attempt < s.cfg.MaxRetries {
			wait := time.Duration(1<<uint(attempt)) * time.Second
			log.Printf("Attempt %d failed for ticket %s: %v. Retrying in %s...",
				attempt+1, t.ID, err, wait)
			s.sleep(wait)
		} else {
			log.Printf("Failed to process ticket %s after %d attempts: %v",
				t.ID, s.cfg.MaxRetries+1, err)
		}
	}
	return "", lastErr
}

// recordOutcome persists a terminal row. A write failure is logged and
// the cycle continues; the in-memory counters may then disagree with the
// store, which is surfaced via logs only.
func (s *Syncer) recordOutcome(o SyncOutcome) {
	if err := InsertSyncOutcome(s.db, o); err != nil {
		log.Printf("Failed to log outcome for ticket %s: %v", o.TicketID, err)
	}
}

// FormatSyncSummary renders a one-line, human-readable cycle summary.
func FormatSyncSummary(result SyncResult) string {
	return fmt.Sprintf("Sync: %d fetched, %d processed, %d success, %d errors, %d duplicates in %.2fs",
		result.TotalFetched, result.Processed, result.Success,
		result.Errors, result.Duplicates, result.Elapsed.Seconds())
}
