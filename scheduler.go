package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// StartSyncScheduler runs sync cycles on the configured cron schedule.
// The schedule is a standard 5-field cron expression (minute hour
// day-of-month month day-of-week), e.g. "0 * * * *" for hourly.
func StartSyncScheduler(cfg Config, syncer *Syncer, notifier *SlackNotifier) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(cfg.SyncSchedule)
	if err != nil {
		// LoadConfig validates the expression; this only trips if the
		// scheduler is started with a hand-built Config.
		log.Printf("Invalid sync_schedule '%s': %v — scheduler disabled", cfg.SyncSchedule, err)
		return
	}

	log.Printf("Sync scheduled (cron: %s), lookback %dh", cfg.SyncSchedule, cfg.LookbackHours)

	go func() {
		for {
			now := time.Now().In(cfg.Location)
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next sync at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			result, syncErr := syncer.RunSync(context.Background(), cfg.LookbackHours)
			if syncErr != nil {
				log.Printf("Scheduled sync error: %v", syncErr)
			}
			log.Printf("Scheduled sync complete: %s", FormatSyncSummary(result))

			notifier.PostSyncSummary(result, syncErr)
		}
	}()
}

// StartCleanupScheduler prunes sync_logs down to the retention limit
// every night at 02:00.
func StartCleanupScheduler(cfg Config, db *sql.DB) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse("0 2 * * *")
	if err != nil {
		log.Printf("Invalid cleanup schedule: %v — cleanup disabled", err)
		return
	}

	go func() {
		for {
			now := time.Now().In(cfg.Location)
			next := sched.Next(now)
			time.Sleep(next.Sub(now))

			pruned, err := PruneSyncLogs(db, cfg.LogRetention)
			if err != nil {
				log.Printf("Cleanup error: %v", err)
			} else if pruned > 0 {
				log.Printf("Cleaned up %d old sync log entries", pruned)
			}
		}
	}()
}
