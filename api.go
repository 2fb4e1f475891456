package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the HTTP surface: sync trigger, knowledge base
// management, and outcome observability.
func NewRouter(cfg Config, db *sql.DB, syncer *Syncer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"system_status":  "running",
				"sync_schedule":  cfg.SyncSchedule,
				"lookback_hours": cfg.LookbackHours,
				"timestamp":      time.Now().Format(time.RFC3339),
			})
		})

		r.Post("/sync", func(w http.ResponseWriter, req *http.Request) {
			hours := cfg.LookbackHours
			if raw := req.URL.Query().Get("hours"); raw != "" {
				parsed, err := strconv.Atoi(raw)
				if err != nil || parsed < 1 {
					writeError(w, http.StatusBadRequest, "hours must be a positive integer")
					return
				}
				hours = parsed
			}

			log.Println("Manual sync triggered")
			result, err := syncer.RunSync(req.Context(), hours)
			if err != nil {
				writeJSON(w, http.StatusBadGateway, map[string]any{
					"success": false,
					"error":   err.Error(),
					"message": "Sync failed",
				})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"result":  result,
				"message": FormatSyncSummary(result),
			})
		})

		r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
			stats, err := GetSyncStats(db)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, stats)
		})

		r.Get("/history", func(w http.ResponseWriter, req *http.Request) {
			limit := 50
			if raw := req.URL.Query().Get("limit"); raw != "" {
				parsed, err := strconv.Atoi(raw)
				if err != nil || parsed < 1 {
					writeError(w, http.StatusBadRequest, "limit must be a positive integer")
					return
				}
				limit = parsed
			}
			outcomes, err := GetRecentOutcomes(db, limit)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"history": toHistoryJSON(outcomes)})
		})

		r.Get("/knowledge-base", func(w http.ResponseWriter, _ *http.Request) {
			entries, err := GetActiveKBEntries(db)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"entries": toKBJSON(entries)})
		})

		r.Post("/knowledge-base", func(w http.ResponseWriter, req *http.Request) {
			entries, ok := decodeKBEntries(w, req)
			if !ok {
				return
			}
			if err := UpsertKBEntries(db, entries); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "updated": len(entries)})
		})

		r.Put("/knowledge-base", func(w http.ResponseWriter, req *http.Request) {
			entries, ok := decodeKBEntries(w, req)
			if !ok {
				return
			}
			if err := ReplaceKnowledgeBase(db, entries); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "replaced": len(entries)})
		})

		r.Get("/categories", func(w http.ResponseWriter, _ *http.Request) {
			entries, err := GetActiveKBEntries(db)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			categories := make([]string, 0, len(entries))
			for _, e := range entries {
				categories = append(categories, e.Category)
			}
			writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
		})

		r.Get("/teams", func(w http.ResponseWriter, _ *http.Request) {
			entries, err := GetActiveKBEntries(db)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			seen := make(map[string]bool)
			var teams []string
			for _, e := range entries {
				if !seen[e.Team] {
					seen[e.Team] = true
					teams = append(teams, e.Team)
				}
			}
			writeJSON(w, http.StatusOK, map[string]any{"teams": teams})
		})
	})

	return r
}

// kbEntryJSON is the wire form of a knowledge base entry.
type kbEntryJSON struct {
	Category    string   `json:"category"`
	Team        string   `json:"team"`
	Keywords    []string `json:"keywords"`
	Description string   `json:"description,omitempty"`
	Weight      float64  `json:"weight,omitempty"`
}

func decodeKBEntries(w http.ResponseWriter, req *http.Request) ([]KnowledgeBaseEntry, bool) {
	var raw []kbEntryJSON
	if err := json.NewDecoder(req.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return nil, false
	}
	if len(raw) == 0 {
		writeError(w, http.StatusBadRequest, "no entries provided")
		return nil, false
	}

	entries := make([]KnowledgeBaseEntry, 0, len(raw))
	for _, e := range raw {
		if e.Category == "" || e.Team == "" {
			writeError(w, http.StatusBadRequest, "every entry needs a category and a team")
			return nil, false
		}
		entries = append(entries, KnowledgeBaseEntry{
			Category:    e.Category,
			Team:        e.Team,
			Keywords:    e.Keywords,
			Description: e.Description,
			Weight:      e.Weight,
		})
	}
	return entries, true
}

func toKBJSON(entries []KnowledgeBaseEntry) []kbEntryJSON {
	out := make([]kbEntryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, kbEntryJSON{
			Category:    e.Category,
			Team:        e.Team,
			Keywords:    e.Keywords,
			Description: e.Description,
			Weight:      e.Weight,
		})
	}
	return out
}

type outcomeJSON struct {
	TicketID     string `json:"zoho_ticket_id"`
	RemoteTaskID string `json:"clickup_task_id,omitempty"`
	Category     string `json:"category"`
	Team         string `json:"team"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func toHistoryJSON(outcomes []SyncOutcome) []outcomeJSON {
	out := make([]outcomeJSON, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, outcomeJSON{
			TicketID:     o.TicketID,
			RemoteTaskID: o.RemoteTaskID,
			Category:     o.Category,
			Team:         o.Team,
			Status:       o.Status,
			ErrorMessage: o.ErrorMessage,
			CreatedAt:    o.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
