package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

// ClickUpClient creates tasks in ClickUp lists. It performs no retry;
// the orchestrator owns the retry policy.
type ClickUpClient struct {
	cfg        Config
	httpClient *http.Client

	// Overridable for tests.
	BaseURL string
}

func NewClickUpClient(cfg Config) *ClickUpClient {
	return &ClickUpClient{
		cfg:        cfg,
		httpClient: externalHTTPClient,
		BaseURL:    "https://api.clickup.com/api/v2",
	}
}

type clickupTaskRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Priority    int      `json:"priority"`
	Tags        []string `json:"tags"`
}

type clickupTaskResponse struct {
	ID string `json:"id"`
}

// CreateTask creates one task in the list mapped to the category and
// returns the remote task id.
func (c *ClickUpClient) CreateTask(ctx context.Context, t Ticket, category, team string) (string, error) {
	listID := c.cfg.ListForCategory(category)
	if listID == "" {
		return "", fmt.Errorf("no ClickUp list configured for category %q", category)
	}

	task := clickupTaskRequest{
		Name:        fmt.Sprintf("[%s] %s", category, t.Subject),
		Description: formatTaskDescription(t, category, team),
		Status:      "Open",
		Priority:    mapPriority(t.Priority),
		Tags: []string{
			strings.ToLower(strings.ReplaceAll(team, "/", "-")),
			strings.ToLower(strings.ReplaceAll(category, " ", "-")),
			"zoho-import",
		},
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("encoding task: %w", err)
	}

	apiURL := fmt.Sprintf("%s/list/%s/task", strings.TrimRight(c.BaseURL, "/"), listID)
	req, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", c.cfg.ClickUpAPIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("creating task: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("ClickUp API returned %d: %s", resp.StatusCode, string(body))
	}

	var created clickupTaskResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("ClickUp API returned no task id")
	}

	log.Printf("Created ClickUp task %s for ticket %s", created.ID, t.ID)
	return created.ID, nil
}

func formatTaskDescription(t Ticket, category, team string) string {
	var b strings.Builder
	b.WriteString("**Zoho Ticket Details**\n")
	fmt.Fprintf(&b, "- **Ticket ID**: %s\n", t.ID)
	fmt.Fprintf(&b, "- **Status**: %s\n", t.Status)
	fmt.Fprintf(&b, "- **Priority**: %s\n", t.Priority)
	fmt.Fprintf(&b, "- **Created**: %s\n", t.CreatedTime.Format("2006-01-02 15:04:05"))
	email := t.Email
	if email == "" {
		email = "N/A"
	}
	fmt.Fprintf(&b, "- **Contact Email**: %s\n\n", email)
	fmt.Fprintf(&b, "**Category**: %s\n", category)
	fmt.Fprintf(&b, "**Assigned Team**: %s\n\n", team)
	fmt.Fprintf(&b, "**Original Description**:\n%s\n\n", t.Description)
	fmt.Fprintf(&b, "---\n*This task was automatically created from Zoho Desk ticket #%s*", t.ID)
	return b.String()
}

// mapPriority converts a Zoho priority label to ClickUp's 1-4 scale.
func mapPriority(zohoPriority string) int {
	switch zohoPriority {
	case "High":
		return 1
	case "Low":
		return 3
	default: // Normal, Medium, or unset
		return 2
	}
}
