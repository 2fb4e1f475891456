package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const zohoTimeFormat = "2006-01-02T15:04:05.000Z"

// ZohoClient fetches tickets from Zoho Desk. Access tokens are obtained
// via the OAuth refresh-token flow and cached until shortly before expiry.
type ZohoClient struct {
	cfg        Config
	httpClient *http.Client

	// Overridable for tests.
	BaseURL  string
	TokenURL string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewZohoClient(cfg Config) *ZohoClient {
	return &ZohoClient{
		cfg:        cfg,
		httpClient: externalHTTPClient,
		BaseURL:    "https://desk.zoho.com/api/v1",
		TokenURL:   "https://accounts.zoho.com/oauth/v2/token",
	}
}

type zohoTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// token returns a cached access token, refreshing it when less than five
// minutes of validity remain.
func (z *ZohoClient) token(ctx context.Context) (string, error) {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.accessToken != "" && time.Now().Before(z.tokenExpiry) {
		return z.accessToken, nil
	}

	form := url.Values{
		"refresh_token": {z.cfg.ZohoRefreshToken},
		"client_id":     {z.cfg.ZohoClientID},
		"client_secret": {z.cfg.ZohoClientSecret},
		"grant_type":    {"refresh_token"},
	}
	req, err := http.NewRequestWithContext(ctx, "POST", z.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := z.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("refreshing token: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return "", fmt.Errorf("reading token response: %w", err)
	}
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("Zoho token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var tok zohoTokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("parsing token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("Zoho token endpoint returned empty access_token")
	}

	expiresIn := tok.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}
	z.accessToken = tok.AccessToken
	z.tokenExpiry = time.Now().Add(time.Duration(expiresIn-300) * time.Second)
	log.Println("Zoho access token refreshed")
	return z.accessToken, nil
}

type zohoTicketResponse struct {
	ID           string `json:"id"`
	Subject      string `json:"subject"`
	Description  string `json:"description"`
	Status       string `json:"status"`
	Priority     string `json:"priority"`
	CreatedTime  string `json:"createdTime"`
	ModifiedTime string `json:"modifiedTime"`
	ContactID    string `json:"contactId"`
	Contact      struct {
		Email string `json:"email"`
	} `json:"contact"`
}

type zohoTicketListResponse struct {
	Data []zohoTicketResponse `json:"data"`
	Next string               `json:"next"`
}

// FetchRecentTickets returns tickets modified within the lookback
// window, following Zoho's pagination links. Tickets that fail to parse
// are skipped with a warning.
func (z *ZohoClient) FetchRecentTickets(ctx context.Context, hoursBack int) ([]Ticket, error) {
	token, err := z.token(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := LookbackCutoff(time.Now().UTC(), hoursBack)
	apiURL := fmt.Sprintf("%s/tickets?limit=100&sortBy=modifiedTime&modifiedTime=%s&include=contacts",
		strings.TrimRight(z.BaseURL, "/"), url.QueryEscape(cutoff.Format(zohoTimeFormat)))

	var all []Ticket
	for apiURL != "" {
		req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", "Zoho-oauthtoken "+token)
		req.Header.Set("orgId", z.cfg.ZohoOrgID)

		resp, err := z.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching tickets: %w", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}
		// Zoho returns 204 with an empty body when no tickets match.
		if resp.StatusCode == http.StatusNoContent {
			break
		}
		if resp.StatusCode != 200 {
			return nil, fmt.Errorf("Zoho API returned %d: %s", resp.StatusCode, string(body))
		}

		var page zohoTicketListResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("parsing response: %w", err)
		}

		for _, raw := range page.Data {
			t, err := parseZohoTicket(raw)
			if err != nil {
				log.Printf("Failed to parse ticket %s: %v", raw.ID, err)
				continue
			}
			all = append(all, t)
		}
		log.Printf("Fetched %d tickets from current page", len(page.Data))

		apiURL = page.Next
	}

	log.Printf("Total tickets fetched: %d", len(all))
	return all, nil
}

func parseZohoTicket(raw zohoTicketResponse) (Ticket, error) {
	if raw.ID == "" {
		return Ticket{}, fmt.Errorf("missing ticket id")
	}
	created, err := time.Parse(time.RFC3339, raw.CreatedTime)
	if err != nil {
		return Ticket{}, fmt.Errorf("bad createdTime %q: %w", raw.CreatedTime, err)
	}
	modified, err := time.Parse(time.RFC3339, raw.ModifiedTime)
	if err != nil {
		return Ticket{}, fmt.Errorf("bad modifiedTime %q: %w", raw.ModifiedTime, err)
	}
	return Ticket{
		ID:           raw.ID,
		Subject:      raw.Subject,
		Description:  raw.Description,
		Status:       raw.Status,
		Priority:     raw.Priority,
		CreatedTime:  created,
		ModifiedTime: modified,
		ContactID:    raw.ContactID,
		Email:        raw.Contact.Email,
	}, nil
}
