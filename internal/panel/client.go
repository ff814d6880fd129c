// Package panel talks to an external respondent-panel provider that collects
// survey answers on our behalf. The import endpoint pulls batches from here
// and runs them through the usual validation pipeline.
package panel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pulsecheck/pulsecheck/internal/nps"
)

// ErrNotFound is returned when upstream has no batch for the requested survey.
var ErrNotFound = errors.New("panel: not found")

// Client defines the contract for pulling responses from the panel provider.
type Client interface {
	Fetch(ctx context.Context, surveyName string) ([]nps.Entry[string], error)
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	logger  *log.Logger
}

// NewHTTPClient constructs a new HTTP-backed panel client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *log.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = log.Default()
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse panel url: %w", err)
	}
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

// Fetch retrieves the pending response batch for a survey.
func (c *HTTPClient) Fetch(ctx context.Context, surveyName string) ([]nps.Entry[string], error) {
	rel := &url.URL{Path: "/responses"}
	q := rel.Query()
	q.Set("survey", surveyName)
	rel.RawQuery = q.Encode()
	endpoint := c.baseURL.ResolveReference(rel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode panel response: %w", err)
		}
		return convertToEntries(payload), nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		c.logger.Printf("panel: unexpected status %d for survey %q", resp.StatusCode, surveyName)
		return nil, fmt.Errorf("panel: upstream returned %d", resp.StatusCode)
	}
}

type apiResponse struct {
	Survey    string         `json:"survey"`
	Responses []responseItem `json:"responses"`
}

type responseItem struct {
	RespondentID *string `json:"respondentId"`
	Rating       int     `json:"rating"`
}

// convertToEntries maps the wire payload onto nps entries. Items without a
// respondent id get a positional fallback so a sloppy provider cannot make
// two anonymous answers collapse into one. Ratings pass through untouched;
// validation happens downstream.
func convertToEntries(payload apiResponse) []nps.Entry[string] {
	entries := make([]nps.Entry[string], 0, len(payload.Responses))
	for i, item := range payload.Responses {
		id := fmt.Sprintf("panel-%d", i+1)
		if item.RespondentID != nil && *item.RespondentID != "" {
			id = *item.RespondentID
		}
		entries = append(entries, nps.Entry[string]{
			RespondentID: id,
			Rating:       nps.Rating(item.Rating),
		})
	}
	return entries
}
