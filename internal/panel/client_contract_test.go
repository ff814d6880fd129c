package panel

import (
	"context"
	"io"
	"log"
	"os"
	"testing"
	"time"
)

// TestHTTPClientSmoke checks the client against a live provider (or the
// panel-mock binary) when PANEL_URL is set.
func TestHTTPClientSmoke(t *testing.T) {
	baseURL := os.Getenv("PANEL_URL")
	if baseURL == "" {
		t.Skip("PANEL_URL not provided")
	}
	apiKey := os.Getenv("PANEL_API_KEY")
	client, err := NewHTTPClient(baseURL, apiKey, 3*time.Second, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("create http client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entries, err := client.Fetch(ctx, "q3-checkout")
	if err != nil {
		t.Fatalf("fetch panel batch: %v", err)
	}
	if len(entries) == 0 {
		t.Fatalf("expected at least one response from panel")
	}
}
