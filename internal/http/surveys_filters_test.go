package httpserver

import (
	"net/url"
	"testing"

	"github.com/pulsecheck/pulsecheck/internal/config"
)

func TestBuildSurveyFilters(t *testing.T) {
	values, _ := url.ParseQuery("q= checkout &limit=50")

	filters, err := buildSurveyFilters(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filters.Query == nil || *filters.Query != "checkout" {
		t.Fatalf("query not trimmed: %+v", filters.Query)
	}
	if filters.Limit != 50 {
		t.Fatalf("limit not parsed: %d", filters.Limit)
	}
}

func TestBuildSurveyFilters_InvalidLimit(t *testing.T) {
	values, _ := url.ParseQuery("limit=abc")
	if _, err := buildSurveyFilters(values); err == nil {
		t.Fatalf("expected error for invalid limit")
	}
}

func TestBuildSurveyFilters_InvalidCursor(t *testing.T) {
	values, _ := url.ParseQuery("cursor=!!!not-base64!!!")
	if _, err := buildSurveyFilters(values); err == nil {
		t.Fatalf("expected error for invalid cursor")
	}
}

func TestVerifyBearer(t *testing.T) {
	srv := &Server{cfg: config.Config{AuthToken: "secret"}}
	cases := []struct {
		header  string
		allowed bool
	}{
		{"Bearer secret", true},
		{"Bearer secret ", true},
		{"Bearer other", false},
		{"secret", false},
		{"", false},
	}
	for _, c := range cases {
		if srv.verifyBearer(c.header) != c.allowed {
			t.Fatalf("verifyBearer(%q) expected %v", c.header, c.allowed)
		}
	}
}
