package httpserver

import (
	"net/url"
	"testing"
)

func FuzzBuildSurveyFilters(f *testing.F) {
	seeds := []string{
		"q=checkout&limit=20",
		"limit=abc",
		"cursor=eyJjcmVhdGVkQXQiOiIyMDI0LTAxLTAxVDAwOjAwOjAwWiIsImlkIjoiYSJ9",
		"",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		values, err := url.ParseQuery(raw)
		if err != nil {
			return
		}
		_, _ = buildSurveyFilters(values)
	})
}
