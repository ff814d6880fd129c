package domain

import (
	"time"

	"github.com/pulsecheck/pulsecheck/internal/nps"
)

// Survey is the canonical survey entity in the database/service.
type Survey struct {
	ID        string
	Name      string
	Question  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Response is a single stored answer to a survey.
type Response struct {
	SurveyID     string
	RespondentID string
	Rating       nps.Rating
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ScoreSummary carries the computed score alongside the segment counts it
// was derived from.
type ScoreSummary struct {
	Score     int
	Breakdown nps.Breakdown
}
