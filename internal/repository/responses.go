package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulsecheck/pulsecheck/internal/domain"
	"github.com/pulsecheck/pulsecheck/internal/nps"
)

// ResponsesRepository provides helpers for survey responses.
type ResponsesRepository struct {
	pool *pgxpool.Pool
}

// ResponseUpsertParams captures the payload required to upsert a response.
// Ratings are validated in the nps package before they reach persistence;
// the rating CHECK constraint on the table is a backstop, not the gate.
type ResponseUpsertParams struct {
	SurveyID     string
	RespondentID string
	Rating       nps.Rating
}

// Upsert inserts or updates a response and indicates whether it was newly created.
func (r *ResponsesRepository) Upsert(ctx context.Context, params ResponseUpsertParams) (domain.Response, bool, error) {
	const query = `
        INSERT INTO responses (survey_id, respondent_id, rating)
        VALUES ($1,$2,$3)
        ON CONFLICT (survey_id, respondent_id)
        DO UPDATE SET rating = EXCLUDED.rating, updated_at = now()
        RETURNING survey_id, respondent_id, rating, created_at, updated_at, (xmax = 0) AS inserted
    `

	var resp domain.Response
	var inserted bool
	err := r.pool.QueryRow(ctx, query, params.SurveyID, params.RespondentID, int(params.Rating)).Scan(
		&resp.SurveyID,
		&resp.RespondentID,
		&resp.Rating,
		&resp.CreatedAt,
		&resp.UpdatedAt,
		&inserted,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Response{}, false, ErrNotFound
		}
		return domain.Response{}, false, err
	}

	return resp, inserted, nil
}

// UpsertBatch stores a set of already-validated entries in a single
// transaction. Entries reusing a respondent id replace the stored rating.
func (r *ResponsesRepository) UpsertBatch(ctx context.Context, surveyID string, entries []nps.Entry[string]) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin batch upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
        INSERT INTO responses (survey_id, respondent_id, rating)
        VALUES ($1,$2,$3)
        ON CONFLICT (survey_id, respondent_id)
        DO UPDATE SET rating = EXCLUDED.rating, updated_at = now()
    `

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(query, surveyID, e.RespondentID, int(e.Rating))
	}

	results := tx.SendBatch(ctx, batch)
	for range entries {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, fmt.Errorf("batch upsert: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit batch upsert: %w", err)
	}
	return len(entries), nil
}

// Get retrieves a response for a specific respondent/survey combination.
func (r *ResponsesRepository) Get(ctx context.Context, surveyID, respondentID string) (domain.Response, error) {
	const query = `
        SELECT survey_id, respondent_id, rating, created_at, updated_at
        FROM responses
        WHERE survey_id = $1 AND respondent_id = $2
    `
	var resp domain.Response
	err := r.pool.QueryRow(ctx, query, surveyID, respondentID).Scan(
		&resp.SurveyID,
		&resp.RespondentID,
		&resp.Rating,
		&resp.CreatedAt,
		&resp.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Response{}, ErrNotFound
		}
		return domain.Response{}, err
	}
	return resp, nil
}

// Count returns the number of stored responses for a survey.
func (r *ResponsesRepository) Count(ctx context.Context, surveyID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM responses WHERE survey_id = $1`, surveyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return count, nil
}

// ListBySurvey returns every response for a survey ordered by respondent id.
func (r *ResponsesRepository) ListBySurvey(ctx context.Context, surveyID string) ([]nps.Entry[string], error) {
	const query = `
        SELECT respondent_id, rating
        FROM responses
        WHERE survey_id = $1
        ORDER BY respondent_id
    `
	rows, err := r.pool.Query(ctx, query, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]nps.Entry[string], 0)
	for rows.Next() {
		var e nps.Entry[string]
		if err := rows.Scan(&e.RespondentID, &e.Rating); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Breakdown returns the promoter/passive/detractor counts for a survey.
func (r *ResponsesRepository) Breakdown(ctx context.Context, surveyID string) (nps.Breakdown, error) {
	const query = `
        SELECT COUNT(*) FILTER (WHERE rating >= 9)                   AS promoters,
               COUNT(*) FILTER (WHERE rating BETWEEN 7 AND 8)        AS passives,
               COUNT(*) FILTER (WHERE rating <= 6)                   AS detractors
        FROM responses
        WHERE survey_id = $1
    `

	var b nps.Breakdown
	err := r.pool.QueryRow(ctx, query, surveyID).Scan(&b.Promoters, &b.Passives, &b.Detractors)
	if err != nil {
		return nps.Breakdown{}, fmt.Errorf("breakdown responses: %w", err)
	}
	return b, nil
}
