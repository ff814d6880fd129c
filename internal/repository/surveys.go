package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulsecheck/pulsecheck/internal/domain"
)

// SurveysRepository provides persistence helpers for survey entities.
type SurveysRepository struct {
	pool *pgxpool.Pool
}

const surveyColumns = `
    id,
    name,
    question,
    created_at,
    updated_at
`

// SurveyCreateParams bundles the fields required to create a survey.
type SurveyCreateParams struct {
	Name     string
	Question string
}

// SurveyListFilters encapsulates search and pagination options.
type SurveyListFilters struct {
	Query  *string
	Limit  int
	Cursor *SurveyCursor
}

// SurveyCursor allows stable pagination by created_at/id.
type SurveyCursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

// SurveyListResult returns the paginated payload.
type SurveyListResult struct {
	Items      []domain.Survey
	NextCursor *string
}

// Create inserts a new survey row and returns the stored entity.
func (r *SurveysRepository) Create(ctx context.Context, params SurveyCreateParams) (domain.Survey, error) {
	query := fmt.Sprintf(`
        INSERT INTO surveys (id, name, question)
        VALUES ($1,$2,$3)
        RETURNING %s
    `, surveyColumns)

	row := r.pool.QueryRow(ctx, query, uuid.NewString(), params.Name, params.Question)
	return scanSurvey(row)
}

// GetByID fetches a survey by its identifier.
func (r *SurveysRepository) GetByID(ctx context.Context, id string) (domain.Survey, error) {
	query := fmt.Sprintf(`SELECT %s FROM surveys WHERE id = $1`, surveyColumns)
	return r.getOne(ctx, query, id)
}

// GetByName fetches a survey by its unique name.
func (r *SurveysRepository) GetByName(ctx context.Context, name string) (domain.Survey, error) {
	query := fmt.Sprintf(`SELECT %s FROM surveys WHERE name = $1`, surveyColumns)
	return r.getOne(ctx, query, name)
}

func (r *SurveysRepository) getOne(ctx context.Context, query string, arg any) (domain.Survey, error) {
	survey, err := scanSurvey(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Survey{}, ErrNotFound
		}
		return domain.Survey{}, err
	}
	return survey, nil
}

// List returns surveys that match the provided filters.
func (r *SurveysRepository) List(ctx context.Context, filters SurveyListFilters) (SurveyListResult, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	} else if filters.Limit > 100 {
		filters.Limit = 100
	}

	where := make([]string, 0)
	args := make([]any, 0)
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.Query != nil && strings.TrimSpace(*filters.Query) != "" {
		q := "%" + strings.TrimSpace(*filters.Query) + "%"
		where = append(where, fmt.Sprintf("(name ILIKE %s OR question ILIKE %s)", arg(q), arg(q)))
	}
	if filters.Cursor != nil {
		cursorCreated := arg(filters.Cursor.CreatedAt)
		cursorID := arg(filters.Cursor.ID)
		where = append(where, fmt.Sprintf("(created_at, id) < (%s, %s)", cursorCreated, cursorID))
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(surveyColumns)
	queryBuilder.WriteString(" FROM surveys")
	if len(where) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(where, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT %d", filters.Limit))

	rows, err := r.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return SurveyListResult{}, err
	}
	defer rows.Close()

	items := make([]domain.Survey, 0)
	for rows.Next() {
		survey, err := scanSurvey(rows)
		if err != nil {
			return SurveyListResult{}, err
		}
		items = append(items, survey)
	}
	if err := rows.Err(); err != nil {
		return SurveyListResult{}, err
	}

	var nextCursor *string
	if len(items) == filters.Limit {
		last := items[len(items)-1]
		token, err := encodeCursor(SurveyCursor{CreatedAt: last.CreatedAt, ID: last.ID})
		if err != nil {
			return SurveyListResult{}, err
		}
		nextCursor = &token
	}

	return SurveyListResult{Items: items, NextCursor: nextCursor}, nil
}

func scanSurvey(row pgx.Row) (domain.Survey, error) {
	var survey domain.Survey
	err := row.Scan(
		&survey.ID,
		&survey.Name,
		&survey.Question,
		&survey.CreatedAt,
		&survey.UpdatedAt,
	)
	if err != nil {
		return domain.Survey{}, err
	}
	return survey, nil
}

func encodeCursor(c SurveyCursor) (string, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(payload), nil
}

// DecodeCursor parses a cursor token into a SurveyCursor.
func DecodeCursor(token string) (*SurveyCursor, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	var cursor SurveyCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor payload: %w", err)
	}
	return &cursor, nil
}
