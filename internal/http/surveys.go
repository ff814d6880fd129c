package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pulsecheck/pulsecheck/internal/domain"
	"github.com/pulsecheck/pulsecheck/internal/nps"
	"github.com/pulsecheck/pulsecheck/internal/panel"
	"github.com/pulsecheck/pulsecheck/internal/repository"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type responseEntryRequest struct {
	RespondentID string `json:"respondentId"`
	Rating       int    `json:"rating"`
}

type surveyCreateRequest struct {
	Name      string                 `json:"name"`
	Question  string                 `json:"question"`
	Responses []responseEntryRequest `json:"responses"`
}

type surveyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Question  string    `json:"question"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type surveyListResponse struct {
	Items      []surveyResponse `json:"items"`
	NextCursor *string          `json:"nextCursor,omitempty"`
}

type ratingRequest struct {
	Rating int `json:"rating"`
}

type responseResponse struct {
	SurveyName   string `json:"surveyName"`
	RespondentID string `json:"respondentId"`
	Rating       int    `json:"rating"`
}

type batchRequest struct {
	Responses []responseEntryRequest `json:"responses"`
}

type bulkGroupRequest struct {
	Rating   int  `json:"rating"`
	Quantity uint `json:"quantity"`
}

type bulkRequest struct {
	Groups []bulkGroupRequest `json:"groups"`
}

type ingestResponse struct {
	Accepted int `json:"accepted"`
}

type scoreResponse struct {
	Score  int  `json:"score"`
	Cached bool `json:"cached"`
}

type breakdownResponse struct {
	Promoters  int `json:"promoters"`
	Passives   int `json:"passives"`
	Detractors int `json:"detractors"`
	Total      int `json:"total"`
	Score      int `json:"score"`
}

type validationDetail struct {
	RespondentID interface{} `json:"respondentId"`
	Rating       int         `json:"rating"`
	Message      string      `json:"message"`
}

func (s *Server) handleListSurveys(w http.ResponseWriter, r *http.Request) {
	filters, err := buildSurveyFilters(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	result, err := s.repo.Surveys.List(r.Context(), filters)
	if err != nil {
		s.logger.Printf("list surveys error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list surveys")
		return
	}

	items := make([]surveyResponse, 0, len(result.Items))
	for _, survey := range result.Items {
		items = append(items, toSurveyResponse(survey))
	}

	resp := surveyListResponse{Items: items}
	if result.NextCursor != nil {
		resp.NextCursor = result.NextCursor
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func buildSurveyFilters(query url.Values) (repository.SurveyListFilters, error) {
	var filters repository.SurveyListFilters

	if q := strings.TrimSpace(query.Get("q")); q != "" {
		filters.Query = &q
	}
	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		limit, err := strconv.Atoi(val)
		if err != nil {
			return filters, fmt.Errorf("invalid limit value")
		}
		filters.Limit = limit
	}
	if val := strings.TrimSpace(query.Get("cursor")); val != "" {
		cursor, err := repository.DecodeCursor(val)
		if err != nil {
			return filters, fmt.Errorf("invalid cursor")
		}
		filters.Cursor = cursor
	}
	return filters, nil
}

func (s *Server) handleCreateSurvey(w http.ResponseWriter, r *http.Request) {
	if !s.verifyBearer(r.Header.Get("Authorization")) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	var req surveyCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Question) == "" {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name and question are required")
		return
	}

	// Seed responses are all-or-nothing: a single invalid rating aborts the
	// whole request and no survey row is created.
	var seed *nps.Survey[string]
	if len(req.Responses) > 0 {
		built, errs := nps.FromEntries(toEntries(req.Responses))
		if errs != nil {
			s.respondValidationErrors(w, errs)
			return
		}
		seed = built
	}

	survey, err := s.repo.Surveys.Create(r.Context(), repository.SurveyCreateParams{
		Name:     strings.TrimSpace(req.Name),
		Question: strings.TrimSpace(req.Question),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			s.respondError(w, http.StatusConflict, "CONFLICT", "A survey with this name already exists")
			return
		}
		s.logger.Printf("create survey error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create survey")
		return
	}

	if seed != nil {
		if _, err := s.repo.Responses.UpsertBatch(r.Context(), survey.ID, seed.Entries()); err != nil {
			s.logger.Printf("seed responses error: %v", err)
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store initial responses")
			return
		}
	}

	location := fmt.Sprintf("/surveys/%s", url.PathEscape(survey.Name))
	w.Header().Set("Location", location)
	s.respondJSON(w, http.StatusCreated, toSurveyResponse(survey))
}

func (s *Server) handleGetSurvey(w http.ResponseWriter, r *http.Request) {
	survey, ok := s.surveyFromRequest(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, toSurveyResponse(survey))
}

func (s *Server) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	respondentID := strings.TrimSpace(r.Header.Get("X-Respondent-Id"))
	if respondentID == "" {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	survey, ok := s.surveyFromRequest(w, r)
	if !ok {
		return
	}

	var req ratingRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	rating := nps.Rating(req.Rating)
	if !rating.Valid() {
		s.respondValidationErrors(w, nps.ValidationErrors{
			{RespondentID: respondentID, Rating: rating},
		})
		return
	}

	resp, inserted, err := s.repo.Responses.Upsert(r.Context(), repository.ResponseUpsertParams{
		SurveyID:     survey.ID,
		RespondentID: respondentID,
		Rating:       rating,
	})
	if err != nil {
		s.logger.Printf("upsert response error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store response")
		return
	}

	s.invalidateScore(r.Context(), survey.ID)

	status := http.StatusOK
	if inserted {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, responseResponse{
		SurveyName:   survey.Name,
		RespondentID: resp.RespondentID,
		Rating:       int(resp.Rating),
	})
}

func (s *Server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	survey, ok := s.surveyFromRequest(w, r)
	if !ok {
		return
	}

	var req batchRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if len(req.Responses) == 0 {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "responses must not be empty")
		return
	}

	scratch := nps.New[string]()
	errs := scratch.AddAll(toEntries(req.Responses))
	s.commitScratch(w, r.Context(), survey.ID, scratch, errs)
}

func (s *Server) handleSubmitBulk(w http.ResponseWriter, r *http.Request) {
	survey, ok := s.surveyFromRequest(w, r)
	if !ok {
		return
	}

	var req bulkRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if len(req.Groups) == 0 {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "groups must not be empty")
		return
	}

	// Generated respondent ids continue after the stored response count so
	// repeated bulk submissions never overwrite earlier generated rows.
	count, err := s.repo.Responses.Count(r.Context(), survey.ID)
	if err != nil {
		s.logger.Printf("count responses error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store responses")
		return
	}

	next := count
	src := nps.IDSourceFunc[string](func() string {
		next++
		return fmt.Sprintf("gen-%d", next)
	})

	groups := make([]nps.RatingCount, 0, len(req.Groups))
	for _, g := range req.Groups {
		groups = append(groups, nps.RatingCount{Rating: nps.Rating(g.Rating), Count: g.Quantity})
	}

	scratch := nps.New[string]()
	errs := scratch.AddBulk(src, groups)
	s.commitScratch(w, r.Context(), survey.ID, scratch, errs)
}

func (s *Server) handleImportFromPanel(w http.ResponseWriter, r *http.Request) {
	if s.panel == nil {
		s.respondError(w, http.StatusServiceUnavailable, "PANEL_UNAVAILABLE", "No panel provider is configured")
		return
	}

	survey, ok := s.surveyFromRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(s.cfg.PanelTimeoutSecs)*time.Second)
	defer cancel()

	entries, err := s.panel.Fetch(ctx, survey.Name)
	if err != nil {
		if errors.Is(err, panel.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Panel has no responses for this survey")
			return
		}
		s.logger.Printf("panel fetch failed for %s: %v", survey.Name, err)
		s.respondError(w, http.StatusBadGateway, "PANEL_ERROR", "Failed to fetch responses from panel")
		return
	}

	scratch := nps.New[string]()
	errs := scratch.AddAll(entries)
	s.commitScratch(w, r.Context(), survey.ID, scratch, errs)
}

// commitScratch persists whatever a scratch survey accepted and reports the
// collected validation errors. Valid entries are committed even when the
// request as a whole fails validation; the 422 body lists every rejected
// entry in input order.
func (s *Server) commitScratch(w http.ResponseWriter, ctx context.Context, surveyID string, scratch *nps.Survey[string], errs nps.ValidationErrors) {
	accepted := 0
	if scratch.Len() > 0 {
		n, err := s.repo.Responses.UpsertBatch(ctx, surveyID, scratch.Entries())
		if err != nil {
			s.logger.Printf("batch upsert error: %v", err)
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store responses")
			return
		}
		accepted = n
		s.invalidateScore(ctx, surveyID)
	}

	if errs != nil {
		s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    "VALIDATION_ERROR",
			Message: fmt.Sprintf("%d invalid responses (%d accepted)", len(errs), accepted),
			Details: toValidationDetails(errs),
		})
		return
	}
	s.respondJSON(w, http.StatusOK, ingestResponse{Accepted: accepted})
}

func (s *Server) handleGetScore(w http.ResponseWriter, r *http.Request) {
	survey, ok := s.surveyFromRequest(w, r)
	if !ok {
		return
	}

	if s.scores != nil {
		if score, hit, err := s.scores.Get(r.Context(), survey.ID); err == nil && hit {
			s.respondJSON(w, http.StatusOK, scoreResponse{Score: score, Cached: true})
			return
		} else if err != nil {
			s.logger.Printf("score cache get error: %v", err)
		}
	}

	breakdown, err := s.repo.Responses.Breakdown(r.Context(), survey.ID)
	if err != nil {
		s.logger.Printf("breakdown error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute score")
		return
	}

	score := breakdown.Score()
	if s.scores != nil {
		if err := s.scores.Set(r.Context(), survey.ID, score); err != nil {
			s.logger.Printf("score cache set error: %v", err)
		}
	}
	s.respondJSON(w, http.StatusOK, scoreResponse{Score: score})
}

func (s *Server) handleGetBreakdown(w http.ResponseWriter, r *http.Request) {
	survey, ok := s.surveyFromRequest(w, r)
	if !ok {
		return
	}

	breakdown, err := s.repo.Responses.Breakdown(r.Context(), survey.ID)
	if err != nil {
		s.logger.Printf("breakdown error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute breakdown")
		return
	}

	s.respondJSON(w, http.StatusOK, breakdownResponse{
		Promoters:  breakdown.Promoters,
		Passives:   breakdown.Passives,
		Detractors: breakdown.Detractors,
		Total:      breakdown.Total(),
		Score:      breakdown.Score(),
	})
}

// surveyFromRequest resolves the {name} path parameter to a stored survey,
// writing the error response itself when resolution fails.
func (s *Server) surveyFromRequest(w http.ResponseWriter, r *http.Request) (domain.Survey, bool) {
	name, err := decodeNameParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return domain.Survey{}, false
	}

	survey, err := s.repo.Surveys.GetByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return domain.Survey{}, false
		}
		s.logger.Printf("fetch survey failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch survey")
		return domain.Survey{}, false
	}
	return survey, true
}

func (s *Server) invalidateScore(ctx context.Context, surveyID string) {
	if s.scores == nil {
		return
	}
	if err := s.scores.Invalidate(ctx, surveyID); err != nil {
		s.logger.Printf("score cache invalidate error: %v", err)
	}
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Printf("failed to encode response: %v", err)
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondValidationErrors(w http.ResponseWriter, errs nps.ValidationErrors) {
	s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("%d invalid responses", len(errs)),
		Details: toValidationDetails(errs),
	})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

func toSurveyResponse(survey domain.Survey) surveyResponse {
	return surveyResponse{
		ID:        survey.ID,
		Name:      survey.Name,
		Question:  survey.Question,
		CreatedAt: survey.CreatedAt,
		UpdatedAt: survey.UpdatedAt,
	}
}

func toEntries(items []responseEntryRequest) []nps.Entry[string] {
	entries := make([]nps.Entry[string], 0, len(items))
	for _, item := range items {
		entries = append(entries, nps.Entry[string]{
			RespondentID: item.RespondentID,
			Rating:       nps.Rating(item.Rating),
		})
	}
	return entries
}

func toValidationDetails(errs nps.ValidationErrors) []validationDetail {
	details := make([]validationDetail, 0, len(errs))
	for _, e := range errs {
		details = append(details, validationDetail{
			RespondentID: e.RespondentID,
			Rating:       int(e.Rating),
			Message:      e.Error(),
		})
	}
	return details
}

func decodeNameParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "name")
	if raw == "" {
		return "", fmt.Errorf("missing name parameter")
	}
	name, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("invalid name parameter")
	}
	return name, nil
}

func (s *Server) verifyBearer(header string) bool {
	if header == "" {
		return false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token == s.cfg.AuthToken
}
