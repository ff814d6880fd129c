// Package nps computes Net Promoter Score metrics from survey responses.
//
// The central type is Survey, a generic in-memory aggregate keyed by a
// caller-chosen respondent id type. Surveys are not safe for concurrent use;
// callers that populate one from multiple goroutines must serialize access.
package nps

import (
	"cmp"
	"math"
	"slices"
)

// Entry pairs a respondent id with the rating they gave.
type Entry[T cmp.Ordered] struct {
	RespondentID T
	Rating       Rating
}

// RatingCount is a bulk-ingestion unit: a rating and how many respondents
// gave it. A Count of 0 is a no-op for that rating.
type RatingCount struct {
	Rating Rating
	Count  uint
}

// Survey accumulates validated responses and memoizes the computed score.
// The zero value is not usable; construct with New or FromEntries.
type Survey[T cmp.Ordered] struct {
	responses map[T]Rating

	// score is the memoized NPS value, nil while dirty. Every successful
	// mutation clears it; Score repopulates it lazily.
	score *int
}

// New returns an empty survey.
func New[T cmp.Ordered]() *Survey[T] {
	return &Survey[T]{responses: make(map[T]Rating)}
}

// FromEntries builds a survey from an initial response set. On any validation
// failure it returns only the collected errors, in input order; no partially
// populated survey is exposed.
func FromEntries[T cmp.Ordered](entries []Entry[T]) (*Survey[T], ValidationErrors) {
	s := New[T]()
	if errs := s.AddAll(entries); errs != nil {
		return nil, errs
	}
	return s, nil
}

// Add validates and stores a single response. It is the only path that
// mutates the response set: every other ingestion operation funnels through
// it. A rating outside [MinRating, MaxRating] is rejected without touching
// state. A response reusing an existing respondent id replaces the previous
// rating. On success the memoized score is invalidated.
func (s *Survey[T]) Add(id T, rating Rating) error {
	if !rating.Valid() {
		return &InvalidRatingError{RespondentID: id, Rating: rating}
	}
	s.responses[id] = rating
	s.score = nil
	return nil
}

// AddAll stores a batch of responses. It never stops at the first failure:
// every entry is attempted, every valid one is committed, and the returned
// list carries one error per invalid entry in input order. A nil return means
// the whole batch was accepted.
func (s *Survey[T]) AddAll(entries []Entry[T]) ValidationErrors {
	var errs ValidationErrors
	for _, e := range entries {
		if err := s.Add(e.RespondentID, e.Rating); err != nil {
			errs = append(errs, err.(*InvalidRatingError))
		}
	}
	return errs.orNil()
}

// AddBulk stores quantity-grouped responses, drawing a fresh respondent id
// from src for each unit. Error collection follows the AddAll policy: an
// invalid rating fails once per generated id and never halts the remaining
// groups.
func (s *Survey[T]) AddBulk(src IDSource[T], groups []RatingCount) ValidationErrors {
	var errs ValidationErrors
	for _, g := range groups {
		for i := uint(0); i < g.Count; i++ {
			if err := s.Add(src.NextID(), g.Rating); err != nil {
				errs = append(errs, err.(*InvalidRatingError))
			}
		}
	}
	return errs.orNil()
}

// Len returns the number of stored responses. Respondent ids are unique keys,
// so replaced responses count once.
func (s *Survey[T]) Len() int {
	return len(s.responses)
}

// Entries returns the stored responses ordered by respondent id.
func (s *Survey[T]) Entries() []Entry[T] {
	out := make([]Entry[T], 0, len(s.responses))
	for id, r := range s.responses {
		out = append(out, Entry[T]{RespondentID: id, Rating: r})
	}
	slices.SortFunc(out, func(a, b Entry[T]) int {
		return cmp.Compare(a.RespondentID, b.RespondentID)
	})
	return out
}

// Segment returns the responses in the given classification, ordered by
// respondent id.
func (s *Survey[T]) Segment(c Classification) []Entry[T] {
	var out []Entry[T]
	for _, e := range s.Entries() {
		if e.Rating.Classify() == c {
			out = append(out, e)
		}
	}
	return out
}

// Score returns the Net Promoter Score, an integer in [-100, 100]. A survey
// with no responses scores 0. The value is memoized between mutations:
// repeated queries return the cached result without recomputation.
func (s *Survey[T]) Score() int {
	if s.score != nil {
		return *s.score
	}
	score := s.Breakdown().Score()
	s.score = &score
	return score
}

// Breakdown counts responses per segment. It is computed fresh on every call,
// independent of the score memo.
func (s *Survey[T]) Breakdown() Breakdown {
	var b Breakdown
	for _, r := range s.responses {
		switch r.Classify() {
		case Promoter:
			b.Promoters++
		case Passive:
			b.Passives++
		default:
			b.Detractors++
		}
	}
	return b
}

// Breakdown holds the promoter/passive/detractor partition of a response set.
type Breakdown struct {
	Promoters  int
	Passives   int
	Detractors int
}

// Total returns the number of responses behind the breakdown.
func (b Breakdown) Total() int {
	return b.Promoters + b.Passives + b.Detractors
}

// Score computes the NPS from the partition: round(((P-D)/N)*100), with
// halves rounded away from zero. An empty breakdown scores 0.
func (b Breakdown) Score() int {
	n := b.Total()
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(b.Promoters-b.Detractors) * 100 / float64(n)))
}
