package nps

import (
	"errors"
	"fmt"
	"testing"
)

func TestAddValidRange(t *testing.T) {
	for r := MinRating; r <= MaxRating; r++ {
		s := New[int]()
		if err := s.Add(1, r); err != nil {
			t.Fatalf("Add(1, %d) unexpected error: %v", r, err)
		}
		if s.Len() != 1 {
			t.Fatalf("Len() = %d after valid insert, want 1", s.Len())
		}
	}
}

func TestAddInvalidLeavesStateUnchanged(t *testing.T) {
	for _, r := range []Rating{-1, 11, 100, -42} {
		s := New[int]()
		if err := s.Add(7, 9); err != nil {
			t.Fatalf("seed insert: %v", err)
		}
		before := s.Score()

		err := s.Add(8, r)
		if err == nil {
			t.Fatalf("Add(8, %d) expected error", r)
		}
		var invalid *InvalidRatingError
		if !errors.As(err, &invalid) {
			t.Fatalf("error type = %T, want *InvalidRatingError", err)
		}
		if invalid.RespondentID != 8 || invalid.Rating != r {
			t.Fatalf("error carries (%v, %d), want (8, %d)", invalid.RespondentID, invalid.Rating, r)
		}
		if s.Len() != 1 {
			t.Fatalf("Len() = %d after rejected insert, want 1", s.Len())
		}
		if s.Score() != before {
			t.Fatalf("score changed after rejected insert: %d -> %d", before, s.Score())
		}
	}
}

func TestAddReplacesDuplicateRespondent(t *testing.T) {
	s := New[string]()
	if err := s.Add("r1", 10); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := s.Add("r1", 0); err != nil {
		t.Fatalf("replacement insert: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (same respondent id)", s.Len())
	}
	if got := s.Score(); got != -100 {
		t.Fatalf("Score() = %d after replacement, want -100", got)
	}
}

func TestScoreEmptySurvey(t *testing.T) {
	s := New[int]()
	if got := s.Score(); got != 0 {
		t.Fatalf("empty survey Score() = %d, want 0", got)
	}
}

func TestScoreMemoizationAndInvalidation(t *testing.T) {
	s := New[int]()
	if errs := s.AddAll([]Entry[int]{{1, 9}, {2, 8}, {3, 6}}); errs != nil {
		t.Fatalf("AddAll: %v", errs)
	}

	first := s.Score()
	if first != 0 {
		t.Fatalf("Score() = %d, want 0 (one promoter, one passive, one detractor)", first)
	}
	if again := s.Score(); again != first {
		t.Fatalf("repeated Score() = %d, want %d", again, first)
	}

	// A successful mutation must be visible on the next query.
	if err := s.Add(4, 10); err != nil {
		t.Fatalf("Add after score query: %v", err)
	}
	if got := s.Score(); got != 25 {
		t.Fatalf("Score() after mutation = %d, want 25", got)
	}
}

func TestAddAllCollectsEveryErrorInOrder(t *testing.T) {
	s := New[int]()
	entries := []Entry[int]{
		{1, 9},
		{2, 42}, // invalid
		{3, 7},
		{4, -3}, // invalid
		{5, 11}, // invalid
		{6, 0},
	}

	errs := s.AddAll(entries)
	if len(errs) != 3 {
		t.Fatalf("len(errs) = %d, want 3", len(errs))
	}
	wantIDs := []int{2, 4, 5}
	wantRatings := []Rating{42, -3, 11}
	for i, e := range errs {
		if e.RespondentID != wantIDs[i] || e.Rating != wantRatings[i] {
			t.Fatalf("errs[%d] = (%v, %d), want (%d, %d)", i, e.RespondentID, e.Rating, wantIDs[i], wantRatings[i])
		}
	}

	// Every valid entry must still be committed.
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 valid entries stored", s.Len())
	}
}

func TestAddAllSingleInvalidAmongValid(t *testing.T) {
	s := New[int]()
	entries := make([]Entry[int], 0, 10)
	for i := 1; i <= 9; i++ {
		entries = append(entries, Entry[int]{i, 8})
	}
	entries = append(entries, Entry[int]{10, 15})

	errs := s.AddAll(entries)
	if len(errs) != 1 {
		t.Fatalf("len(errs) = %d, want 1", len(errs))
	}
	if errs[0].RespondentID != 10 || errs[0].Rating != 15 {
		t.Fatalf("errs[0] = (%v, %d), want (10, 15)", errs[0].RespondentID, errs[0].Rating)
	}
	if s.Len() != 9 {
		t.Fatalf("Len() = %d, want 9", s.Len())
	}
}

func TestFromEntries(t *testing.T) {
	s, errs := FromEntries([]Entry[int]{{1, 10}, {2, 9}, {3, 9}, {4, 8}, {5, 7}, {6, 6}})
	if errs != nil {
		t.Fatalf("FromEntries: %v", errs)
	}
	if s.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", s.Len())
	}
	// 3 promoters, 2 passives, 1 detractor: round((2/6)*100) = 33.
	if got := s.Score(); got != 33 {
		t.Fatalf("Score() = %d, want 33", got)
	}
}

func TestFromEntriesDiscardsOnFailure(t *testing.T) {
	s, errs := FromEntries([]Entry[string]{{"a", 9}, {"b", 12}})
	if s != nil {
		t.Fatalf("expected nil survey on partial failure, got %d entries", s.Len())
	}
	if len(errs) != 1 {
		t.Fatalf("len(errs) = %d, want 1", len(errs))
	}
}

func TestAddBulkCustomGenerator(t *testing.T) {
	groups := []RatingCount{
		{1, 2}, {4, 1}, {5, 2}, {7, 8}, {8, 10}, {10, 10},
	}

	s := New[string]()
	n := 0
	src := IDSourceFunc[string](func() string {
		n++
		return fmt.Sprintf("customer_%d", n)
	})

	if errs := s.AddBulk(src, groups); errs != nil {
		t.Fatalf("AddBulk: %v", errs)
	}
	if s.Len() != 33 {
		t.Fatalf("Len() = %d, want 33", s.Len())
	}
	// P=10, D=5, N=33: round(15.15...) = 15.
	if got := s.Score(); got != 15 {
		t.Fatalf("Score() = %d, want 15", got)
	}
}

func TestAddBulkZeroQuantityIsNoop(t *testing.T) {
	s := New[int]()
	calls := 0
	src := IDSourceFunc[int](func() int {
		calls++
		return calls
	})

	if errs := s.AddBulk(src, []RatingCount{{9, 0}, {3, 0}}); errs != nil {
		t.Fatalf("AddBulk: %v", errs)
	}
	if calls != 0 {
		t.Fatalf("generator invoked %d times for zero quantities, want 0", calls)
	}
	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", s.Len())
	}
}

func TestAddBulkCollectsErrorsAcrossGroups(t *testing.T) {
	s := New[int]()
	src := Sequence[int]()

	groups := []RatingCount{{9, 2}, {12, 3}, {7, 1}}
	errs := s.AddBulk(src, groups)
	if len(errs) != 3 {
		t.Fatalf("len(errs) = %d, want 3 (one per generated id in the invalid group)", len(errs))
	}
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 valid responses committed", s.Len())
	}
}

func TestAddBulkAutoIDDenseIDs(t *testing.T) {
	groups := []RatingCount{{1, 2}, {4, 1}, {5, 2}, {7, 8}, {8, 10}, {10, 10}}
	const total = 33

	s := New[int64]()
	if errs := AddBulkAutoID(s, groups); errs != nil {
		t.Fatalf("AddBulkAutoID: %v", errs)
	}

	entries := s.Entries()
	if len(entries) != total {
		t.Fatalf("len(entries) = %d, want %d", len(entries), total)
	}
	for i, e := range entries {
		if e.RespondentID != int64(i+1) {
			t.Fatalf("entries[%d].RespondentID = %d, want %d (dense ids 1..Q)", i, e.RespondentID, i+1)
		}
	}
	if got := s.Score(); got != 15 {
		t.Fatalf("Score() = %d, want 15", got)
	}
}

func TestBreakdownPartitionCompleteness(t *testing.T) {
	s := New[int]()
	ratings := []Rating{10, 9, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0}
	for i, r := range ratings {
		if err := s.Add(i+1, r); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	b := s.Breakdown()
	if b.Promoters != 3 || b.Passives != 2 || b.Detractors != 7 {
		t.Fatalf("Breakdown() = %+v, want 3/2/7", b)
	}
	if b.Total() != s.Len() {
		t.Fatalf("partition total = %d, want %d", b.Total(), s.Len())
	}
}

func TestSegment(t *testing.T) {
	s := New[string]()
	entries := []Entry[string]{
		{"r1", 10}, {"r2", 9}, {"r3", 9},
		{"r4", 8}, {"r5", 7},
		{"r6", 6}, {"r7", 5}, {"r8", 4}, {"r9", 3},
	}
	if errs := s.AddAll(entries); errs != nil {
		t.Fatalf("AddAll: %v", errs)
	}

	if got := len(s.Segment(Promoter)); got != 3 {
		t.Fatalf("promoters = %d, want 3", got)
	}
	if got := len(s.Segment(Passive)); got != 2 {
		t.Fatalf("passives = %d, want 2", got)
	}
	detractors := s.Segment(Detractor)
	if len(detractors) != 4 {
		t.Fatalf("detractors = %d, want 4", len(detractors))
	}
	if detractors[0].RespondentID != "r6" {
		t.Fatalf("detractors not ordered by id: first = %q", detractors[0].RespondentID)
	}
}

func TestBreakdownScoreRounding(t *testing.T) {
	tests := []struct {
		name string
		b    Breakdown
		want int
	}{
		{"empty", Breakdown{}, 0},
		{"all promoters", Breakdown{Promoters: 5}, 100},
		{"all detractors", Breakdown{Detractors: 5}, -100},
		{"balanced", Breakdown{Promoters: 1, Passives: 1, Detractors: 1}, 0},
		// 1/8 = 12.5%: halves round away from zero.
		{"positive half", Breakdown{Promoters: 1, Passives: 7}, 13},
		{"negative half", Breakdown{Detractors: 1, Passives: 7}, -13},
		{"mixed segments", Breakdown{Promoters: 10, Passives: 18, Detractors: 5}, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.b.Score(); got != tt.want {
				t.Fatalf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func BenchmarkSurveyScore(b *testing.B) {
	s := New[int64]()
	if errs := AddBulkAutoID(s, []RatingCount{{0, 1000}, {7, 1000}, {10, 1000}}); errs != nil {
		b.Fatalf("seed survey: %v", errs)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%100 == 0 {
			// Force a recompute every so often; the rest hit the memo.
			if err := s.Add(int64(i), 9); err != nil {
				b.Fatalf("Add: %v", err)
			}
		}
		_ = s.Score()
	}
}
