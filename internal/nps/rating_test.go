package nps

import "testing"

func TestRatingValid(t *testing.T) {
	for r := MinRating; r <= MaxRating; r++ {
		if !r.Valid() {
			t.Fatalf("Rating(%d).Valid() = false, want true", r)
		}
	}
	for _, r := range []Rating{-1, 11, 255} {
		if r.Valid() {
			t.Fatalf("Rating(%d).Valid() = true, want false", r)
		}
	}
}

func TestRatingClassify(t *testing.T) {
	tests := []struct {
		rating Rating
		want   Classification
	}{
		{0, Detractor}, {3, Detractor}, {6, Detractor},
		{7, Passive}, {8, Passive},
		{9, Promoter}, {10, Promoter},
	}
	for _, tt := range tests {
		if got := tt.rating.Classify(); got != tt.want {
			t.Fatalf("Rating(%d).Classify() = %s, want %s", tt.rating, got, tt.want)
		}
	}
}

func TestSequenceStartsAtOne(t *testing.T) {
	src := Sequence[int32]()
	for want := int32(1); want <= 5; want++ {
		if got := src.NextID(); got != want {
			t.Fatalf("NextID() = %d, want %d", got, want)
		}
	}
}
