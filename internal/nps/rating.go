package nps

// Rating is a single survey answer on the standard 0-10 likelihood scale.
type Rating int

// Bounds of the valid rating range. Both ends are inclusive.
const (
	MinRating Rating = 0
	MaxRating Rating = 10
)

// Valid reports whether the rating lies inside [MinRating, MaxRating].
func (r Rating) Valid() bool {
	return r >= MinRating && r <= MaxRating
}

// Classification partitions respondents by their rating.
type Classification int

const (
	Detractor Classification = iota // rating 0-6
	Passive                         // rating 7-8
	Promoter                        // rating 9-10
)

// String returns the lowercase segment name.
func (c Classification) String() string {
	switch c {
	case Detractor:
		return "detractor"
	case Passive:
		return "passive"
	case Promoter:
		return "promoter"
	default:
		return "unknown"
	}
}

// Classify maps a valid rating onto its segment. The result is undefined for
// ratings outside the valid range; callers validate first.
func (r Rating) Classify() Classification {
	switch {
	case r >= 9:
		return Promoter
	case r >= 7:
		return Passive
	default:
		return Detractor
	}
}
