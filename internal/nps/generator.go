package nps

import "cmp"

// IDSource produces a fresh respondent id on every call. Implementations are
// typically stateful; bulk ingestion invokes NextID once per response unit.
type IDSource[T cmp.Ordered] interface {
	NextID() T
}

// IDSourceFunc adapts an ordinary function (usually a closure) to IDSource.
type IDSourceFunc[T cmp.Ordered] func() T

func (f IDSourceFunc[T]) NextID() T { return f() }

// SignedID constrains the respondent id types eligible for automatic
// sequential generation.
type SignedID interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Sequence returns an IDSource yielding 1, 2, 3, ... Ids are dense and
// distinct for the lifetime of the source; the counter is never reset.
func Sequence[T SignedID]() IDSource[T] {
	var next T
	return IDSourceFunc[T](func() T {
		next++
		return next
	})
}

// AddBulkAutoID is AddBulk specialized to signed-integer respondent ids: the
// generator starts at 1 and increments across the whole call, so a total
// quantity of Q yields exactly the ids 1..Q.
func AddBulkAutoID[T SignedID](s *Survey[T], groups []RatingCount) ValidationErrors {
	return s.AddBulk(Sequence[T](), groups)
}
