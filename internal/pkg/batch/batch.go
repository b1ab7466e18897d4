package batch

// Failure is one item a batch write could not apply, with the reason as text.
type Failure[T any] struct {
	Item   T      `json:"item"`
	Reason string `json:"reason"`
}

// Result reports a best-effort batch write item by item instead of hiding partial failure.
type Result[T any] struct {
	Succeeded []T          `json:"succeeded"`
	Failed    []Failure[T] `json:"failed"`
}

func (r *Result[T]) Ok(item T) {
	r.Succeeded = append(r.Succeeded, item)
}

func (r *Result[T]) Fail(item T, err error) {
	r.Failed = append(r.Failed, Failure[T]{Item: item, Reason: err.Error()})
}

func (r Result[T]) HasFailures() bool {
	return len(r.Failed) > 0
}
