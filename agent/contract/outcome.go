package contract

// Outcome is the result of a call to an external collaborator: either the
// collaborator's value, or a fallback value plus the reason it was used.
type Outcome[T any] struct {
	Value  T
	Reason error
}

func Success[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

func Degraded[T any](fallback T, reason error) Outcome[T] {
	if reason == nil {
		reason = ErrDownstream
	}
	return Outcome[T]{Value: fallback, Reason: reason}
}

func (o Outcome[T]) IsDegraded() bool {
	return o.Reason != nil
}
