package results

// OperationResult carries either a success payload or a typed failure payload.
// Business failures (validation rejections, anti-cheat rejections) travel in
// Failure with a nil error at the call site; only infrastructure problems
// surface as Go errors.
type OperationResult[S any, F any] struct {
	Success *S
	Failure *F
}

// Successful wraps a success payload.
func Successful[S any, F any](payload S) OperationResult[S, F] {
	return OperationResult[S, F]{Success: &payload}
}

// Failed wraps a failure payload.
func Failed[S any, F any](payload F) OperationResult[S, F] {
	return OperationResult[S, F]{Failure: &payload}
}

// IsSuccess reports whether the operation produced a success payload.
func (r OperationResult[S, F]) IsSuccess() bool {
	return r.Success != nil
}

// IsFailure reports whether the operation produced a failure payload.
func (r OperationResult[S, F]) IsFailure() bool {
	return r.Failure != nil
}
