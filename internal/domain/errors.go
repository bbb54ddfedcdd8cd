package domain

import "fmt"

// RefreshErrorKind classifies a failed refresh.
type RefreshErrorKind string

const (
	// KindUpstreamUnavailable: one of the external fetches failed. The store
	// was not touched.
	KindUpstreamUnavailable RefreshErrorKind = "external data source unavailable"
	// KindPersistenceFailure: the reconciliation transaction failed and was
	// rolled back in full.
	KindPersistenceFailure RefreshErrorKind = "internal server error"
)

// RefreshError is the single classified error a refresh returns. Status is
// the HTTP-equivalent classification (503 upstream, 500 persistence).
type RefreshError struct {
	Kind   RefreshErrorKind
	Status int
	Detail string
	Err    error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// NewUpstreamError classifies a failed external fetch, naming the source.
func NewUpstreamError(source string, err error) *RefreshError {
	return &RefreshError{
		Kind:   KindUpstreamUnavailable,
		Status: 503,
		Detail: fmt.Sprintf("fetch from %s failed: %v", source, err),
		Err:    err,
	}
}

// NewPersistenceError classifies a failed reconciliation transaction.
func NewPersistenceError(err error) *RefreshError {
	return &RefreshError{
		Kind:   KindPersistenceFailure,
		Status: 500,
		Detail: fmt.Sprintf("reconciliation failed: %v", err),
		Err:    err,
	}
}
