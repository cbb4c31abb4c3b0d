package site

import "errors"

// TransientError marks a retry-eligible fetch failure: server errors
// and network-level faults. The source nondeterministically 500s on a
// few percent of pages and has occasional full-site outages.
type TransientError struct {
	Reason string
	Err    error
}

// Error returns the error message.
func (e *TransientError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

// Unwrap returns the underlying error.
func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError marks a fetch that will never yield data. Callers
// skip the page immediately without retrying.
type PermanentError struct {
	Reason string
	Err    error
}

// Error returns the error message.
func (e *PermanentError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

// Unwrap returns the underlying error.
func (e *PermanentError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a retry-eligible fetch failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err is a non-retryable fetch failure.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
