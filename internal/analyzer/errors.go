package analyzer

import "errors"

// ErrorKind classifies analysis failures for the orchestrator.
type ErrorKind string

const (
	// KindTransient covers timeouts, rate limits and 5xx responses; these
	// are retried internally before being surfaced.
	KindTransient ErrorKind = "transient"
	// KindAuth covers 401/403 responses. Not retried, and likely global:
	// the caller should stop the batch.
	KindAuth ErrorKind = "auth"
	// KindInvalidRequest covers other client errors. Not retried.
	KindInvalidRequest ErrorKind = "invalid_request"
	// KindParse means the model response did not match the required schema.
	// The article stays pending; the batch continues.
	KindParse ErrorKind = "parse"
	// KindNotConfigured means no API key is available.
	KindNotConfigured ErrorKind = "not_configured"
)

// Error is an analysis failure tagged with its kind.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an analyzer Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
