package ingestion

import "errors"

// ErrIngestion marks every failure to obtain a bill from the parser.
var ErrIngestion = errors.New("bill ingestion failed")

// TransientError is a Gemini call that failed for a reason outside the bill itself:
// rate limiting, a 5xx or a dropped connection. Sending the same image again may work.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string { return "gemini unavailable: " + e.err.Error() }
func (e *TransientError) Unwrap() error { return e.err }

// FatalError is a failure that sending the same image again will reproduce: a rejected
// request, a reply with no bill in it, or a bill that does not decode.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string { return e.err.Error() }
func (e *FatalError) Unwrap() error { return e.err }

// NewTransientError marks err as worth another Gemini attempt.
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// NewFatalError marks err as final for this image.
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// IsTransient reports whether the parser should back off and resend the image.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}
