// Package errs holds the error taxonomy of a monitoring run.
//
// Call sites wrap errors with fmt.Errorf as usual and mark them with one of the
// sentinels below, so the orchestrator and main can branch with Is.
package errs

import (
	cr "github.com/cockroachdb/errors"
)

var (
	// ErrNetwork marks catalog requests that failed after all retries.
	ErrNetwork = cr.New("network error")
	// ErrParse marks a catalog response that cannot be decoded.
	ErrParse = cr.New("parse error")
	// ErrDelivery marks a notification the transport refused.
	ErrDelivery = cr.New("delivery error")
	// ErrStorage marks a failed read or write of the persisted snapshot.
	ErrStorage = cr.New("storage error")
)

// Mark tags err with the given sentinel. A nil err yields the sentinel itself.
func Mark(err error, mark error) error {
	if err == nil {
		return mark
	}

	return cr.Mark(err, mark)
}

// Is reports whether err carries the mark (or wraps it).
func Is(err, mark error) bool {
	return cr.Is(err, mark)
}
