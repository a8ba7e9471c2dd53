// Package apperr defines the sentinel error taxonomy shared across every
// component, following the teacher's storage.ErrNotFound convention:
// components wrap these sentinels with fmt.Errorf("<component>: <op>: %w").
package apperr

import "errors"

// ErrNotFound is returned when a requested scorecard, score, feedback item,
// or identifier does not resolve (spec §7 "NotFound").
var ErrNotFound = errors.New("not found")

// ErrValidation is returned for invalid input: bad days/date range, missing
// scorecard, mismatched feedback_id identity (spec §7 "Validation").
var ErrValidation = errors.New("validation")

// ErrTransport wraps network/auth failures surfaced from the remote client
// (spec §7 "Transport"). Components propagate the underlying error wrapped
// with this sentinel so callers can classify it with errors.Is.
var ErrTransport = errors.New("transport")
