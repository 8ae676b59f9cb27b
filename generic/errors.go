/*
errors.go - Centralized error types for the reporting engine

PURPOSE:
  The engine itself degrades bad data to safe defaults and never fails.
  Errors come from the layers around it: ingestion of the raw feed,
  the institution table loader, and persistence. They share these
  sentinels so the API can map them to HTTP statuses.

ERROR CATEGORIES:
  1. Feed errors - Unreadable or headerless input files
  2. Configuration errors - Invalid institution group tables
  3. Store errors - Missing records

USAGE:
    if errors.Is(err, generic.ErrRecordNotFound) {
        // 404
    }
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrRecordNotFound is returned when no course run has the requested unique ID.
	ErrRecordNotFound = errors.New("record not found")

	// ErrEmptyFeed is returned when an input file has no header row.
	ErrEmptyFeed = errors.New("empty feed")

	// ErrUnknownColumn is returned when a required column is absent from a feed header.
	ErrUnknownColumn = errors.New("required column missing")

	// ErrInvalidGroupTable is returned when an institution group table is malformed.
	ErrInvalidGroupTable = errors.New("invalid institution group table")

	// ErrInvalidYear is returned when a requested report year is outside 2021-2026.
	ErrInvalidYear = errors.New("year outside reporting window")

	// ErrUnsupportedFormat is returned for feed files that are neither CSV nor XLSX.
	ErrUnsupportedFormat = errors.New("unsupported feed format")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ParseError locates a bad cell in an input feed.
type ParseError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d, field %s (%q): %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// GroupTableError describes which group in a table is invalid.
type GroupTableError struct {
	Group  string
	Reason string
}

func (e *GroupTableError) Error() string {
	return fmt.Sprintf("institution group %q: %s", e.Group, e.Reason)
}

func (e *GroupTableError) Unwrap() error { return ErrInvalidGroupTable }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) ||
		errors.Is(err, ErrEmptyFeed) ||
		errors.Is(err, ErrUnknownColumn) ||
		errors.Is(err, ErrInvalidGroupTable) ||
		errors.Is(err, ErrInvalidYear) ||
		errors.Is(err, ErrUnsupportedFormat)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}
