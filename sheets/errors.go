package sheets

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResponse is returned when the export endpoint answers with no content
	ErrEmptyResponse = errors.New("empty response")

	// ErrResponseTooLarge is returned when a body exceeds the configured cap
	ErrResponseTooLarge = errors.New("response too large")

	// ErrUnexpectedContent is returned when an export answers with HTML, typically a sign-in page for a private sheet
	ErrUnexpectedContent = errors.New("unexpected content type")

	// ErrNoHeader is returned when the configured header row is past the end of the data
	ErrNoHeader = errors.New("no header row")
)

// StatusError is a non-2xx answer from the spreadsheet endpoints
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// ParseError reports a malformed CSV record
type ParseError struct {
	Record int // 1-based record number in the CSV
	Err    error
}

func (e *ParseError) Error() string {
	if e.Record > 0 {
		return fmt.Sprintf("parse error at record %d: %v", e.Record, e.Err)
	}
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
