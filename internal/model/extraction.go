package model

import "time"

// Extraction is the result of processing one sheet URL end to end:
// fetch, payload location, decoding and table reconstruction.
//
// Design decision: We use a single struct that every pipeline step fills in,
// rather than passing step outputs as return values. Steps stay independent
// and the caller gets partial data (page size, payload length) even when a
// later step fails.
type Extraction struct {
	// URL is the document URL that was processed.
	URL string `json:"url"`

	// DateExtracted is when processing started.
	DateExtracted time.Time `json:"date_extracted"`

	// PageSize is the length in bytes of the fetched page markup.
	PageSize int `json:"page_size"`

	// Page is the fetched markup. Excluded from JSON due to size.
	Page string `json:"-"`

	// Payload is the located script payload. Excluded from JSON due to size.
	Payload string `json:"-"`

	// Record is the decoded payload.
	Record *Record `json:"-"`

	// Table is the reconstructed table. It is never nil; failed or empty
	// extractions carry an empty table.
	Table *Table `json:"table"`

	// Diagnostics lists placement commands dropped during reconstruction.
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`

	// ExcludedStyle is the style group removed by the header/label filter.
	ExcludedStyle string `json:"excluded_style,omitempty"`

	// FragmentCount is the number of fragments extracted from the action log.
	FragmentCount int `json:"fragment_count"`

	// Fingerprint is a content hash of the table used for change detection.
	Fingerprint string `json:"fingerprint,omitempty"`

	// PerformedSteps lists the pipeline steps that completed.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// TimedOut is true if processing was cancelled.
	TimedOut bool `json:"timed_out"`

	// Error contains the error that stopped processing, if any.
	Error error `json:"-"`

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewExtraction creates an extraction for the given URL with an empty table.
func NewExtraction(url string) *Extraction {
	return &Extraction{
		URL:           url,
		DateExtracted: time.Now(),
		Table:         NewEmptyTable(),
	}
}

// Failed reports whether a pipeline step recorded an error.
func (e *Extraction) Failed() bool {
	return e.Error != nil
}

// SetError records err as the reason processing stopped.
func (e *Extraction) SetError(err error) {
	e.Error = err
	if err != nil {
		e.ErrorMessage = err.Error()
	}
}
