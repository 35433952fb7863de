// Package errs holds the error taxonomy shared by the valuation engine and the quote resolver.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput marks a parameter that is zero or negative where a positive value is required.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidInstrument marks an instrument id that does not match the numeric code pattern.
	ErrInvalidInstrument = errors.New("invalid instrument id")
	// ErrProviderUnavailable marks a single data source failure (timeout, network, bad status, bad document).
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrParseAmbiguous marks a reachable response whose numeric field could not be isolated.
	ErrParseAmbiguous = errors.New("parse ambiguous")
	// ErrNoDataFound marks a fully exhausted provider chain.
	ErrNoDataFound = errors.New("no data found")
)

// InvalidInput builds an ErrInvalidInput with the offending field.
func InvalidInput(field string, value float64, reason string) error {
	return fmt.Errorf("%w: %s=%g: %s", ErrInvalidInput, field, value, reason)
}

// ProviderError is a failure captured at the adapter boundary of one provider.
type ProviderError struct {
	Provider string
	Venue    string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Venue != "" {
		return fmt.Sprintf("provider %s [%s]: %v", e.Provider, e.Venue, e.Err)
	}
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Unavailable wraps err as an outage of provider.
func Unavailable(provider, venue string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Venue: venue, Err: fmt.Errorf("%w: %v", ErrProviderUnavailable, err)}
}

// Ambiguous reports that provider answered but the value could not be isolated.
func Ambiguous(provider, venue, detail string) *ProviderError {
	return &ProviderError{Provider: provider, Venue: venue, Err: fmt.Errorf("%w: %s", ErrParseAmbiguous, detail)}
}

// NoData reports a structurally valid response that carried nothing usable.
func NoData(provider, venue, detail string) *ProviderError {
	return &ProviderError{Provider: provider, Venue: venue, Err: fmt.Errorf("%w: %s", ErrNoDataFound, detail)}
}

// AttemptKind classifies a failed provider attempt.
type AttemptKind string

const (
	KindUnavailable    AttemptKind = "unavailable"
	KindParseAmbiguous AttemptKind = "parse_ambiguous"
	KindNoData         AttemptKind = "no_data"
	KindCanceled       AttemptKind = "canceled"
)

// Attempt records one provider that was tried and why it did not answer.
type Attempt struct {
	Provider string      `json:"provider"`
	Kind     AttemptKind `json:"kind"`
	Reason   string      `json:"reason"`
}

// Classify maps a provider failure onto an AttemptKind.
func Classify(err error) AttemptKind {
	switch {
	case errors.Is(err, ErrParseAmbiguous):
		return KindParseAmbiguous
	case errors.Is(err, ErrNoDataFound):
		return KindNoData
	default:
		return KindUnavailable
	}
}

// ExhaustedError is returned when every provider of a chain failed.
type ExhaustedError struct {
	Chain    string
	ID       string
	Attempts []Attempt
	Reason   string
}

func (e *ExhaustedError) Error() string {
	msg := fmt.Sprintf("%s %s: no provider answered (attempted: %s)", e.Chain, e.ID, strings.Join(e.AttemptedSources(), ", "))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *ExhaustedError) Unwrap() error { return ErrNoDataFound }

// AttemptedSources returns the provider names in the order they were tried.
func (e *ExhaustedError) AttemptedSources() []string {
	out := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		out = append(out, a.Provider)
	}
	return out
}
