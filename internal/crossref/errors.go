package crossref

import (
	"errors"
	"fmt"

	"github.com/litreview/lit/internal/batch"
)

// Common errors returned by the Crossref client.
var (
	// ErrNotFound indicates a search returned no works.
	ErrNotFound = errors.New("not found in Crossref")

	// ErrRateLimited indicates the polite pool limit was exceeded.
	ErrRateLimited = errors.New("Crossref rate limit exceeded")

	// ErrNetworkError indicates the request never produced a response.
	ErrNetworkError = errors.New("network error communicating with Crossref")

	// ErrInvalidResponse indicates a body without the expected JSON keys.
	ErrInvalidResponse = errors.New("invalid response from Crossref")
)

// NetworkError wraps a transport failure. It matches ErrNetworkError.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetworkError
}

// APIError is a non-200 answer from the Crossref API.
type APIError struct {
	StatusCode int
	DOI        string
}

func (e *APIError) Error() string {
	if e.DOI != "" {
		return fmt.Sprintf("Crossref API error (status %d) for %s", e.StatusCode, e.DOI)
	}
	return fmt.Sprintf("Crossref API error (status %d)", e.StatusCode)
}

// IsNotFound returns true if the error means the work does not exist.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 429
}

// ClassifyLookup maps a LookupDOI error to the failure text written to the
// validation report.
func ClassifyLookup(err error) *batch.Failure {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		kind := batch.FailureHTTP
		if apiErr.StatusCode == 404 {
			kind = batch.FailureNotFound
		}
		return &batch.Failure{Kind: kind, Message: fmt.Sprintf("HTTP Error: %d", apiErr.StatusCode), Err: err}
	case errors.Is(err, ErrNetworkError):
		return &batch.Failure{Kind: batch.FailureNetwork, Message: "Request Error: " + err.Error(), Err: err}
	case errors.Is(err, ErrInvalidResponse):
		return &batch.Failure{Kind: batch.FailureInvalidResponse, Message: "Error: " + err.Error(), Err: err}
	default:
		return batch.DefaultClassifier(err)
	}
}

// Title search outcomes as written to the DOI column of the search report.
const (
	StatusNotFound      = "DOI not found"
	StatusFetchError    = "Error fetching DOI"
	StatusResponseError = "Error processing response"
)

// ClassifySearch maps a SearchTitle error to a search report status.
func ClassifySearch(err error) *batch.Failure {
	switch {
	case errors.Is(err, ErrNotFound):
		return &batch.Failure{Kind: batch.FailureNotFound, Message: StatusNotFound, Err: err}
	case errors.Is(err, ErrInvalidResponse):
		return &batch.Failure{Kind: batch.FailureInvalidResponse, Message: StatusResponseError, Err: err}
	default:
		kind := batch.FailureNetwork
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			kind = batch.FailureHTTP
		}
		return &batch.Failure{Kind: kind, Message: StatusFetchError, Err: err}
	}
}
