// Package errors provides custom error types for the gamedex system.
// These errors enable programmatic error checking and carry enough
// diagnostic context for an operator to act on a failed extraction.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the gamedex system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrNoConfidentMatch indicates fuzzy matching found no candidate above threshold
	ErrNoConfidentMatch = errors.New("no confident match")

	// ErrDuplicateResolution indicates two distinct source records mapped to one code
	// in a context that requires uniqueness
	ErrDuplicateResolution = errors.New("duplicate resolution")

	// ErrMalformedSource indicates an expected structural marker was absent from a source
	ErrMalformedSource = errors.New("malformed source")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceUnavailable indicates that an external source is temporarily unavailable
	ErrSourceUnavailable = errors.New("source unavailable")
)

// NoConfidentMatchError reports a fuzzy lookup whose best candidate fell
// below the acceptance threshold. Closest and Similarity identify the
// nearest candidate for diagnostics.
type NoConfidentMatchError struct {
	Input      string
	Closest    string
	Similarity float64
}

// Error implements the error interface
func (e *NoConfidentMatchError) Error() string {
	if e.Closest != "" {
		return fmt.Sprintf("no confident match for %q (closest: %q at %.3f)", e.Input, e.Closest, e.Similarity)
	}
	return fmt.Sprintf("no confident match for %q", e.Input)
}

// Is implements errors.Is support
func (e *NoConfidentMatchError) Is(target error) bool {
	return target == ErrNoConfidentMatch
}

// DuplicateResolutionError reports two distinct raw records resolving to the
// same canonical code where uniqueness was required. This is an aliasing bug
// in code or the fixes ledger, never a tolerable data anomaly.
type DuplicateResolutionError struct {
	Code   string
	First  string
	Second string
}

// Error implements the error interface
func (e *DuplicateResolutionError) Error() string {
	return fmt.Sprintf("records %q and %q both resolved to code %q", e.First, e.Second, e.Code)
}

// Is implements errors.Is support
func (e *DuplicateResolutionError) Is(target error) bool {
	return target == ErrDuplicateResolution
}

// MalformedSourceError reports a missing structural marker in an external
// source: the source format has changed and partial processing would
// silently corrupt data.
type MalformedSourceError struct {
	Source string
	Marker string
	Err    error
}

// Error implements the error interface
func (e *MalformedSourceError) Error() string {
	return fmt.Sprintf("source %s: expected %s not found", e.Source, e.Marker)
}

// Unwrap implements errors.Unwrap
func (e *MalformedSourceError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *MalformedSourceError) Is(target error) bool {
	return target == ErrMalformedSource
}

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// APIError represents an error from an external source API
type APIError struct {
	Source     string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Source, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Source, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	if e.StatusCode >= 500 {
		return target == ErrSourceUnavailable
	}
	return false
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", "html"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "delete"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNoConfidentMatch checks if an error is a failed fuzzy match
func IsNoConfidentMatch(err error) bool {
	return errors.Is(err, ErrNoConfidentMatch)
}

// IsDuplicateResolution checks if an error is a duplicate resolution error
func IsDuplicateResolution(err error) bool {
	return errors.Is(err, ErrDuplicateResolution)
}

// IsMalformedSource checks if an error indicates a changed source format
func IsMalformedSource(err error) bool {
	return errors.Is(err, ErrMalformedSource)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Message: err.Error(), Err: err}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Message: err.Error(), Err: err}
}

// WrapAPI wraps an error as an APIError
func WrapAPI(source string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}
