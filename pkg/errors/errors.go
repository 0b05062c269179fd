// Package errors provides the error taxonomy for fieldmap.
// Every typed error maps onto one of a few sentinels so callers can
// branch with errors.Is without knowing the concrete type.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is and As mirror the standard library so callers need one import.
var (
	Is = errors.Is
	As = errors.As
)

// Sentinel errors.
var (
	// ErrNotFound indicates that a requested area, region or item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMalformedData indicates that loaded or imported data has the wrong shape.
	ErrMalformedData = errors.New("malformed data")

	// ErrEmptyDataset indicates a catalog with no areas.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrStorageUnavailable indicates the durable storage could not be read or written.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInvalidInput indicates that a caller supplied an invalid argument.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoAreaSelected indicates an operation that needs a current area.
	// It matches ErrNotFound as well.
	ErrNoAreaSelected = fmt.Errorf("no area selected: %w", ErrNotFound)
)

// NotFoundError represents an error when a resource is not found.
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// Is implements errors.Is support.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// MalformedDataError represents data that does not match the expected shape.
type MalformedDataError struct {
	Source  string // "catalog", "backup", "overlay", "storage"
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *MalformedDataError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed %s: field %s: %s", e.Source, e.Field, e.Message)
	}
	return fmt.Sprintf("malformed %s: %s", e.Source, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *MalformedDataError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *MalformedDataError) Is(target error) bool {
	return target == ErrMalformedData
}

// NewMalformedDataError creates a new MalformedDataError.
func NewMalformedDataError(source, field, message string) *MalformedDataError {
	return &MalformedDataError{Source: source, Field: field, Message: message}
}

// EmptyDatasetError is returned when a catalog has nothing to index.
type EmptyDatasetError struct {
	Source string
}

// Error implements the error interface.
func (e *EmptyDatasetError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("dataset %s contains no areas", e.Source)
	}
	return "dataset contains no areas"
}

// Is implements errors.Is support.
func (e *EmptyDatasetError) Is(target error) bool {
	return target == ErrEmptyDataset
}

// StorageError represents a failed read or write against a storage backend.
type StorageError struct {
	Operation string // "get", "set", "delete", "open", "close"
	Backend   string
	Key       string
	Err       error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %s of %s failed: %v", e.Backend, e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s %s failed: %v", e.Backend, e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

// NewStorageError creates a new StorageError.
func NewStorageError(operation, backend, key string, err error) *StorageError {
	return &StorageError{Operation: operation, Backend: backend, Key: key, Err: err}
}

// ValidationError represents an invalid argument.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// ParseError represents an error when decoding a data format.
// Parse failures are malformed data as far as callers are concerned.
type ParseError struct {
	Format  string // "json", "lz4"
	File    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedData
}

// NewParseError creates a new ParseError.
func NewParseError(format, file, message string, err error) *ParseError {
	return &ParseError{Format: format, File: file, Message: message, Err: err}
}

// IOError represents an error during file or network I/O.
type IOError struct {
	Operation string // "read", "write", "fetch", "rename"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError.
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{Operation: operation, Path: path, Message: message, Err: err}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsMalformedData checks if an error reports malformed data.
func IsMalformedData(err error) bool {
	return errors.Is(err, ErrMalformedData)
}

// IsEmptyDataset checks if an error reports an empty catalog.
func IsEmptyDataset(err error) bool {
	return errors.Is(err, ErrEmptyDataset)
}

// IsStorageUnavailable checks if an error came from a storage backend.
func IsStorageUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// Helper wrapping functions for common patterns

// WrapStorage wraps an error as a StorageError.
func WrapStorage(operation, backend, key string, err error) error {
	if err == nil {
		return nil
	}
	return NewStorageError(operation, backend, key, err)
}

// WrapIO wraps an error as an IOError.
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError.
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapMalformed wraps an error as a MalformedDataError.
func WrapMalformed(source, field string, err error) error {
	if err == nil {
		return nil
	}
	return &MalformedDataError{Source: source, Field: field, Message: err.Error(), Err: err}
}
