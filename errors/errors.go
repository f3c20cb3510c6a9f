/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a document or row is not found
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when attempting to create an entity that already exists
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrInvalidInput is returned when an argument is rejected before any store call
	ErrInvalidInput = errors.New("invalid input")

	// ErrConditionFailed is returned when an ETag or version precondition fails
	ErrConditionFailed = errors.New("condition check failed")

	// ErrConfiguration is returned for invalid container, table or partition key setup
	ErrConfiguration = errors.New("invalid configuration")

	// ErrState is returned when a fluent builder is used out of order
	ErrState = errors.New("invalid builder state")

	// ErrPartitionKeyMismatch is returned when a batch document does not belong to its bucket
	ErrPartitionKeyMismatch = errors.New("partition key mismatch")

	// ErrPartialFailure is returned when a multi-item operation only partly succeeded
	ErrPartialFailure = errors.New("partial failure")

	// ErrNoEntityType is returned when no discriminator is registered for a type
	ErrNoEntityType = errors.New("no entity type registered for type")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when an entity already exists
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents an argument error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConditionFailedError represents a failed conditional operation
type ConditionFailedError struct {
	Operation string
	Condition string
}

func (e *ConditionFailedError) Error() string {
	return fmt.Sprintf("condition check failed for %s operation: %s", e.Operation, e.Condition)
}

func (e *ConditionFailedError) Is(target error) bool {
	return target == ErrConditionFailed
}

// ConfigurationError is raised synchronously, before any store call, and is never retried.
type ConfigurationError struct {
	Setting string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Setting != "" {
		return fmt.Sprintf("invalid configuration for %s: %s", e.Setting, e.Message)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Message)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// StateError reports a fluent builder invoked out of order.
type StateError struct {
	Builder string
	Message string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Builder, e.Message)
}

func (e *StateError) Is(target error) bool {
	return target == ErrState
}

// PartitionKeyMismatchError reports a batch document whose partition key differs from its bucket.
type PartitionKeyMismatchError struct {
	Container string
	Expected  string
	Actual    string
}

func (e *PartitionKeyMismatchError) Error() string {
	return fmt.Sprintf("partition key mismatch in container %q: bucket key is %s, got %s", e.Container, e.Expected, e.Actual)
}

func (e *PartitionKeyMismatchError) Is(target error) bool {
	return target == ErrPartitionKeyMismatch
}

// StoreError wraps a failure reported by a document or relational store.
// The original error stays reachable through errors.As.
type StoreError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *StoreError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusNotFound:
		return target == ErrNotFound
	case http.StatusConflict:
		return target == ErrAlreadyExists
	case http.StatusPreconditionFailed:
		return target == ErrConditionFailed
	}
	return false
}

// DeleteAllError aggregates per-document failures of a partition purge.
// The partition is left in whatever partially deleted state resulted.
type DeleteAllError struct {
	Container    string
	PartitionKey string
	Total        int
	FailureCount int
	// FailedIDs holds at most the first 10 failed ids.
	FailedIDs []string
	// First is the first failure encountered.
	First error
}

func (e *DeleteAllError) Error() string {
	msg := fmt.Sprintf("failed to delete %d of %d documents in container %q partition %s: %s",
		e.FailureCount, e.Total, e.Container, e.PartitionKey, strings.Join(e.FailedIDs, ", "))
	if e.FailureCount > len(e.FailedIDs) {
		msg += fmt.Sprintf(" (and %d more)", e.FailureCount-len(e.FailedIDs))
	}
	return msg
}

func (e *DeleteAllError) Is(target error) bool {
	return target == ErrPartialFailure
}

func (e *DeleteAllError) Unwrap() error {
	return e.First
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(entityType, key string) error {
	return &AlreadyExistsError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewConditionFailedError creates a new ConditionFailedError
func NewConditionFailedError(operation, condition string) error {
	return &ConditionFailedError{Operation: operation, Condition: condition}
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(setting, message string) error {
	return &ConfigurationError{Setting: setting, Message: message}
}

// NewStateError creates a new StateError
func NewStateError(builder, message string) error {
	return &StateError{Builder: builder, Message: message}
}

// NewPartitionKeyMismatchError creates a new PartitionKeyMismatchError
func NewPartitionKeyMismatchError(container, expected, actual string) error {
	return &PartitionKeyMismatchError{Container: container, Expected: expected, Actual: actual}
}

// NewStoreError creates a new StoreError. A nil err yields nil.
func NewStoreError(op string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, StatusCode: statusCode, Err: err}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConditionFailed checks if an error is a condition failed error
func IsConditionFailed(err error) bool {
	return errors.Is(err, ErrConditionFailed)
}

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsState checks if an error is a builder state error
func IsState(err error) bool {
	return errors.Is(err, ErrState)
}

// IsPartitionKeyMismatch checks if an error is a partition key mismatch
func IsPartitionKeyMismatch(err error) bool {
	return errors.Is(err, ErrPartitionKeyMismatch)
}

// IsPartialFailure checks if an error is an aggregate partial failure
func IsPartialFailure(err error) bool {
	return errors.Is(err, ErrPartialFailure)
}

// StatusCode returns the store status code carried by err, or 0.
func StatusCode(err error) int {
	var se *StoreError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsAlreadyExists(err):
		return http.StatusConflict
	case IsConditionFailed(err):
		return http.StatusPreconditionFailed
	}
	return 0
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
