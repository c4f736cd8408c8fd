package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrStore           = errors.New("store failure")
	ErrDependencyCycle = errors.New("dependency cycle")
)

const (
	EntityProject = "project"
	EntityFeature = "feature"
	EntityPBI     = "pbi"
)

// NotFoundError reports a missing entity or a missing required parent.
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func NewNotFound(entity string, id uuid.UUID) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError reports input that fails a declared constraint.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + " " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// StoreError wraps a persistence failure such as a lost connection or a
// violated constraint.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error { return []error{ErrStore, e.Err} }

// CycleError is returned when guarded dependency checks find that blocker
// already depends on the PBI, directly or transitively.
type CycleError struct {
	PBIID     uuid.UUID
	BlockerID uuid.UUID
}

func (e *CycleError) Error() string {
	if e.PBIID == e.BlockerID {
		return fmt.Sprintf("pbi %s cannot block itself", e.PBIID)
	}
	return fmt.Sprintf("pbi %s is already blocked, directly or transitively, by %s", e.BlockerID, e.PBIID)
}

func (e *CycleError) Unwrap() []error { return []error{ErrDependencyCycle, ErrValidation} }
