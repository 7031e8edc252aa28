package models

import (
	"errors"
	"fmt"
)

// ErrPromptNotFound indicates an operation targeted a uuid with no stored prompt.
var ErrPromptNotFound = errors.New("prompt not found")

// ErrInvalidPrompt indicates a prompt failed validation before persistence.
var ErrInvalidPrompt = errors.New("invalid prompt")

// ErrInvalidResponse indicates a response failed validation before persistence.
var ErrInvalidResponse = errors.New("invalid response")

// StorageError wraps a transaction or I/O failure from the relational store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// CorruptionError indicates stored or legacy serialized data failed to parse.
type CorruptionError struct {
	Field string
	Err   error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("corrupt data in %s: %v", e.Field, e.Err)
}

func (e *CorruptionError) Unwrap() error { return e.Err }

// SchedulerError indicates notification scheduling or cancellation failed.
// The database write it accompanied may already be committed; callers get the
// partial state reported instead of a silent success.
type SchedulerError struct {
	PromptUUID string
	Op         string
	Err        error
}

func (e *SchedulerError) Error() string {
	return fmt.Sprintf("scheduler: %s for prompt %s: %v", e.Op, e.PromptUUID, e.Err)
}

func (e *SchedulerError) Unwrap() error { return e.Err }
