package service

import (
	"context"
	"errors"
	"fmt"

	"tpcc-service/internal/store"
)

// ErrorKind classifies engine failures
type ErrorKind int

const (
	// NotFound means a referenced warehouse, district, customer, order or item is absent
	NotFound ErrorKind = iota + 1
	// StorageFailure is any other backend error
	StorageFailure
	// ResourceExhausted means no database connection could be acquired in time
	ResourceExhausted
	// WorkerFailure means the transaction worker crashed or was cancelled
	WorkerFailure
	// SetupFailure is a schema or bulk load failure during Prepare
	SetupFailure
)

func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case StorageFailure:
		return "storage_failure"
	case ResourceExhausted:
		return "resource_exhausted"
	case WorkerFailure:
		return "worker_failure"
	case SetupFailure:
		return "setup_failure"
	}
	return "unknown"
}

// Error is an engine failure tagged with its kind and the failing operation
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of an engine error, or StorageFailure for untagged errors
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return StorageFailure
}

// classify tags a storage error with the kind callers can act on
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	kind := StorageFailure
	switch {
	case errors.Is(err, store.ErrNotFound):
		kind = NotFound
	case errors.Is(err, store.ErrPoolExhausted):
		kind = ResourceExhausted
	case errors.Is(err, store.ErrWorkerPanic),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		kind = WorkerFailure
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
