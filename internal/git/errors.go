package git

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var (
	// ErrNotFound is returned when a ref or object id does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrRepositoryUnavailable is returned once a handle was invalidated.
	ErrRepositoryUnavailable = errors.New("repository not available")
	// ErrUnsupported marks a tree scan over more than two trees.
	ErrUnsupported = errors.New("unsupported tree walk")
	// ErrPartialResult marks a file list that may be incomplete.
	ErrPartialResult = errors.New("partial result")
)

// StoreError wraps a failed read against the object store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// PartialResultError carries the cause of an incomplete merge projection.
type PartialResultError struct {
	Commit string
	Err    error
}

func (e *PartialResultError) Error() string {
	return fmt.Sprintf("partial result for %s: %v", e.Commit, e.Err)
}

func (e *PartialResultError) Unwrap() []error {
	return []error{ErrPartialResult, e.Err}
}

// IsPartial reports whether err only signals an incomplete file list.
func IsPartial(err error) bool {
	return errors.Is(err, ErrPartialResult)
}

func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isMissing(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	}
	return &StoreError{Op: op, Err: err}
}

func isMissing(err error) bool {
	return errors.Is(err, plumbing.ErrReferenceNotFound) ||
		errors.Is(err, plumbing.ErrObjectNotFound) ||
		errors.Is(err, object.ErrFileNotFound) ||
		errors.Is(err, object.ErrEntryNotFound) ||
		errors.Is(err, object.ErrDirectoryNotFound)
}
