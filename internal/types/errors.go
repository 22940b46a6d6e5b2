package types

import (
	"errors"
	"fmt"
)

var (
	// ErrRINNotFound means the export endpoint answered but the RIN is not
	// part of the publication (placeholder or near-empty body).
	ErrRINNotFound = errors.New("rin not found in publication")

	// ErrNoAgenda means no Unified Agenda publication could be determined.
	ErrNoAgenda = errors.New("no agenda publications available")
)

// FetchError wraps any failure to retrieve or parse a RIN export. It is
// scoped to a single RIN and never aborts the run.
type FetchError struct {
	RIN string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.RIN, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StorageError wraps a snapshot read or write failure for one RIN.
type StorageError struct {
	RIN string
	Op  string // "load", "save" or "prune"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.RIN, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// DeliveryError wraps a notification transport failure. Snapshot writes
// are never rolled back because of one.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// ConfigError marks a fatal startup problem; the run never begins.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
