package credstore

import (
	"context"
	"errors"
	"fmt"
)

// Record names one persisted credential value.
type Record string

const (
	RecordAccessToken  Record = "access_token"
	RecordRefreshToken Record = "refresh_token"
	RecordIdentity     Record = "identity"
)

// Records lists every known record in a stable order.
var Records = []Record{RecordAccessToken, RecordRefreshToken, RecordIdentity}

// Valid reports whether r is one of the well-known records.
func (r Record) Valid() bool {
	switch r {
	case RecordAccessToken, RecordRefreshToken, RecordIdentity:
		return true
	}
	return false
}

// Store reads and writes credential records.
type Store interface {
	// Put persists value under record, replacing any previous value.
	Put(ctx context.Context, record Record, value string) error

	// Get returns the stored value. ok is false when the record is unset or
	// its stored content cannot be interpreted as a record.
	Get(ctx context.Context, record Record) (value string, ok bool, err error)

	// Delete removes the record. Deleting an unset record is not an error.
	Delete(ctx context.Context, record Record) error
}

// ErrStorage matches every *StorageError via errors.Is.
var ErrStorage = errors.New("credential storage failure")

// StorageError reports an I/O failure unrelated to record absence.
type StorageError struct {
	Op     string
	Record Record
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Record, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrStorage) hold for any StorageError.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func storageErr(op string, record Record, err error) error {
	return &StorageError{Op: op, Record: record, Err: err}
}

func checkRecord(op string, record Record) error {
	if !record.Valid() {
		return storageErr(op, record, fmt.Errorf("unknown record %q", string(record)))
	}
	return nil
}
