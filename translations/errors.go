package translations

import (
	"database/sql"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const storeErrorCode = "STORE_ERROR"

// ValidationError reports a caller-supplied field that is invalid or refers
// to missing reference data.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports a missing record.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// ConflictError reports a second live translation for the same key and
// locale.
type ConflictError struct {
	Key      string
	LocaleID uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("translation %q already exists for locale %s", e.Key, e.LocaleID)
}

// IsStoreError reports whether err is a wrapped storage failure.
func IsStoreError(err error) bool {
	var richErr *goerrors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == storeErrorCode
}

func storeError(err error, op string) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, "translation store: "+op).
		WithTextCode(storeErrorCode)
}

// classifyStoreError maps driver constraint violations onto the domain
// taxonomy and wraps everything else as a store error. Errors that are
// already typed pass through.
func classifyStoreError(err error, op string, in CreateInput) error {
	if err == nil {
		return nil
	}

	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		conflictErr   *ConflictError
	)
	if errors.As(err, &validationErr) || errors.As(err, &notFoundErr) || errors.As(err, &conflictErr) {
		return err
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return &ConflictError{Key: in.Key, LocaleID: in.LocaleID}
		case sqlite3.ErrConstraintForeignKey:
			return &ValidationError{Field: "locale_id", Message: "references a missing locale or tag"}
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return &ConflictError{Key: in.Key, LocaleID: in.LocaleID}
		case "23503":
			return &ValidationError{Field: "locale_id", Message: "references a missing locale or tag"}
		}
	}

	return storeError(err, op)
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}

	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) || errors.Is(err, sql.ErrNoRows) {
		return &NotFoundError{
			Resource: resource,
			Key:      key,
		}
	}

	return storeError(err, resource)
}
