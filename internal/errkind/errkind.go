// Package errkind defines the typed error kinds shared across the vecstore
// core. Every fallible operation in the core returns one of these, never a
// bare sentinel, so callers can branch on structured fields the way
// pkg/maia/errors.go and internal/tenant/errors.go do in the wider codebase.
package errkind

import (
	"errors"
	"fmt"
)

// DimensionMismatchError is returned when a vector's length does not match
// the table's fixed dimension D.
type DimensionMismatchError struct {
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

// NumericDomainError is returned when a vector or query contains NaN or an
// infinite component.
type NumericDomainError struct {
	Reason string
}

func (e *NumericDomainError) Error() string {
	return fmt.Sprintf("numeric domain violation: %s", e.Reason)
}

// UnknownIDError is returned when an operation targets a record ID that does
// not exist in the store.
type UnknownIDError struct {
	ID uint64
}

func (e *UnknownIDError) Error() string {
	return fmt.Sprintf("unknown record id: %d", e.ID)
}

// UnknownIndexError is returned when an index name referenced by use_index
// or create_*_index is absent (or, for creation, already taken).
type UnknownIndexError struct {
	Name string
}

func (e *UnknownIndexError) Error() string {
	return fmt.Sprintf("unknown index: %q", e.Name)
}

// IncompatibleIndexError is returned when an index type/metric combination
// is illegal, e.g. KDTree+cosine or LSH+euclidean.
type IncompatibleIndexError struct {
	IndexType string
	Metric    string
}

func (e *IncompatibleIndexError) Error() string {
	return fmt.Sprintf("incompatible index: %s does not support metric %s", e.IndexType, e.Metric)
}

// SchemaViolationError is returned when a payload field's type does not
// match the table schema, or an unknown field is present under a strict
// schema.
type SchemaViolationError struct {
	Field  string
	Reason string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("schema violation on field %q: %s", e.Field, e.Reason)
}

// EmbeddingMissingError is returned when add() omits a vector and there is
// nothing to auto-embed: the payload has no non-empty "text" field and its
// configured text fields are empty too, or no embedder is configured.
type EmbeddingMissingError struct{}

func (e *EmbeddingMissingError) Error() string {
	return "auto-embedding requested but payload has no non-empty \"text\" field"
}

// CapacityOrParameterError covers out-of-range or nonsensical parameters:
// n_probe > n_lists, negative k, empty text query, and similar.
type CapacityOrParameterError struct {
	Reason string
}

func (e *CapacityOrParameterError) Error() string {
	return fmt.Sprintf("invalid capacity or parameter: %s", e.Reason)
}

// IsDimensionMismatch reports whether err is (or wraps) a DimensionMismatchError.
func IsDimensionMismatch(err error) bool {
	var e *DimensionMismatchError
	return errors.As(err, &e)
}

// IsNumericDomain reports whether err is (or wraps) a NumericDomainError.
func IsNumericDomain(err error) bool {
	var e *NumericDomainError
	return errors.As(err, &e)
}

// IsUnknownID reports whether err is (or wraps) an UnknownIDError.
func IsUnknownID(err error) bool {
	var e *UnknownIDError
	return errors.As(err, &e)
}

// IsUnknownIndex reports whether err is (or wraps) an UnknownIndexError.
func IsUnknownIndex(err error) bool {
	var e *UnknownIndexError
	return errors.As(err, &e)
}

// IsIncompatibleIndex reports whether err is (or wraps) an IncompatibleIndexError.
func IsIncompatibleIndex(err error) bool {
	var e *IncompatibleIndexError
	return errors.As(err, &e)
}

// IsSchemaViolation reports whether err is (or wraps) a SchemaViolationError.
func IsSchemaViolation(err error) bool {
	var e *SchemaViolationError
	return errors.As(err, &e)
}

// IsEmbeddingMissing reports whether err is (or wraps) an EmbeddingMissingError.
func IsEmbeddingMissing(err error) bool {
	var e *EmbeddingMissingError
	return errors.As(err, &e)
}

// IsCapacityOrParameter reports whether err is (or wraps) a CapacityOrParameterError.
func IsCapacityOrParameter(err error) bool {
	var e *CapacityOrParameterError
	return errors.As(err, &e)
}
