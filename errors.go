package vecstore

import "github.com/arvolabs/vecstore/internal/errkind"

// The error kinds of §7, re-exported at the package boundary so callers
// never need to import an internal package to classify a failure.
type (
	DimensionMismatchError   = errkind.DimensionMismatchError
	NumericDomainError       = errkind.NumericDomainError
	UnknownIDError           = errkind.UnknownIDError
	UnknownIndexError        = errkind.UnknownIndexError
	IncompatibleIndexError   = errkind.IncompatibleIndexError
	SchemaViolationError     = errkind.SchemaViolationError
	EmbeddingMissingError    = errkind.EmbeddingMissingError
	CapacityOrParameterError = errkind.CapacityOrParameterError
)

// Is* classifiers mirror errkind's, so callers match error kinds with
// errors.As without reaching past this package.
var (
	IsDimensionMismatch   = errkind.IsDimensionMismatch
	IsNumericDomain       = errkind.IsNumericDomain
	IsUnknownID           = errkind.IsUnknownID
	IsUnknownIndex        = errkind.IsUnknownIndex
	IsIncompatibleIndex   = errkind.IsIncompatibleIndex
	IsSchemaViolation     = errkind.IsSchemaViolation
	IsEmbeddingMissing    = errkind.IsEmbeddingMissing
	IsCapacityOrParameter = errkind.IsCapacityOrParameter
)
