// Package errors provides the foundational error handling system for the
// upgrade-safety checker. It extends Go's standard error handling with
// structured error codes, context preservation, and JSON-friendly
// serialization for machine-readable reports.
package errors

// ErrorCode represents a specific error condition in the checker.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Artifact errors.

	// CodeArtifactNotFound indicates no build artifact exists for a contract.
	CodeArtifactNotFound ErrorCode = "ARTIFACT_NOT_FOUND"

	// CodeInvalidArtifact indicates a build artifact is malformed or unreadable.
	CodeInvalidArtifact ErrorCode = "INVALID_ARTIFACT"

	// CodeDuplicateContract indicates the same fully qualified contract name
	// appears in more than one artifact.
	CodeDuplicateContract ErrorCode = "DUPLICATE_CONTRACT"

	// Extraction errors.

	// CodeLayoutDecodeFailed indicates the solc storage-layout JSON could not be decoded.
	CodeLayoutDecodeFailed ErrorCode = "LAYOUT_DECODE_FAILED"

	// CodeASTDecodeFailed indicates the solc AST JSON could not be decoded.
	CodeASTDecodeFailed ErrorCode = "AST_DECODE_FAILED"

	// CodeDanglingType indicates a storage item references a type absent from
	// the layout's type registry.
	CodeDanglingType ErrorCode = "DANGLING_TYPE_REFERENCE"

	// Version access errors.

	// CodeRefResolveFailed indicates a git revision could not be resolved.
	CodeRefResolveFailed ErrorCode = "REF_RESOLVE_FAILED"

	// CodeNoPreviousRelease indicates no semver tag lower than the version
	// under check exists in the repository.
	CodeNoPreviousRelease ErrorCode = "NO_PREVIOUS_RELEASE"

	// Validation errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// CodeConfigLoadFailed indicates the checker configuration could not be loaded.
	CodeConfigLoadFailed ErrorCode = "CONFIG_LOAD_FAILED"

	// CodeConfigDecodeFailed indicates the checker configuration could not be
	// decoded into the expected schema.
	CodeConfigDecodeFailed ErrorCode = "CONFIG_DECODE_FAILED"

	// System errors.

	// CodeInternal indicates an internal error occurred.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)
