package errs

// Code is a stable, machine-readable error code carried across the API
// boundary. Codes never change meaning between releases.
type Code string

const (
	CodeUnknown              Code = "UNKNOWN"
	CodeInvalidArgument      Code = "INVALID_ARGUMENT"
	CodeNotFound             Code = "NOT_FOUND"
	CodeAlreadyExists        Code = "ALREADY_EXISTS"
	CodePermissionDenied     Code = "PERMISSION_DENIED"
	CodeUnauthenticated      Code = "UNAUTHENTICATED"
	CodeAuthenticationFailed Code = "AUTHENTICATION_FAILED"
	CodeIntegrityMismatch    Code = "INTEGRITY_MISMATCH"
	CodeDeadlineExceeded     Code = "DEADLINE_EXCEEDED"
	CodeInternal             Code = "INTERNAL"
)
