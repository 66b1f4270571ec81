package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrLoginActive        ErrCode = "LOGIN_ALREADY_ACTIVE"
	ErrLoginInvalidated   ErrCode = "LOGIN_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"

	// ─── Check-in engine ───────────────────────────────────────────────
	ErrSessionConflict ErrCode = "SESSION_CONFLICT"
	ErrSessionNotFound ErrCode = "SESSION_NOT_FOUND"
	ErrSessionClosed   ErrCode = "SESSION_CLOSED"
	ErrCodeMismatch    ErrCode = "CODE_MISMATCH"
	ErrNotEnrolled     ErrCode = "NOT_ENROLLED"
	ErrStorageTimeout  ErrCode = "STORAGE_TIMEOUT"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email/NISN or password is incorrect."
	case ErrLoginActive:
		return "You are already logged in on another device."
	case ErrLoginInvalidated:
		return "Your login session has ended. Please log in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid or expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrTeacherAccessOnly:
		return "This resource is restricted to teachers."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrDependencyExists:
		return "This data is still referenced by other data and cannot be deleted."

	// ─── Check-in engine ───────────────────────────────────────────────
	case ErrSessionConflict:
		return "An attendance session is already open for this class today."
	case ErrSessionNotFound:
		return "No attendance session found. Ask your teacher to open one."
	case ErrSessionClosed:
		return "This attendance session is no longer accepting check-ins."
	case ErrCodeMismatch:
		return "This code has expired or is incorrect. Scan the current QR code."
	case ErrNotEnrolled:
		return "You are not enrolled in this session's class."
	case ErrStorageTimeout:
		return "The server is busy. Please try again in a moment."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
