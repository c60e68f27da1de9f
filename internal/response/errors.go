package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden             ErrCode = "FORBIDDEN"
	ErrParticipantAccessOnly ErrCode = "PARTICIPANT_ACCESS_ONLY"
	ErrGraderAccessOnly      ErrCode = "GRADER_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Attempt lifecycle ─────────────────────────────────────────────
	ErrExamNotFound      ErrCode = "EXAM_NOT_FOUND"
	ErrExamMalformed     ErrCode = "EXAM_MALFORMED"
	ErrSessionNotFound   ErrCode = "SESSION_NOT_FOUND"
	ErrSessionInactive   ErrCode = "SESSION_NOT_IN_PROGRESS"
	ErrSessionDone       ErrCode = "SESSION_ALREADY_FINALIZED"
	ErrUnknownQuestion   ErrCode = "UNKNOWN_QUESTION"
	ErrOptionOutOfRange  ErrCode = "OPTION_OUT_OF_RANGE"
	ErrFormatMismatch    ErrCode = "FORMAT_MISMATCH"
	ErrEvidenceLimit     ErrCode = "EVIDENCE_LIMIT_REACHED"
	ErrEvidenceIndex     ErrCode = "EVIDENCE_INDEX_INVALID"
	ErrResultNotReady    ErrCode = "RESULT_NOT_READY"
	ErrPersistenceFailed ErrCode = "PERSISTENCE_FAILED"
	ErrAlreadyGraded     ErrCode = "SUBMISSION_ALREADY_GRADED"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

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
		return "Participant number or access code is incorrect."
	case ErrSessionActive:
		return "You are already logged in on another device."
	case ErrSessionInvalidated:
		return "Your login session has ended. Please log in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have access to this resource."
	case ErrParticipantAccessOnly:
		return "This resource is restricted to participants."
	case ErrGraderAccessOnly:
		return "This resource is restricted to graders."

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

	// ─── Attempt lifecycle ─────────────────────────────────────────────
	case ErrExamNotFound:
		return "The exam could not be found."
	case ErrExamMalformed:
		return "The exam definition is malformed and cannot be attempted."
	case ErrSessionNotFound:
		return "No attempt session with that ID."
	case ErrSessionInactive:
		return "The attempt session is not in progress."
	case ErrSessionDone:
		return "The attempt session has already finalized."
	case ErrUnknownQuestion:
		return "That question is not part of this exam."
	case ErrOptionOutOfRange:
		return "The selected option does not exist for this question."
	case ErrFormatMismatch:
		return "This action does not match the exam format."
	case ErrEvidenceLimit:
		return "This question already has the maximum number of uploads."
	case ErrEvidenceIndex:
		return "No uploaded item at that position."
	case ErrResultNotReady:
		return "The attempt has not finalized yet."
	case ErrPersistenceFailed:
		return "Your attempt was finalized but saving the result failed. It will be retried."
	case ErrAlreadyGraded:
		return "This submission has already been graded."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file upload is required."
	case ErrUnsupportedFile:
		return "Unsupported file type."
	case ErrFileTooLarge:
		return "The file exceeds the size limit."

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
