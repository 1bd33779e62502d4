package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Session & selection ───────────────────────────────────────────
	ErrNoQuestions        ErrCode = "NO_QUESTIONS"
	ErrNoSelection        ErrCode = "NO_SELECTION"
	ErrSessionCompleted   ErrCode = "SESSION_COMPLETED"
	ErrQuestionNotInSet   ErrCode = "QUESTION_NOT_IN_SET"
	ErrSelectionCorrupted ErrCode = "SELECTION_CORRUPTED"

	// ─── Grading ───────────────────────────────────────────────────────
	ErrAutoGradedType  ErrCode = "AUTO_GRADED_TYPE"
	ErrPointsExceedMax ErrCode = "POINTS_EXCEED_MAX"
	ErrAnswerNotFound  ErrCode = "ANSWER_NOT_FOUND"
	ErrResultsNotReady ErrCode = "RESULTS_NOT_READY"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
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

	// ─── Session & selection ───────────────────────────────────────────
	case ErrNoQuestions:
		return "No questions are available for this session."
	case ErrNoSelection:
		return "This session has no question selection yet."
	case ErrSessionCompleted:
		return "This session has already been completed."
	case ErrQuestionNotInSet:
		return "This question is not part of the session's question set."
	case ErrSelectionCorrupted:
		return "The session's question set references missing questions."

	// ─── Grading ───────────────────────────────────────────────────────
	case ErrAutoGradedType:
		return "This question type is graded automatically."
	case ErrPointsExceedMax:
		return "Awarded points exceed the question's maximum."
	case ErrAnswerNotFound:
		return "No answer has been submitted for this question."
	case ErrResultsNotReady:
		return "Results are not available for this session yet."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."

	default:
		return "An unknown error occurred."
	}
}
