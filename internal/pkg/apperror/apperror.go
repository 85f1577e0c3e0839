package apperror

// Machine-readable error kinds surfaced to API clients alongside the message.
const (
	KindValidation        = "validation"
	KindPastDate          = "past_date"
	KindDayUnavailable    = "day_unavailable"
	KindSlotConflict      = "slot_conflict"
	KindSlotBooked        = "slot_booked"
	KindInvalidTransition = "invalid_transition"
	KindAuthentication    = "authentication"
	KindNotFound          = "not_found"
	KindInternal          = "internal"
)

// AppError is a custom error type that includes an HTTP status code and a
// machine-readable kind for clients that switch on the failure class.
type AppError struct {
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Kind    string // Failure class (e.g., "slot_conflict")
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with a status code, kind and message.
func New(code int, kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}
