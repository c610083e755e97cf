package apperror

import "net/http"

// AppError carries an HTTP status code together with a user-facing message.
// The wrapped cause is kept for logs and errors.Is/As but never serialized
// to clients.
type AppError struct {
	Code    int    // HTTP status code (e.g. 400, 404, 409)
	Message string // safe to show to the client
	Err     error  // underlying cause, may be nil
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError with a status code and message.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates an AppError around an existing error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Internal wraps an unexpected error as a 500 with a generic message, so
// handler fallback branches never leak internals to the client.
func Internal(err error) *AppError {
	return Wrap(err, http.StatusInternalServerError, "internal server error")
}
