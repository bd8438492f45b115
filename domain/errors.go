package domain

import "fmt"

// Error codes surfaced to API callers.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInvalidQuantity   = "INVALID_QUANTITY"
	CodeAlreadyInStock    = "ALREADY_IN_STOCK"
	CodeValidation        = "VALIDATION_ERROR"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeConflict          = "CONFLICT"
)

// Error is a user-displayable failure of an engine operation.
// Two errors are considered equal by errors.Is when their codes match.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "resource not found"}
	ErrInsufficientStock = &Error{Code: CodeInsufficientStock, Message: "insufficient stock"}
	ErrInvalidQuantity   = &Error{Code: CodeInvalidQuantity, Message: "invalid quantity"}
	ErrAlreadyInStock    = &Error{Code: CodeAlreadyInStock, Message: "medicine already in stock"}
	ErrValidation        = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrUnauthorized      = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrConflict          = &Error{Code: CodeConflict, Message: "conflict"}
)

func NotFound(format string, args ...any) error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func InsufficientStock(format string, args ...any) error {
	return &Error{Code: CodeInsufficientStock, Message: fmt.Sprintf(format, args...)}
}

func InvalidQuantity(format string, args ...any) error {
	return &Error{Code: CodeInvalidQuantity, Message: fmt.Sprintf(format, args...)}
}

func AlreadyInStock(format string, args ...any) error {
	return &Error{Code: CodeAlreadyInStock, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) error {
	return &Error{Code: CodeUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}
