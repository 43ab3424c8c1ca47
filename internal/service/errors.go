package service

import (
	"errors"
	"fmt"
)

const (
	CodeNotFound   = "NOT_FOUND"
	CodeConflict   = "CONFLICT"
	CodeValidation = "VALIDATION_ERROR"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewNotFound(resource string, id any) *BusinessError {
	return NewBusinessError(CodeNotFound,
		fmt.Sprintf("%s not found", resource),
		ToDetail("resource", resource),
		ToDetail("id", id),
	)
}

func NewConflict(message string, details ...Detail) *BusinessError {
	return NewBusinessError(CodeConflict, message, details...)
}

func NewValidationError(field, reason string) *BusinessError {
	return NewBusinessError(CodeValidation,
		fmt.Sprintf("invalid value of field '%s': %s", field, reason),
		ToDetail("field", field),
		ToDetail("reason", reason),
	)
}

// AsBusinessError unwraps err looking for a *BusinessError.
func AsBusinessError(err error) (*BusinessError, bool) {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr, true
	}
	return nil, false
}

func IsCode(err error, code string) bool {
	busErr, ok := AsBusinessError(err)
	return ok && busErr.Code == code
}
