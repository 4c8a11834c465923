package errors

import (
	"errors"
	"fmt"
)

var (
	ErrConfig          = errors.New("configuration error")
	ErrAuth            = errors.New("authentication failed")
	ErrRequest         = errors.New("malformed request")
	ErrAPI             = errors.New("api unavailable")
	ErrMapping         = errors.New("mapping failed")
	ErrStateCorruption = errors.New("processed state is corrupted")
)

// MappingError сообщает, что в ответе API нет обязательного поля ни под одним
// из известных имен либо его значение не удалось разобрать.
type MappingError struct {
	OrderID string
	Field   string
	Reason  string
}

func (e *MappingError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "is missing"
	}

	if e.OrderID == "" {
		return fmt.Sprintf("%v: field %s %s", ErrMapping, e.Field, reason)
	}

	return fmt.Sprintf("%v: order %s: field %s %s", ErrMapping, e.OrderID, e.Field, reason)
}

func (e *MappingError) Is(target error) bool {
	return target == ErrMapping
}
