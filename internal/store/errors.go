package store

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a lookup by id with no matching entity.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeUnknownType indicates an entity type the state tree does not
	// carry a collection for.
	ErrCodeUnknownType ErrorCode = "UNKNOWN_TYPE"

	// ErrCodeInvalidEntity indicates an upsert with an unusable id or body.
	ErrCodeInvalidEntity ErrorCode = "INVALID_ENTITY"

	// ErrCodeInconsistent indicates the consistency check found an orphaned
	// or duplicated reference. This is a defect, not an expected condition.
	ErrCodeInconsistent ErrorCode = "INCONSISTENT_STATE"
)

// Error is a structured store error carrying the entity coordinates the
// operation failed on.
type Error struct {
	Code       ErrorCode
	EntityType string
	ID         string
	Message    string
}

func (e *Error) Error() string {
	switch {
	case e.EntityType != "" && e.ID != "":
		return fmt.Sprintf("%s: %s/%s: %s", e.Code, e.EntityType, e.ID, e.Message)
	case e.EntityType != "":
		return fmt.Sprintf("%s: %s: %s", e.Code, e.EntityType, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsNotFound reports whether err is a store lookup miss.
func IsNotFound(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == ErrCodeNotFound
}

func notFound(typ, id string) error {
	return &Error{Code: ErrCodeNotFound, EntityType: typ, ID: id, Message: "no such entity"}
}

func unknownType(typ string) error {
	return &Error{Code: ErrCodeUnknownType, EntityType: typ, Message: "no collection for this type"}
}
