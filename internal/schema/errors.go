package schema

import (
	"errors"
	"fmt"
)

// MalformedRecordError reports a nested document that violates the declared
// schema: a missing or unusable id, a missing required child list, a child of
// the wrong shape, or a dangling reference during denormalization.
//
// Path locates the offending node from the document root, e.g.
// "cases[1].charges[0]". Normalization aborts rather than dropping data: the
// record is legal-sensitive and a partial record must never pass as complete.
type MalformedRecordError struct {
	Path   string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed record: %s", e.Reason)
	}
	return fmt.Sprintf("malformed record at %s: %s", e.Path, e.Reason)
}

// IsMalformed reports whether err is (or wraps) a MalformedRecordError.
func IsMalformed(err error) bool {
	var me *MalformedRecordError
	return errors.As(err, &me)
}

func malformed(path, format string, args ...any) error {
	return &MalformedRecordError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
