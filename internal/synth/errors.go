package synth

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes synthesis errors.
type ErrorCode string

const (
	// ErrCodeAnalysisMalformed indicates the analysis document lacks a
	// usable decision list.
	ErrCodeAnalysisMalformed ErrorCode = "ANALYSIS_MALFORMED"

	// ErrCodeDecisionMalformed indicates one decision is not an object or
	// carries an unusable template list.
	ErrCodeDecisionMalformed ErrorCode = "DECISION_MALFORMED"

	// ErrCodeTemplateMalformed indicates one eligible petition template is
	// not an object.
	ErrCodeTemplateMalformed ErrorCode = "TEMPLATE_MALFORMED"

	// ErrCodeMergeFailed indicates the template/attorney merge failed.
	ErrCodeMergeFailed ErrorCode = "MERGE_FAILED"

	// ErrCodeIDCollision indicates the id generator handed back an id that
	// is already taken. This is a defect and must not occur under correct
	// use; the guard exists so a defect surfaces loudly instead of
	// overwriting an existing petition.
	ErrCodeIDCollision ErrorCode = "ID_COLLISION"
)

// Error is a synthesis error scoped to one decision or template. Synthesis
// is isolated per item: an Error for one template never aborts the batch.
type Error struct {
	Code     ErrorCode
	Decision int
	Template int
	Message  string
}

func (e *Error) Error() string {
	switch {
	case e.Template >= 0 && e.Decision >= 0:
		return fmt.Sprintf("%s: decision %d, template %d: %s", e.Code, e.Decision, e.Template, e.Message)
	case e.Decision >= 0:
		return fmt.Sprintf("%s: decision %d: %s", e.Code, e.Decision, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsCode reports whether err is a synthesis Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == code
}

func synthErr(code ErrorCode, decision, template int, format string, args ...any) error {
	return &Error{Code: code, Decision: decision, Template: template, Message: fmt.Sprintf(format, args...)}
}
