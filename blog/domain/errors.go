package domain

import "errors"

// Error taxonomy for the post lifecycle. Every failure crossing the
// application boundary wraps exactly one of these sentinels so callers can
// classify with errors.Is.
var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrStorage          = errors.New("storage error")
	ErrUpload           = errors.New("upload error")

	// ErrDuplicateSlug is returned by repositories when the unique slug
	// constraint rejects a write. The lifecycle service retries with a
	// freshly generated slug before giving up.
	ErrDuplicateSlug = errors.New("duplicate slug")
)

// FieldError reports a validation failure for a specific input field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

// NewFieldError wraps ErrValidation with the offending field and reason.
func NewFieldError(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}
