package models

import "errors"

// Sentinel errors for the service layer. Services wrap these with
// fmt.Errorf("%w: ...") context; handlers map them onto HTTP statuses
// with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrStoreUnavailable = errors.New("store unavailable")
)
