package domain

import (
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrNotFound           = NewErr("NOT_FOUND", "paste not found", http.StatusNotFound)
	ErrDuplicateID        = NewErr("DUPLICATE_ID", "id already exists", http.StatusConflict)
	ErrStorageUnavailable = NewErr("STORAGE_UNAVAILABLE", "storage unavailable", http.StatusInternalServerError)
	ErrContentRequired    = NewErr("CONTENT_REQUIRED", "content cannot be empty", http.StatusBadRequest)
	ErrContentTooLarge    = NewErr("CONTENT_TOO_LARGE", "content too large", http.StatusBadRequest)
	ErrLineTooLong        = NewErr("LINE_TOO_LONG", "input line too long", http.StatusBadRequest)
)

// Err is the closed error taxonomy for the storage and protocol
// layers. Call sites match with errors.Is against the sentinels above
// rather than inspecting strings.
type Err struct {
	Code   string
	Msg    string
	Status int
}

func (e *Err) Error() string { return e.Msg }

func NewErr(code, msg string, status int) *Err {
	return &Err{Code: code, Msg: msg, Status: status}
}

// Status maps an error to the HTTP status the web front should
// report, unwrapping pkg/errors chains.
func Status(err error) int {
	if e, ok := err.(*Err); ok {
		return e.Status
	}
	if e, ok := errors.Cause(err).(*Err); ok {
		return e.Status
	}
	return http.StatusInternalServerError
}
