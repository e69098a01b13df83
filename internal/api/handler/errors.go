package handler

import (
	"net/http"

	"github.com/mcoot/cardtable/internal/api/apierr"
)

// WriteError writes err as a JSON error response with its mapped status
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// PanicHandler answers a request whose handler panicked
func PanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
