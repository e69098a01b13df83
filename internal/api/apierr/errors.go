package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/cardtable/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeInvalidCard           = "INVALID_CARD"
	CodeNotRegistered         = "NOT_REGISTERED"
	CodeConnectionNotFound    = "CONNECTION_NOT_FOUND"
	CodePlayerNotFound        = "PLAYER_NOT_FOUND"
	CodeSessionNotFound       = "SESSION_NOT_FOUND"
	CodeSessionFull           = "SESSION_FULL"
	CodeAlreadyInOtherSession = "ALREADY_IN_OTHER_SESSION"
	CodeNotInSession          = "NOT_IN_SESSION"
	CodeInternalError         = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Describe returns the HTTP status and API error an error maps to.
// Non-HTTP transports use it to report failures with the same codes.
func Describe(err error) (int, APIError) {
	he := toHTTPError(err)
	return he.status, he.apiError
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrNotRegistered):
		return &httpError{http.StatusForbidden, APIError{CodeNotRegistered, "Player not registered"}}
	case errors.Is(err, model.ErrConnectionNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeConnectionNotFound, "Connection not found"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrSessionNotFound), errors.Is(err, model.ErrSessionRecordNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeSessionNotFound, "Game not found"}}
	case errors.Is(err, model.ErrSessionFull):
		return &httpError{http.StatusConflict, APIError{CodeSessionFull, "Game is full (4 players max)"}}
	case errors.Is(err, model.ErrAlreadyInOtherSession):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyInOtherSession, "Player is already in another game"}}
	case errors.Is(err, model.ErrNotInSession):
		return &httpError{http.StatusConflict, APIError{CodeNotInSession, "Player is not in this game"}}
	case errors.Is(err, model.ErrInvalidCard):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidCard, "Card must look like \"Re di Coppe\""}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
