package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/cardtable/internal/model"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not registered", model.ErrNotRegistered, http.StatusForbidden, CodeNotRegistered},
		{"connection", model.ErrConnectionNotFound, http.StatusNotFound, CodeConnectionNotFound},
		{"player", model.ErrPlayerNotFound, http.StatusNotFound, CodePlayerNotFound},
		{"session", model.ErrSessionNotFound, http.StatusNotFound, CodeSessionNotFound},
		{"record", model.ErrSessionRecordNotFound, http.StatusNotFound, CodeSessionNotFound},
		{"full", model.ErrSessionFull, http.StatusConflict, CodeSessionFull},
		{"other session", model.ErrAlreadyInOtherSession, http.StatusConflict, CodeAlreadyInOtherSession},
		{"card", model.ErrInvalidCard, http.StatusBadRequest, CodeInvalidCard},
		{"wrapped", fmt.Errorf("join: %w", model.ErrSessionFull), http.StatusConflict, CodeSessionFull},
		{"invalid request", NewInvalidRequestError("bad"), http.StatusBadRequest, CodeInvalidRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, apiErr := Describe(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, apiErr.Code)
		})
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, model.ErrSessionFull)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, CodeSessionFull, resp.Error.Code)
}
