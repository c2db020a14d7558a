package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	domain "github.com/storefront/backend/internal/domain/tracking"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandlerContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandler_Success(t *testing.T) {
	c, w := newHandlerContext(t)
	h := &BaseHandler{}

	h.Success(c, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
}

func TestBaseHandler_Accepted(t *testing.T) {
	c, w := newHandlerContext(t)
	h := &BaseHandler{}

	h.Accepted(c, TrackAcceptedResponse{Accepted: true})

	assert.Equal(t, http.StatusAccepted, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
}

func TestBaseHandler_BadRequest(t *testing.T) {
	c, w := newHandlerContext(t)
	h := &BaseHandler{}

	h.BadRequest(c, "malformed payload")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
}

func TestBaseHandler_ErrorCarriesRequestID(t *testing.T) {
	c, w := newHandlerContext(t)
	c.Set(RequestIDKey, "req-42")
	h := &BaseHandler{}

	h.NotFound(c, "no such thing")

	resp := decodeResponse(t, w)
	assert.Equal(t, "req-42", resp.Error.RequestID)
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "tracking error maps through code table",
			err:            domain.ErrPixelNotLoaded,
			expectedStatus: http.StatusConflict,
			expectedCode:   dto.ErrCodePixelNotLoaded,
		},
		{
			name:           "wrapped tracking error unwraps",
			err:            fmt.Errorf("firing: %w", domain.ErrUnknownPlatform),
			expectedStatus: http.StatusNotFound,
			expectedCode:   dto.ErrCodeNotFound,
		},
		{
			name:           "validation error maps to 400",
			err:            &domain.ValidationError{Event: "Purchase", Field: "quantity", Reason: "must be positive"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrCodeValidation,
		},
		{
			name:           "unknown error maps to 500",
			err:            errors.New("database exploded"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   dto.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newHandlerContext(t)
			h := &BaseHandler{}

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedCode, resp.Error.Code)
		})
	}
}

func TestBaseHandler_HandleError_NilIsNoOp(t *testing.T) {
	c, w := newHandlerContext(t)
	h := &BaseHandler{}

	h.HandleError(c, nil)

	assert.Empty(t, w.Body.String())
}
