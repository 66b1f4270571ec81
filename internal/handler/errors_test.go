package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hadirku/hadirku-backend/internal/response"
	"github.com/hadirku/hadirku-backend/internal/service"
)

func TestFailEngineErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
		code   response.ErrCode
	}{
		{"conflict", service.ErrSessionConflict, http.StatusConflict, response.ErrSessionConflict},
		{"not found", service.ErrSessionNotFound, http.StatusNotFound, response.ErrSessionNotFound},
		{"closed", service.ErrSessionClosed, http.StatusGone, response.ErrSessionClosed},
		{"code mismatch", service.ErrCodeMismatch, http.StatusUnprocessableEntity, response.ErrCodeMismatch},
		{"not enrolled", service.ErrNotEnrolled, http.StatusForbidden, response.ErrNotEnrolled},
		{"storage timeout", service.ErrStorageTimeout, http.StatusServiceUnavailable, response.ErrStorageTimeout},
		{"wrapped timeout", errors.Join(errors.New("upsert attendance"), service.ErrStorageTimeout), http.StatusServiceUnavailable, response.ErrStorageTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, response.ErrInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

			failEngineError(c, tc.err)

			if w.Code != tc.status {
				t.Errorf("status = %d, want %d", w.Code, tc.status)
			}

			var body response.Response
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error == nil || body.Error.Code != tc.code {
				t.Errorf("error body = %+v, want code %s", body.Error, tc.code)
			}
		})
	}
}

func TestFailEngineErrorStorageTimeoutRetryAfter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	failEngineError(c, service.ErrStorageTimeout)

	// The timeout is the only retryable rejection, and the response says so.
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want %q", got, "1")
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	failEngineError(c, service.ErrSessionClosed)
	if got := w.Header().Get("Retry-After"); got != "" {
		t.Errorf("Retry-After on terminal rejection = %q, want empty", got)
	}
}
