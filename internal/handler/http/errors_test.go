package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handler "github.com/PtahSamora/titcha-studyroom/internal/handler/http"
	"github.com/PtahSamora/titcha-studyroom/internal/service"
)

func TestHandleServiceError_Mapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"auth", service.ErrAuthenticationFailed, http.StatusUnauthorized, handler.CodeUnauthorized},
		{"validation", service.ErrValidation, http.StatusBadRequest, handler.CodeValidation},
		{"room not found", service.ErrRoomNotFound, http.StatusNotFound, handler.CodeRoomNotFound},
		{"bad invite", service.ErrInvalidInviteCode, http.StatusNotFound, handler.CodeInviteInvalid},
		{"cross school", service.ErrCrossSchool, http.StatusForbidden, handler.CodeCrossSchool},
		{"not member", service.ErrNotMember, http.StatusForbidden, handler.CodeNotMember},
		{"not owner", service.ErrNotOwner, http.StatusForbidden, handler.CodeNotOwner},
		{"no control", service.ErrNoControl, http.StatusForbidden, handler.CodeNoControl},
		{"ask ai disabled", service.ErrAskAiDisabled, http.StatusForbidden, handler.CodeAskAiDisabled},
		{"rate limited", service.ErrRateLimited, http.StatusTooManyRequests, handler.CodeRateLimit},
		{"tutor quota", service.ErrTutorQuota, http.StatusServiceUnavailable, handler.CodeTutorQuota},
		{"tutor config", service.ErrTutorConfig, http.StatusInternalServerError, handler.CodeTutorConfig},
		{"tutor down", service.ErrTutorUnavailable, http.StatusServiceUnavailable, handler.CodeTutorUnavailable},
		{"internal", service.ErrInternalServer, http.StatusInternalServerError, handler.CodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(recorder)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			handler.HandleServiceError(c, tc.err)

			assert.Equal(t, tc.wantStatus, recorder.Code)

			var body struct {
				Success bool   `json:"success"`
				Code    string `json:"code"`
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tc.wantCode, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}
