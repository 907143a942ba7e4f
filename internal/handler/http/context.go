package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// currentUserID reads the authenticated user id the auth middleware stored on
// the context. A miss means the middleware did not run; treat as 401.
func currentUserID(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get("user_id")
	if !exists {
		Fail(c, http.StatusUnauthorized, CodeUnauthorized, "User not authenticated")
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	if !ok {
		logrus.Error("User ID in context is not uint")
		Fail(c, http.StatusInternalServerError, CodeInternal, "Internal server error")
		return 0, false
	}
	return userID, true
}

// roomIDParam parses the :roomId path parameter.
func roomIDParam(c *gin.Context) (uint, bool) {
	raw := c.Param("roomId")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		Fail(c, http.StatusBadRequest, CodeValidation, "Invalid room ID format")
		return 0, false
	}
	return uint(id), true
}
