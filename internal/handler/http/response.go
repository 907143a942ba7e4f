package http

import "github.com/gin-gonic/gin"

// OK writes {"success": true, "data": ...}.
func OK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// Fail writes the structured denial envelope. Every denial path carries a
// machine-readable code so clients can render differentiated UI without
// string-matching messages.
func Fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"success": false, "code": code, "message": message})
}
