package utils

import (
	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

func SuccessResponse(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}

// ErrorResponse aborts the request with {"error": message}. The underlying
// error is attached to the gin context for the request logger and never
// sent to the client.
func ErrorResponse(c *gin.Context, code int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(code, ErrorBody{Error: message})
}
