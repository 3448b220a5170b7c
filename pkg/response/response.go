// Package response 统一 HTTP JSON 响应格式
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/latticepricing/pkg/contextx"
)

// Body 响应体
type Body struct {
	Code      string `json:"code"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Success 200 响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Body{
		Code:      "OK",
		Data:      data,
		RequestID: contextx.RequestID(c.Request.Context()),
	})
}

// Error 错误响应并终止后续 handler
func Error(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Body{
		Code:      code,
		Message:   message,
		RequestID: contextx.RequestID(c.Request.Context()),
	})
}
