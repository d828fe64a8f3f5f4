package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "campushub.realtime/internal/errors"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    appErrors.CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// ErrorWithMsg 自定义错误消息
func ErrorWithMsg(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// ErrorFromAppError 从 AppError 生成错误响应
func ErrorFromAppError(c *gin.Context, err error) {
	Abort(c, http.StatusOK, err)
}

// Abort 以指定 HTTP 状态码返回错误并中止后续处理
func Abort(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, Response{
		Code:    appErrors.GetCode(err),
		Message: appErrors.GetMessage(err),
		Data:    nil,
	})
}

// Unauthorized 握手认证失败
func Unauthorized(c *gin.Context, err error) {
	Abort(c, http.StatusUnauthorized, err)
}

// NotFound 资源不存在
func NotFound(c *gin.Context, err error) {
	Abort(c, http.StatusNotFound, err)
}

// ServiceUnavailable 依赖不可用
func ServiceUnavailable(c *gin.Context, err error) {
	Abort(c, http.StatusServiceUnavailable, err)
}
