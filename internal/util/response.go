package util

import (
	"net/http"

	"learnsphere_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Kind    string      `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err))
	InternalServerError(c)
}

// HandleServiceError 按错误类别返回对应状态码；未分类错误记日志并返回 500。
func HandleServiceError(c *gin.Context, err error) {
	appErr := AsAppError(err)
	if appErr == nil {
		LogInternalError(c, err)
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case KindValidation, KindBusinessRule:
		status = http.StatusBadRequest
	case KindNotFound:
		status = http.StatusNotFound
	case KindAuthorization:
		status = http.StatusForbidden
	}

	c.JSON(status, Response{
		Code:    status,
		Message: appErr.Message,
		Kind:    string(appErr.Kind),
		Data:    appErr.Details,
	})
}
