package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "learning-circle/backend/pkg/errors"
	"learning-circle/backend/pkg/response"
)

// 业务错误码
const (
	codeInvalidParams = 10001
	codeForbidden     = 10003
	codeNotFound      = 10006
	codeConflict      = 10009
)

// handleServiceError 按错误分类映射 HTTP 状态码；未分类错误记录日志并返回 500
func handleServiceError(c *gin.Context, logger *zap.Logger, err error) {
	var appErr *apperrors.AppError
	if !apperrors.As(err, &appErr) {
		logger.Error("请求处理失败",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		response.InternalError(c)
		return
	}

	switch appErr.Kind {
	case apperrors.KindValidation:
		response.ErrorWithFields(c, http.StatusBadRequest, codeInvalidParams, appErr.Message, appErr.Fields)
	case apperrors.KindPermission:
		response.Forbidden(c, codeForbidden, appErr.Message)
	case apperrors.KindConflict:
		response.ErrorWithFields(c, http.StatusConflict, codeConflict, appErr.Message, appErr.Fields)
	case apperrors.KindNotFound:
		response.NotFound(c, codeNotFound, appErr.Message)
	default:
		response.InternalError(c)
	}
}

// bindJSON 解析请求体；格式错误时写入 400 并返回 false
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, codeInvalidParams, "请求体格式错误")
		return false
	}
	return true
}
