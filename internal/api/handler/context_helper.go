package handler

import (
	"github.com/gin-gonic/gin"

	"learning-circle/backend/pkg/response"
)

// ContextKeyUserID 认证中间件写入的用户 ID 键
const ContextKeyUserID = "user_id"

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	uid := OptionalUserID(c)
	if uid == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return uid, true
}

// OptionalUserID 提取可选认证下的 user_id，匿名访问返回空串
func OptionalUserID(c *gin.Context) string {
	v, exists := c.Get(ContextKeyUserID)
	if !exists {
		return ""
	}
	s, _ := v.(string)
	return s
}
