package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"learning-circle/backend/pkg/jwt"
	"learning-circle/backend/pkg/redis"
	"learning-circle/backend/pkg/response"
)

// ContextKeyUserID 与 handler.ContextKeyUserID 保持一致
const ContextKeyUserID = "user_id"

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token
// rdb 为 nil 时跳过黑名单检查
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		userID, msg := authenticate(c, authHeader, jwtMgr, rdb, logger)
		if msg != "" {
			response.Unauthorized(c, 10002, msg)
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, userID)
		c.Next()
	}
}

// OptionalAuth 可选认证：无认证头时匿名放行，带认证头则必须有效
func OptionalAuth(jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		userID, msg := authenticate(c, authHeader, jwtMgr, rdb, logger)
		if msg != "" {
			response.Unauthorized(c, 10002, msg)
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, userID)
		c.Next()
	}
}

// authenticate 校验认证头，失败时返回错误提示
func authenticate(c *gin.Context, authHeader string, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) (string, string) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "认证头格式无效"
	}

	claims, err := jwtMgr.ParseToken(parts[1])
	if err != nil {
		return "", "Token 无效或已过期"
	}

	if rdb != nil && claims.ID != "" {
		revoked, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
		if err != nil {
			// Redis 出错时降级放行
			logger.Warn("检查 Token 黑名单失败", zap.Error(err))
		} else if revoked {
			return "", "Token 已失效"
		}
	}

	return claims.UserID, ""
}
