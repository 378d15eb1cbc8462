package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"MoriTags/internal/auth"
	domainerrors "MoriTags/internal/errors"
	log "MoriTags/internal/log"
)

const (
	identityKey = "identity"
	claimsKey   = "sessionClaims"
)

// SessionMiddleware 解析会话身份；没有或无效的会话按访客处理，不会中断请求。
// 令牌优先取 Cookie，其次取 Authorization: Bearer <token>。
func SessionMiddleware(sessions *auth.Sessions, authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := sessions.Parse(token)
		if err != nil {
			c.Next()
			return
		}

		userID, _ := claims.UserID()
		identity, err := authService.GetUser(c.Request.Context(), userID)
		if err != nil {
			// 用户已被删除时按访客处理
			if !domainerrors.Is(err, domainerrors.ErrNotFound) {
				log.Errorf("加载会话用户 %d 失败: %v", userID, err)
			}
			c.Next()
			return
		}

		c.Set(identityKey, *identity)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireIdentity 访客请求返回 401
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentIdentity(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   domainerrors.ErrUnauthorized.Message,
			})
			return
		}
		c.Next()
	}
}

// CurrentIdentity 从 Gin context 中获取当前身份
func CurrentIdentity(c *gin.Context) (auth.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return auth.Identity{}, false
	}
	identity, ok := v.(auth.Identity)
	return identity, ok
}

// CurrentState 当前请求的身份状态
func CurrentState(c *gin.Context) auth.State {
	if identity, ok := CurrentIdentity(c); ok {
		return auth.Authenticated(identity)
	}
	return auth.Guest()
}

// CurrentClaims 当前会话令牌的声明，访客为 nil
func CurrentClaims(c *gin.Context) *auth.SessionClaims {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil
	}
	claims, _ := v.(*auth.SessionClaims)
	return claims
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(auth.CookieName); err == nil && cookie != "" {
		return cookie
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
