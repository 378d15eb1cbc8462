package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"MoriTags/internal/auth"
	domainerrors "MoriTags/internal/errors"
	log "MoriTags/internal/log"
	"MoriTags/internal/middleware"
)

// AuthHandler 认证相关的处理器
type AuthHandler struct {
	authService  *auth.Service
	sessions     *auth.Sessions
	cookieSecure bool
}

// NewAuthHandler 创建认证处理器实例
func NewAuthHandler(authService *auth.Service, sessions *auth.Sessions, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		sessions:     sessions,
		cookieSecure: cookieSecure,
	}
}

// SetupAuthRoutes 设置认证相关路由
func SetupAuthRoutes(rg *gin.RouterGroup, authService *auth.Service, sessions *auth.Sessions, cookieSecure bool) {
	authHandler := NewAuthHandler(authService, sessions, cookieSecure)

	rg.POST("/auth/login", authHandler.HandleLogin)
	rg.POST("/auth/logout", authHandler.HandleLogout)
	rg.GET("/auth/me", authHandler.HandleGetMe)
	rg.POST("/auth/settings", middleware.RequireIdentity(), authHandler.HandleUpdateSettings)
}

// HandleLogin 处理登录请求
func (h *AuthHandler) HandleLogin(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domainerrors.Validation("Invalid request body"))
		return
	}

	identity, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, expires, err := h.sessions.Issue(*identity)
	if err != nil {
		respondError(c, domainerrors.Internal("创建会话失败", err))
		return
	}
	h.setSessionCookie(c, token, int(h.sessions.TTL().Seconds()))

	log.Infof("用户 %s 登录成功，会话有效期至 %s", identity.Username, expires.Format("2006-01-02 15:04:05"))
	c.JSON(http.StatusOK, auth.AuthResponse{
		Success:    true,
		User:       identity,
		RedirectTo: safeRedirect(req.RedirectTo),
	})
}

// HandleLogout 处理登出请求；持久化数据不受影响
func (h *AuthHandler) HandleLogout(c *gin.Context) {
	if claims := middleware.CurrentClaims(c); claims != nil {
		h.sessions.Revoke(claims)
	}
	h.setSessionCookie(c, "", -1)

	c.JSON(http.StatusOK, auth.AuthResponse{
		Success:    true,
		Message:    "Logged out",
		RedirectTo: "/",
	})
}

// HandleGetMe 当前身份，访客返回 guest=true
func (h *AuthHandler) HandleGetMe(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusOK, auth.AuthResponse{Success: true, Guest: true})
		return
	}
	c.JSON(http.StatusOK, auth.AuthResponse{Success: true, User: &identity})
}

// HandleUpdateSettings 修改用户名和/或密码
func (h *AuthHandler) HandleUpdateSettings(c *gin.Context) {
	var req auth.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domainerrors.Validation("Invalid request body"))
		return
	}

	identity := currentIdentity(c)
	updated, err := h.authService.UpdateSettings(c.Request.Context(), identity.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, auth.AuthResponse{
		Success: true,
		Message: "Settings updated successfully.",
		User:    updated,
	})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// safeRedirect 只允许站内相对路径，默认 /
func safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return "/"
	}
	return target
}
