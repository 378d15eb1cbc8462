package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"MoriTags/internal/auth"
	domainerrors "MoriTags/internal/errors"
	log "MoriTags/internal/log"
	"MoriTags/internal/middleware"
	"MoriTags/internal/validation"
	"MoriTags/internal/workspace"
)

// Workspaces 为每个请求按身份打开 workspace
type Workspaces struct {
	Backends workspace.Backends
}

// For 当前请求的 workspace；服务端没有访客本地存储
func (w Workspaces) For(c *gin.Context) *workspace.Workspace {
	backends := w.Backends
	backends.Local = nil
	return workspace.Open(middleware.CurrentState(c), backends)
}

// errorResponse 统一错误体
type errorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// respondError 按错误码返回状态码与提示
func respondError(c *gin.Context, err error) {
	status := domainerrors.StatusOf(err)
	resp := errorResponse{
		Success: false,
		Error:   domainerrors.MessageOf(err),
		Code:    string(domainerrors.CodeOf(err)),
	}

	var domainErr *domainerrors.Error
	if domainerrors.As(err, &domainErr) {
		resp.Details = domainErr.Details
	}
	if status >= 500 {
		log.Errorf("[%s %s] %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, resp)
}

// bindJSON 解析并校验请求体，message 为校验失败时的整体提示
func bindJSON(c *gin.Context, v *validation.Validator, req interface{}, message string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, domainerrors.Validation("Invalid request body"))
		return false
	}
	if v == nil {
		return true
	}
	if err := v.Validate(req, message); err != nil {
		respondError(c, err)
		return false
	}
	return true
}

// parseID 解析路径中的 :id
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, domainerrors.Validation("Invalid id"))
		return 0, false
	}
	return id, true
}

// currentIdentity RequireIdentity 之后调用
func currentIdentity(c *gin.Context) auth.Identity {
	identity, _ := middleware.CurrentIdentity(c)
	return identity
}
