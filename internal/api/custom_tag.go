package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"MoriTags/internal/customtag"
	"MoriTags/internal/middleware"
	"MoriTags/internal/validation"
)

// CustomTagHandler 自定义标签处理器，仅登录用户可用
type CustomTagHandler struct {
	workspaces Workspaces
	validator  *validation.Validator
}

// NewCustomTagHandler 创建自定义标签处理器
func NewCustomTagHandler(workspaces Workspaces, validator *validation.Validator) *CustomTagHandler {
	return &CustomTagHandler{workspaces: workspaces, validator: validator}
}

// SetupCustomTagRoutes 设置自定义标签相关路由
func SetupCustomTagRoutes(rg *gin.RouterGroup, workspaces Workspaces, validator *validation.Validator) {
	customTagHandler := NewCustomTagHandler(workspaces, validator)

	group := rg.Group("/custom-tags", middleware.RequireIdentity())
	group.GET("", customTagHandler.GetCustomTags)
	group.POST("", customTagHandler.AddCustomTag)
	group.DELETE("/:id", customTagHandler.DeleteCustomTag)
}

// GetCustomTags 获取当前用户的自定义标签
func (h *CustomTagHandler) GetCustomTags(c *gin.Context) {
	vocab, err := h.workspaces.For(c).Vocabulary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	custom := make([]interface{}, 0)
	for _, t := range vocab.Tags {
		if t.IsCustom {
			custom = append(custom, t)
		}
	}
	c.JSON(http.StatusOK, customtag.CustomTagResponse{Success: true, Tags: custom})
}

// AddCustomTag 添加自定义标签，同名时返回已有标签
func (h *CustomTagHandler) AddCustomTag(c *gin.Context) {
	var req customtag.AddRequest
	if !bindJSON(c, h.validator, &req, "Name is required") {
		return
	}

	added, err := h.workspaces.For(c).AddCustomTag(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, customtag.CustomTagResponse{
		Success: true,
		ID:      added.ID,
		Tag:     added.ToTag(),
	})
}

// DeleteCustomTag 删除自定义标签，不属于当前用户时静默成功
func (h *CustomTagHandler) DeleteCustomTag(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.workspaces.For(c).DeleteCustomTag(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, customtag.CustomTagResponse{Success: true})
}
