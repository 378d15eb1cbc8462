package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"MoriTags/internal/collection"
	"MoriTags/internal/middleware"
	"MoriTags/internal/validation"
)

// CollectionHandler 收藏夹处理器，仅登录用户可用
type CollectionHandler struct {
	workspaces Workspaces
	validator  *validation.Validator
}

// NewCollectionHandler 创建收藏夹处理器
func NewCollectionHandler(workspaces Workspaces, validator *validation.Validator) *CollectionHandler {
	return &CollectionHandler{workspaces: workspaces, validator: validator}
}

// SetupCollectionRoutes 设置收藏夹相关路由
func SetupCollectionRoutes(rg *gin.RouterGroup, workspaces Workspaces, validator *validation.Validator) {
	collectionHandler := NewCollectionHandler(workspaces, validator)

	group := rg.Group("/collections", middleware.RequireIdentity())
	group.GET("", collectionHandler.GetCollections)
	group.POST("", collectionHandler.SaveCollection)
	group.GET("/:id", collectionHandler.GetCollection)
	group.DELETE("/:id", collectionHandler.DeleteCollection)
}

// GetCollections 获取收藏夹，最新的在前
func (h *CollectionHandler) GetCollections(c *gin.Context) {
	list, err := h.workspaces.For(c).Collections(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, collection.CollectionResponse{
		Success:     true,
		Collections: list,
	})
}

// SaveCollection 保存收藏夹
func (h *CollectionHandler) SaveCollection(c *gin.Context) {
	var req collection.SaveRequest
	if !bindJSON(c, h.validator, &req, "Name and tags are required") {
		return
	}

	saved, err := h.workspaces.For(c).SaveCollection(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, collection.CollectionResponse{
		Success:    true,
		Message:    "Collection saved",
		Collection: saved,
	})
}

// GetCollection 获取单个收藏夹
func (h *CollectionHandler) GetCollection(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	found, err := h.workspaces.For(c).Collection(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, collection.CollectionResponse{Success: true, Collection: found})
}

// DeleteCollection 删除收藏夹，不属于当前用户时静默成功
func (h *CollectionHandler) DeleteCollection(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.workspaces.For(c).DeleteCollection(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, collection.CollectionResponse{Success: true})
}
