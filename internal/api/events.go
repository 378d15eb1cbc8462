package api

import (
	"github.com/gin-gonic/gin"

	"MoriTags/internal/events"
	log "MoriTags/internal/log"
	"MoriTags/internal/middleware"
)

// EventsHandler 用户通知流
type EventsHandler struct {
	hub *events.Hub
}

// NewEventsHandler 创建通知流处理器
func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// SetupEventRoutes 设置通知流路由
func SetupEventRoutes(rg *gin.RouterGroup, hub *events.Hub) {
	eventsHandler := NewEventsHandler(hub)
	rg.GET("/events", middleware.RequireIdentity(), eventsHandler.HandleEvents)
}

// HandleEvents 订阅当前用户的事件，阻塞直到连接断开
func (h *EventsHandler) HandleEvents(c *gin.Context) {
	identity := currentIdentity(c)
	log.Debugf("用户 %d 订阅通知流", identity.ID)
	h.hub.Serve(c.Writer, c.Request, identity.ID)
}
