package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"MoriTags/internal/api"
	"MoriTags/internal/auth"
	"MoriTags/internal/collection"
	"MoriTags/internal/customtag"
	"MoriTags/internal/events"
	log "MoriTags/internal/log"
	"MoriTags/internal/middleware"
	"MoriTags/internal/tag"
	"MoriTags/internal/validation"
	"MoriTags/internal/workspace"
)

// Options 路由依赖
type Options struct {
	DB           *gorm.DB
	Sessions     *auth.Sessions
	Credentials  auth.Credentials
	Priority     tag.PriorityTable
	Hub          *events.Hub
	CookieSecure bool
	// 图片代理拒绝私有/回环地址
	BlockPrivateImageHosts bool
	// 系统标签缓存有效期，<=0 时每次都读数据库
	CatalogCacheTTL time.Duration
}

// SetupRouter 创建并配置主路由器
func SetupRouter(opts Options) *gin.Engine {
	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(log.GinLogger())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API路由
	setupAPIRoutes(r, opts)

	return r
}

// setupAPIRoutes 设置API路由
func setupAPIRoutes(r *gin.Engine, opts Options) {
	// 创建服务实例
	authService := auth.NewService(opts.DB, opts.Credentials)
	tagService := tag.NewService(opts.DB)
	validator := validation.New()

	var notifier events.Notifier = events.Nop{}
	if opts.Hub != nil {
		notifier = opts.Hub
	}

	var catalog workspace.Catalog = tagService
	if opts.CatalogCacheTTL > 0 {
		catalog = tag.NewCachedCatalog(tagService, opts.CatalogCacheTTL)
	}

	workspaces := api.Workspaces{Backends: workspace.Backends{
		Catalog:     catalog,
		CustomTags:  customtag.NewService(opts.DB),
		Collections: collection.NewService(opts.DB),
		Priority:    opts.Priority,
		Notifier:    notifier,
	}}

	apiGroup := r.Group("/api")
	apiGroup.Use(middleware.SessionMiddleware(opts.Sessions, authService))
	{
		// 设置各模块的路由
		api.SetupAuthRoutes(apiGroup, authService, opts.Sessions, opts.CookieSecure)
		api.SetupTagRoutes(apiGroup, tagService, workspaces, &api.URLValidator{
			AllowHTTP:      true,
			AllowPrivateIP: !opts.BlockPrivateImageHosts,
		})
		api.SetupCustomTagRoutes(apiGroup, workspaces, validator)
		api.SetupCollectionRoutes(apiGroup, workspaces, validator)
		if opts.Hub != nil {
			api.SetupEventRoutes(apiGroup, opts.Hub)
		}
	}
}

// corsMiddleware CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		// 带 Cookie 的跨域请求必须回显具体 Origin
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Credentials", "true")
		} else {
			c.Header("Access-Control-Allow-Origin", "*")
		}

		reqHeaders := c.GetHeader("Access-Control-Request-Headers")
		if reqHeaders == "" {
			reqHeaders = "Content-Type, Authorization"
		}
		c.Header("Access-Control-Allow-Headers", reqHeaders)
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Max-Age", "43200")

		// 预检请求直接返回
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
