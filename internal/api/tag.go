package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mattn/go-ieproxy"

	domainerrors "MoriTags/internal/errors"
	log "MoriTags/internal/log"
	"MoriTags/internal/tag"
)

// TagHandler 标签处理器
type TagHandler struct {
	tagService *tag.Service
	workspaces Workspaces
	validator  *URLValidator
	client     *http.Client
}

// NewTagHandler 创建标签处理器
func NewTagHandler(tagService *tag.Service, workspaces Workspaces, validator *URLValidator) *TagHandler {
	if validator == nil {
		validator = &URLValidator{AllowHTTP: true, AllowPrivateIP: true}
	}
	return &TagHandler{
		tagService: tagService,
		workspaces: workspaces,
		validator:  validator,
		client:     newProxyClient(validator),
	}
}

// newProxyClient 创建支持系统/环境代理的 HTTP 客户端，重定向目标同样需要通过校验
func newProxyClient(validator *URLValidator) *http.Client {
	return &http.Client{
		Transport: &http.Transport{Proxy: ieproxy.GetProxyFunc()},
		Timeout:   30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return http.ErrUseLastResponse
			}
			return validator.ValidateURL(req.URL.String())
		},
	}
}

// SetupTagRoutes 设置标签相关路由
func SetupTagRoutes(rg *gin.RouterGroup, tagService *tag.Service, workspaces Workspaces, validator *URLValidator) {
	tagHandler := NewTagHandler(tagService, workspaces, validator)

	rg.GET("/tags", tagHandler.GetTags)
	rg.GET("/tags/:id/image", tagHandler.GetTagImage)
}

// GetTags 获取合并后的词表，支持 category / q / limit / offset 过滤
func (h *TagHandler) GetTags(c *gin.Context) {
	vocab, err := h.workspaces.For(c).Vocabulary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	query := tag.Query{
		Category: c.Query("category"),
		Search:   c.Query("q"),
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		query.Limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil {
		query.Offset = v
	}

	page := vocab.Filter(query)
	c.JSON(http.StatusOK, tag.TagResponse{
		Success:    true,
		Tags:       page.Tags,
		Categories: vocab.Categories,
		Total:      page.Total,
		HasMore:    page.HasMore,
	})
}

// GetTagImage 代理获取系统标签的示例图
func (h *TagHandler) GetTagImage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	t, err := h.tagService.GetTag(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !strings.HasPrefix(t.ImageURL, "http") {
		respondError(c, domainerrors.NotFound("Tag has no image"))
		return
	}
	if err := h.validator.ValidateURL(t.ImageURL); err != nil {
		log.Warnf("标签 %d 图片地址未通过校验: %v", id, err)
		respondError(c, domainerrors.NotFound("Tag has no image"))
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, t.ImageURL, nil)
	if err != nil {
		respondError(c, domainerrors.NotFound("Tag has no image"))
		return
	}
	req.Header.Set("User-Agent", "MoriTags")

	resp, err := h.client.Do(req)
	if err != nil {
		log.Warnf("获取标签 %d 图片失败: %v", id, err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "代理请求失败"})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "代理请求失败"})
		return
	}

	for _, name := range []string{"Content-Type", "Content-Length", "Cache-Control", "ETag", "Last-Modified"} {
		if v := resp.Header.Get(name); v != "" {
			c.Header(name, v)
		}
	}
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		// 已经开始写入，只记录日志
		log.Warnf("复制图片响应失败: %v", err)
	}
}
