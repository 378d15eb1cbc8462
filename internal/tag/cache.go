package tag

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const catalogKey = "catalog"

// Lister 系统标签来源
type Lister interface {
	ListTags(ctx context.Context) ([]Tag, error)
}

// CachedCatalog 系统标签缓存。系统标签只由外部种子脚本写入，过期后重新读取。
type CachedCatalog struct {
	source Lister
	cache  *expirable.LRU[string, []Tag]
}

// NewCachedCatalog 创建缓存，ttl 为缓存有效期
func NewCachedCatalog(source Lister, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		source: source,
		cache:  expirable.NewLRU[string, []Tag](1, nil, ttl),
	}
}

// ListTags 命中缓存时返回副本，读取失败的结果不缓存
func (c *CachedCatalog) ListTags(ctx context.Context) ([]Tag, error) {
	if tags, ok := c.cache.Get(catalogKey); ok {
		return append([]Tag(nil), tags...), nil
	}

	tags, err := c.source.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Add(catalogKey, tags)
	return append([]Tag(nil), tags...), nil
}

// Invalidate 清空缓存
func (c *CachedCatalog) Invalidate() {
	c.cache.Purge()
}
