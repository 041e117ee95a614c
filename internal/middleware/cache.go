package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lhu-dashboard-api/internal/dto"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
	cacheSourceKey  = "cache_source"
	cacheStaleKey   = "cache_stale"

	HeaderCacheSource    = "X-Cache-Source"
	HeaderCacheExpiresAt = "X-Cache-Expires-At"
)

// WithResponseMeta initialises response metadata storage on the request context.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
		meta := ensureMeta(c)
		if _, exists := meta["processing_time_ms"]; !exists {
			meta["processing_time_ms"] = time.Since(start).Milliseconds()
		}
	}
}

// SetCacheSource records where the payload came from in the response meta and headers.
func SetCacheSource(c *gin.Context, cache dto.CacheMeta) {
	meta := ensureMeta(c)
	meta[cacheHitKey] = cache.Source != dto.CacheSourceUpstream
	meta[cacheSourceKey] = cache.Source
	meta[cacheStaleKey] = cache.Stale
	if c == nil {
		return
	}
	c.Header(HeaderCacheSource, cache.Source)
	if cache.ExpiresAt != nil {
		c.Header(HeaderCacheExpiresAt, cache.ExpiresAt.UTC().Format(time.RFC3339))
	}
}

// ExtractMeta returns the metadata map stored on the context.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	newMeta := make(map[string]interface{})
	c.Set(responseMetaKey, newMeta)
	return newMeta
}
