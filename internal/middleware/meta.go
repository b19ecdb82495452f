package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey  = "response_meta"
	responseStartKey = "response_meta_start"
)

// ResponseMeta seeds a metadata map and the request start time on the
// context. The processing time is computed lazily by ExtractMeta, which
// handlers call right before writing the body, so the value actually
// reaches the client.
func ResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseStartKey, time.Now())
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// AddMeta attaches a key/value pair to the response metadata.
func AddMeta(c *gin.Context, key string, value interface{}) {
	meta := ensureMeta(c)
	meta[key] = value
}

// ExtractMeta returns the metadata map stored on the context, stamping
// the elapsed processing time at the moment of extraction.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	meta, exists := c.Get(responseMetaKey)
	typed, ok := meta.(map[string]interface{})
	if !exists || !ok {
		return nil
	}
	if _, stamped := typed["processing_time_ms"]; !stamped {
		if v, found := c.Get(responseStartKey); found {
			if start, isTime := v.(time.Time); isTime {
				typed["processing_time_ms"] = time.Since(start).Milliseconds()
			}
		}
	}
	return typed
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
