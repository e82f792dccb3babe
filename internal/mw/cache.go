package mw

import (
	"bytes"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache holds cached GET responses. Every Flush starts a new
// generation, and a response rendered under an older generation is never
// stored.
type ResponseCache struct {
	items *cache.Cache
	ttl   time.Duration

	mu         sync.Mutex
	generation uint64
}

// NewResponseCache creates a ResponseCache whose entries live for ttl.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{items: cache.New(ttl, 2*ttl), ttl: ttl}
}

// Flush drops every cached response, including ones still being rendered.
func (rc *ResponseCache) Flush() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.generation++
	rc.items.Flush()
}

func (rc *ResponseCache) currentGeneration() uint64 {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.generation
}

// store saves resp unless the cache was flushed after generation was read.
func (rc *ResponseCache) store(key string, resp cachedResponse, generation uint64) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if generation != rc.generation {
		return false
	}
	rc.items.Set(key, resp, rc.ttl)
	return true
}

// Cache serves repeated GET requests for the record lists from memory.
// Degraded list responses are not cached, so a backend outage is retried
// on the next request.
func Cache(rc *ResponseCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if resp, found := rc.items.Get(key); found {
			cached := resp.(cachedResponse)
			for k, v := range cached.headers {
				c.Writer.Header()[k] = v
			}
			c.Writer.Header().Set("X-Cache", "HIT")
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		generation := rc.currentGeneration()
		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		if blw.Status() >= 200 && blw.Status() < 300 && !c.GetBool(DegradedKey) {
			resp := cachedResponse{
				status:  blw.Status(),
				headers: blw.Header().Clone(),
				body:    blw.body.Bytes(),
			}
			if !rc.store(key, resp, generation) {
				log.Printf("Not caching %s: cache was flushed while it was rendered", key)
			}
		}
	}
}

// DegradedKey marks a response built from a failed backend read.
const DegradedKey = "degraded"

// Invalidate flushes rc after every successful write, so a list read
// that follows an insert sees the new row.
func Invalidate(rc *ResponseCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet {
			return
		}
		if status := c.Writer.Status(); status >= 200 && status < 300 {
			rc.Flush()
			log.Printf("Response cache flushed after %s %s", c.Request.Method, c.FullPath())
		}
	}
}
