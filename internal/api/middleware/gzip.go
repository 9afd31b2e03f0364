package middleware

import (
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
)

type gzipWriter struct {
	gin.ResponseWriter
	writer *gzip.Writer
}

func (g *gzipWriter) Write(data []byte) (int, error) {
	g.Header().Del("Content-Length")
	return g.writer.Write(data)
}

func (g *gzipWriter) WriteString(s string) (int, error) {
	g.Header().Del("Content-Length")
	return g.writer.Write([]byte(s))
}

func (g *gzipWriter) WriteHeader(code int) {
	g.Header().Del("Content-Length")
	g.ResponseWriter.WriteHeader(code)
}

func (g *gzipWriter) Flush() {
	_ = g.writer.Flush()
	g.ResponseWriter.Flush()
}

// Gzip compresses responses for clients that accept it. Requests whose
// path starts with one of the excluded prefixes, and WebSocket upgrades,
// pass through untouched.
func Gzip(level int, excluded ...string) gin.HandlerFunc {
	pool := sync.Pool{
		New: func() interface{} {
			w, err := gzip.NewWriterLevel(io.Discard, level)
			if err != nil {
				w = gzip.NewWriter(io.Discard)
			}
			return w
		},
	}

	return func(c *gin.Context) {
		if !shouldCompress(c.Request, excluded) {
			c.Next()
			return
		}

		gz := pool.Get().(*gzip.Writer)
		gz.Reset(c.Writer)

		c.Header("Content-Encoding", "gzip")
		c.Header("Vary", "Accept-Encoding")
		original := c.Writer
		c.Writer = &gzipWriter{ResponseWriter: original, writer: gz}

		defer func() {
			if original.Size() < 0 && !original.Written() {
				// Nothing was written; an empty gzip stream would still
				// produce a body.
				original.Header().Del("Content-Encoding")
				gz.Reset(io.Discard)
			}
			_ = gz.Close()
			c.Writer = original
			pool.Put(gz)
		}()

		c.Next()
	}
}

func shouldCompress(r *http.Request, excluded []string) bool {
	if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		return false
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") ||
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade") {
		return false
	}
	for _, prefix := range excluded {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return false
		}
	}
	return true
}
