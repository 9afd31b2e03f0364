package tracing

import (
	"github.com/gin-gonic/gin"
)

// HeaderRequestID carries the trace id in both directions.
const HeaderRequestID = "X-Request-ID"

// maxInboundID bounds client supplied ids.
const maxInboundID = 128

// HTTPMiddleware starts a span per request. An inbound X-Request-ID is
// reused as the trace id and echoed back.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if inbound := c.GetHeader(HeaderRequestID); inbound != "" && len(inbound) <= maxInboundID {
			ctx = WithTraceID(ctx, TraceID(inbound))
		}

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+name)
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.path", c.Request.URL.Path)

		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderRequestID, string(span.TraceID))

		c.Next()

		span.SetStatus(c.Writer.Status())
		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}

		span.Finish()
		tracer.Submit(span)
	}
}
