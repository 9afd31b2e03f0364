package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(t *testing.T) (*Tracer, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	tracer := New("glassd", zap.New(core))
	return tracer, logs
}

func TestStartSpanContinuesTrace(t *testing.T) {
	tracer, _ := observed(t)
	defer tracer.Close()

	parent, ctx := tracer.StartSpan(context.Background(), "parent")
	assert.True(t, strings.HasPrefix(string(parent.TraceID), "req_"))
	assert.Empty(t, parent.ParentID)

	child, _ := tracer.StartSpan(ctx, "child")
	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)
	assert.NotEqual(t, parent.SpanID, child.SpanID)
}

func TestCloseDrainsSpans(t *testing.T) {
	tracer, logs := observed(t)

	span, _ := tracer.StartSpan(context.Background(), "lookup")
	span.SetError(errors.New("boom"))
	span.Finish()
	tracer.Submit(span)
	tracer.Close()

	entries := logs.FilterMessage("span completed with error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "lookup", entries[0].ContextMap()["operation"])
	assert.Equal(t, 500, span.StatusCode)

	// Submitting after Close is a no-op.
	tracer.Submit(span)
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		inbound string
		status  int
		level   zapcore.Level
	}{
		{name: "generated id", status: http.StatusOK, level: zapcore.DebugLevel},
		{name: "propagated id", inbound: "phone-42", status: http.StatusOK, level: zapcore.DebugLevel},
		{name: "client error", status: http.StatusBadRequest, level: zapcore.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, logs := observed(t)

			var seen TraceID
			router := gin.New()
			router.Use(HTTPMiddleware(tracer))
			router.GET("/health", func(c *gin.Context) {
				seen = GetTraceID(c.Request.Context())
				c.Status(tt.status)
			})

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			if tt.inbound != "" {
				req.Header.Set(HeaderRequestID, tt.inbound)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			tracer.Close()

			got := w.Header().Get(HeaderRequestID)
			assert.NotEmpty(t, got)
			assert.Equal(t, string(seen), got)
			if tt.inbound != "" {
				assert.Equal(t, tt.inbound, got)
			}

			entries := logs.FilterMessage("span completed").All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			assert.Equal(t, "GET /health", entries[0].ContextMap()["operation"])
		})
	}
}
