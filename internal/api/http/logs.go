package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxLogBatch = 500

// DeviceLogEntry is a log line from the phone companion app.
type DeviceLogEntry struct {
	Level     string                 `json:"level"`
	Tag       string                 `json:"tag"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context"`
	Timestamp int64                  `json:"timestamp"`
}

// DeviceLogBatch is a batch of phone log lines.
type DeviceLogBatch struct {
	Source  string           `json:"source"`
	Entries []DeviceLogEntry `json:"entries"`
}

// StreamLogs merges phone-side logs into the daemon log.
func (h *Handlers) StreamLogs(c *gin.Context) {
	var req DeviceLogBatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid log batch"})
		return
	}
	if len(req.Entries) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no log entries provided"})
		return
	}
	if len(req.Entries) > maxLogBatch {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too many log entries"})
		return
	}

	source := req.Source
	if source == "" {
		source = "phone"
	}
	logger := h.log.Named("device").With(zap.String("source", source))
	for _, entry := range req.Entries {
		logEntry(logger, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"entries_received": len(req.Entries),
		"timestamp":        time.Now().Unix(),
	})
}

func logEntry(logger *zap.Logger, entry DeviceLogEntry) {
	fields := make([]zap.Field, 0, len(entry.Context)+2)
	fields = append(fields, zap.String("tag", entry.Tag), zap.Int64("device_time", entry.Timestamp))
	for key, value := range entry.Context {
		switch v := value.(type) {
		case string:
			fields = append(fields, zap.String(key, v))
		case float64:
			fields = append(fields, zap.Float64(key, v))
		case bool:
			fields = append(fields, zap.Bool(key, v))
		default:
			fields = append(fields, zap.Any(key, v))
		}
	}

	switch entry.Level {
	case "error", "E":
		logger.Error(entry.Message, fields...)
	case "warn", "W":
		logger.Warn(entry.Message, fields...)
	case "debug", "verbose", "D", "V":
		logger.Debug(entry.Message, fields...)
	default:
		logger.Info(entry.Message, fields...)
	}
}
