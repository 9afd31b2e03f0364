package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS lets browser renderers on the local network reach the API and the
// frame stream. An empty origin list, or one containing "*", allows every
// origin. Entries may carry one wildcard, e.g. "http://192.168.*".
// Credentials are never allowed.
func CORS(origins []string) (gin.HandlerFunc, error) {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	cfg.AddAllowHeaders("Accept", "Cache-Control", "X-Requested-With", "X-Request-ID")
	cfg.AddExposeHeaders("X-Request-ID", "Retry-After")
	cfg.AllowWebSockets = true

	if allowsAnyOrigin(origins) {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowWildcard = true
	}

	for _, o := range cfg.AllowOrigins {
		if strings.Count(o, "*") > 1 {
			return nil, fmt.Errorf("cors: origin %q has more than one wildcard", o)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cors: %w", err)
	}
	return cors.New(cfg), nil
}

func allowsAnyOrigin(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
