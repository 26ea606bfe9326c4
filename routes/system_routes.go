package routes

import (
	"context"
	"net/http"
	"time"

	"happyshaa/internal/utils"
	"happyshaa/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports a dependency as healthy when it returns nil.
type HealthCheck func(ctx context.Context) error

// SetupSystemRoutes registers liveness, metrics and static uploads. metrics
// and uploadsDir may be empty.
func SetupSystemRoutes(r *gin.Engine, version string, checks map[string]HealthCheck, metrics http.Handler, uploadsDir string) {
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				deps[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{
			"status":       state,
			"app":          utils.AppName,
			"version":      version,
			"dependencies": deps,
			"timestamp":    time.Now().UTC(),
		})
	})

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}
	if uploadsDir != "" {
		r.Static("/uploads", uploadsDir)
	}
}

// SetupWebSocketRoutes registers the realtime endpoint behind auth.
func SetupWebSocketRoutes(r *gin.RouterGroup, ws *websocket.Handler, auth gin.HandlerFunc) {
	r.GET("/ws", auth, ws.HandleWebSocket)
}
