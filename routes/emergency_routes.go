package routes

import (
	handlers "happyshaa/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

// SetupEmergencyRoutes registers the monitoring, alert, settings, log and
// relay endpoints. classifyLimit throttles the endpoints that reach the
// vision model or the telephony provider.
func SetupEmergencyRoutes(r *gin.RouterGroup, emergency *handlers.EmergencyHandler, relay *handlers.RelayHandler, auth, classifyLimit gin.HandlerFunc) {
	group := r.Group("/emergency")
	group.Use(auth)
	{
		monitoring := group.Group("/monitoring")
		monitoring.POST("/start", emergency.StartMonitoring)
		monitoring.POST("/stop", emergency.StopMonitoring)
		monitoring.GET("/status", emergency.GetStatus)
		monitoring.POST("/frame", classifyLimit, emergency.PushFrame)
		monitoring.POST("/location", emergency.UpdateLocation)

		group.POST("/alert/cancel", emergency.CancelAlert)

		group.GET("/settings", emergency.GetSettings)
		group.PUT("/settings", emergency.UpdateSettings)

		group.GET("/logs", emergency.GetLogs)

		group.POST("/classify", classifyLimit, relay.Classify)
		group.POST("/notify", classifyLimit, relay.Notify)
	}
}

func SetupContactRoutes(r *gin.RouterGroup, contacts *handlers.ContactHandler, auth gin.HandlerFunc) {
	group := r.Group("/contacts")
	group.Use(auth)
	{
		group.GET("", contacts.List)
		group.POST("", contacts.Create)
		group.DELETE("/:id", contacts.Delete)
		group.PUT("/:id/emergency", contacts.SetEmergency)
	}
}
