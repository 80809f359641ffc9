package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/yoockh/barta/internal/api/handlers"
	"github.com/yoockh/barta/internal/api/middleware"
)

type Deps struct {
	Auth      middleware.AuthConfig
	Knowledge *handlers.KnowledgeHandler
	Chat      *handlers.ChatHandler
	Calls     *handlers.CallHandler
	Dictation *handlers.DictationHandler
	WS        *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth(d.Auth))
	edit := middleware.RequireEditor()

	auth.GET("/stats", d.Calls.Stats)
	auth.GET("/console", d.Chat.Console)

	auth.GET("/templates", d.Knowledge.ListTemplates)
	auth.POST("/templates", edit, d.Knowledge.AddTemplate)
	auth.DELETE("/templates/:id", edit, d.Knowledge.DeleteTemplate)

	auth.GET("/triggers", d.Knowledge.ListTriggers)
	auth.POST("/triggers", edit, d.Knowledge.AddTrigger)
	auth.DELETE("/triggers/:id", edit, d.Knowledge.DeleteTrigger)

	auth.GET("/tasks", d.Knowledge.ListTasks)
	auth.POST("/tasks/:id/toggle", edit, d.Knowledge.ToggleTask)
	auth.DELETE("/tasks/:id", edit, d.Knowledge.DeleteTask)

	auth.GET("/calls", d.Calls.List)
	auth.GET("/calls/:id/recording", d.Calls.Recording)

	auth.GET("/messages", d.Chat.History)
	auth.POST("/messages", edit, d.Chat.Send)

	auth.POST("/dictation", edit, d.Dictation.Transcribe)

	auth.GET("/agent/status", d.WS.AgentStatus)
	auth.POST("/agent/terminate", edit, d.WS.Terminate)

	// WebSocket
	auth.GET("/ws/agent", edit, d.WS.AgentWS)
	auth.GET("/ws/events", d.WS.EventsWS)
}
