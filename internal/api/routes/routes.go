package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/api/handlers"
	"github.com/yoockh/yoointerview/internal/api/middleware"
)

const apiVersion = "1.0.0"

type Deps struct {
	Interview *handlers.InterviewHandler
	Audio     *handlers.AudioHandler
	Emotion   *handlers.EmotionHandler
	Avatar    *handlers.AvatarHandler
	WS        *handlers.WSHandler

	CORSOrigins []string
	// Auth is nil when authentication is disabled.
	Auth *middleware.JWTConfig
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(cors.New(corsConfig(d.CORSOrigins)))

	// Health-ish
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "online",
			"message": "AI Virtual Interview Assistant API",
			"version": apiVersion,
		})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"services": gin.H{
				"api":       "running",
				"websocket": "ready",
			},
		})
	})
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := r.Group("/api")
	if d.Auth != nil {
		api.Use(middleware.JWTAuth(*d.Auth))
	}
	admin := api.Group("/admin")
	if d.Auth != nil {
		admin.Use(middleware.RequireAdmin())
	}

	iv := api.Group("/interview")
	iv.POST("/start", d.Interview.Start)
	iv.POST("/answer/:session_id", d.Interview.Answer)
	iv.GET("/status/:session_id", d.Interview.Status)
	iv.DELETE("/end/:session_id", d.Interview.End)
	iv.GET("/summary/:session_id", d.Interview.Summary)
	iv.GET("/followup/:session_id", d.Interview.FollowUp)
	iv.GET("/history", d.Interview.History)
	iv.GET("/ws/:session_id", d.WS.InterviewWS)

	au := api.Group("/audio")
	au.POST("/transcribe", d.Audio.Transcribe)
	au.POST("/translate", d.Audio.Translate)

	em := api.Group("/emotion")
	em.POST("/analyze", d.Emotion.Analyze)
	em.POST("/analyze-base64", d.Emotion.AnalyzeBase64)
	em.POST("/batch-analyze", d.Emotion.BatchAnalyze)
	em.GET("/health", d.Emotion.Health)

	av := api.Group("/avatar")
	av.POST("/generate", d.Avatar.Generate)
	av.GET("/status/:job_id", d.Avatar.Status)
	av.GET("/voices", d.Avatar.Voices)
	av.GET("/presenters", d.Avatar.Presenters)

	admin.GET("/sessions", d.Interview.Sessions)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
