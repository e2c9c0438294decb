// internal/infra/api/router.go
package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string
}

// NewRouter wires the REST routes onto a gin engine.
func NewRouter(h *Handler, cfg RouterConfig, logger *logrus.Entry) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/", h.Home)
	router.GET("/health", h.Health)
	router.GET("/api/vaccination-schedule", h.ListSchedule)
	router.GET("/api/vaccination-schedule/:age", h.ListSchedule)

	protected := router.Group("/api")
	protected.Use(AuthMiddleware([]byte(cfg.JWTSecret), logger))
	{
		protected.POST("/reminder/:babyId", h.RegenerateReminders)
		protected.GET("/baby", h.ListBabies)
		protected.POST("/baby", h.AddBaby)
		protected.PUT("/baby/:id/birth-date", h.CorrectBirthDate)
		protected.GET("/baby/:id/schedule", h.BabySchedule)
		protected.GET("/baby/:id/reminders", h.BabyReminders)
	}

	return router
}
