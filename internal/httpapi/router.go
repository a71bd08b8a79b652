// Package httpapi exposes the tracker over a JSON REST API.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"daily-tracker/internal/service"
)

// Services bundles the services the handlers call into.
type Services struct {
	Users       *service.UserService
	Tasks       *service.TaskService
	Completions *service.CompletionService
	Streaks     *service.StreakService
	Statistics  *service.StatisticsService
}

type Handler struct {
	svc    Services
	logger *zap.SugaredLogger
}

func NewRouter(svc Services, logger *zap.SugaredLogger) *gin.Engine {
	h := &Handler{svc: svc, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))

	api := r.Group("/api/v1")
	api.Use(UserMiddleware(svc.Users))
	{
		api.GET("/tasks", h.ListTasks)
		api.POST("/tasks", h.CreateTask)
		api.GET("/tasks/:id", h.GetTask)
		api.PUT("/tasks/:id", h.UpdateTask)
		api.DELETE("/tasks/:id", h.DeleteTask)
		api.POST("/tasks/:id/complete", h.CompleteTask)
		api.POST("/tasks/:id/uncomplete", h.UncompleteTask)
		api.POST("/tasks/:id/streak/recompute", h.RecomputeStreak)

		api.GET("/statistics/daily", h.DailyStatistics)
		api.GET("/statistics/weekly", h.WeeklyStatistics)
		api.GET("/statistics/history", h.History)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	return r
}
