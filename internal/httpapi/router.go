package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/aigen"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/common"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/config"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/history"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/httpapi/handlers"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/httpapi/middleware"
)

func NewRouter(db *gorm.DB, cfg config.Config, cache history.RecentCache, reg *aigen.Registry) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := handlers.NewHandler(db, cfg, cache, reg)

	r.GET("/health", h.Health)

	authGroup := r.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.GET("/profile", middleware.AuthRequired(cfg.JWTSecret), h.Profile)

	// generation works anonymously; a resolved user additionally gets
	// history and records persisted
	imageGroup := r.Group("/image")
	imageGroup.Use(middleware.AuthOptional(cfg.JWTSecret))
	imageGroup.POST("/generate", h.Generate)
	imageGroup.POST("/generate-from-text", h.GenerateFromText)
	imageGroup.POST("/simple-test", h.SimpleTest)

	historyGroup := r.Group("/history")
	historyGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	historyGroup.GET("/chat-history", h.ListSessions)
	historyGroup.GET("/chat-history/:session_id", h.GetSessionHistory)
	historyGroup.DELETE("/chat-history/:session_id", h.DeleteSessionHistory)
	historyGroup.GET("/generation-records", h.ListGenerationRecords)
	historyGroup.GET("/recent-chat-messages", h.RecentChatMessages)

	statsGroup := r.Group("/stats")
	statsGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	statsGroup.GET("/overview", h.StatsOverview)

	return r
}
