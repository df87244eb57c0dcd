package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func setupRoutes(router *gin.Engine, s *Server) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")
	{
		apiGroup.POST("/segment", s.handleSegment)
	}
}
