package router

import (
	"github.com/gin-gonic/gin"

	"specforge.app/specforge/internal/http/handler"
)

func SetupRoutes(router *gin.Engine, specHandler *handler.SpecHandler) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/specs", specHandler.Create)
	}
}
