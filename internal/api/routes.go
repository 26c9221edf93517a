package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"story_game/internal/api/handlers"
	"story_game/internal/service"
)

func SetupRoutes(r *gin.Engine, services *service.Services) {
	// 初始化 handlers
	roomHandler := handlers.NewRoomHandler(services.Room)
	scenarioHandler := handlers.NewScenarioHandler(services.Scenario)
	wsHandler := handlers.NewWebSocketHandler(services)

	// API 路由群組
	api := r.Group("/api")

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	// 基本的健康檢查
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// 房間查詢
	api.GET("/rooms/:code", roomHandler.GetRoom)

	// 劇情資料建置與查詢
	scenarios := api.Group("/scenarios")
	{
		scenarios.POST("", scenarioHandler.CreateScenario)
		scenarios.GET("", scenarioHandler.ListScenarios)
		scenarios.GET("/:id", scenarioHandler.GetScenario)
	}

	// WebSocket 連接點，遊戲事件都走這裡
	r.GET("/ws", wsHandler.HandleWebSocket)
}
