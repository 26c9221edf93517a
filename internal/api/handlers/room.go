package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"story_game/internal/service"
)

// RoomHandler 處理與房間相關的 HTTP 請求
type RoomHandler struct {
	roomService *service.RoomService
}

// NewRoomHandler 創建一個新的 RoomHandler 實例
func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

// GetRoom 處理查詢房間的請求
func (h *RoomHandler) GetRoom(c *gin.Context) {
	code, err := strconv.Atoi(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的房間號碼"})
		return
	}

	room, err := h.roomService.GetRoom(code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if room == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "房間不存在"})
		return
	}

	c.JSON(http.StatusOK, room)
}
