package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"story_game/internal/models"
	"story_game/internal/service"
)

// ScenarioHandler 處理劇情資料建置與查詢的 HTTP 請求
type ScenarioHandler struct {
	scenarioService *service.ScenarioService
}

// NewScenarioHandler 創建一個新的 ScenarioHandler 實例
func NewScenarioHandler(scenarioService *service.ScenarioService) *ScenarioHandler {
	return &ScenarioHandler{scenarioService: scenarioService}
}

// statusOf 把核心錯誤種類轉成 HTTP 狀態碼
func statusOf(err error) int {
	switch service.KindOf(err) {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindConflict:
		return http.StatusConflict
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// CreateScenario 處理建立場景節點的請求
func (h *ScenarioHandler) CreateScenario(c *gin.Context) {
	var input models.Scenario
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.scenarioService.CreateScenario(&input); err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, input)
}

// ListScenarios 處理列出所有場景的請求
func (h *ScenarioHandler) ListScenarios(c *gin.Context) {
	scenarios, err := h.scenarioService.ListScenarios()
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, scenarios)
}

// GetScenario 處理查詢單一場景的請求
func (h *ScenarioHandler) GetScenario(c *gin.Context) {
	scenario, err := h.scenarioService.GetByID(c.Param("id"))
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, scenario)
}
