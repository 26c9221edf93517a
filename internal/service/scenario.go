package service

import (
	"errors"

	"story_game/internal/models"
	"story_game/internal/repository"
)

// ScenarioService 提供劇情圖的查詢，以及建置劇情資料的寫入口
type ScenarioService struct {
	scenarioRepo repository.ScenarioRepository
}

func NewScenarioService(scenarioRepo repository.ScenarioRepository) *ScenarioService {
	return &ScenarioService{scenarioRepo: scenarioRepo}
}

// GetRoot 取得第一關場景
func (s *ScenarioService) GetRoot() (*models.Scenario, error) {
	scenario, err := s.scenarioRepo.GetRoot()
	if err != nil {
		return nil, NewInternalError("查詢場景失敗")
	}
	if scenario == nil {
		return nil, NewNotFoundError("無法取得第一關場景")
	}
	return scenario, nil
}

// GetByID 透過 ID 取得場景，ID 格式不合法時回傳驗證錯誤
func (s *ScenarioService) GetByID(id string) (*models.Scenario, error) {
	scenario, err := s.scenarioRepo.GetByID(id)
	if errors.Is(err, repository.ErrInvalidScenarioID) {
		return nil, NewValidationError("無效的場景 ID 格式")
	}
	if err != nil {
		return nil, NewInternalError("查詢場景失敗")
	}
	if scenario == nil {
		return nil, NewNotFoundError("場景不存在")
	}
	return scenario, nil
}

// CreateScenario 建立場景節點（建置劇情資料用）
func (s *ScenarioService) CreateScenario(scenario *models.Scenario) error {
	if scenario.Level < 1 || scenario.Title == "" || scenario.Description == "" {
		return NewValidationError("場景的關卡、標題與描述為必填")
	}
	for _, opt := range scenario.Options {
		if opt.OptionID == "" || opt.Text == "" {
			return NewValidationError("每個選項都需要 optionId 與文字")
		}
	}

	err := s.scenarioRepo.Create(scenario)
	if errors.Is(err, repository.ErrDuplicateLevel) {
		return NewConflictError("同關卡的場景已存在")
	}
	if err != nil {
		return NewInternalError("建立場景失敗")
	}
	return nil
}

// ListScenarios 列出所有場景節點
func (s *ScenarioService) ListScenarios() ([]models.Scenario, error) {
	scenarios, err := s.scenarioRepo.FindAll()
	if err != nil {
		return nil, NewInternalError("查詢場景失敗")
	}
	return scenarios, nil
}
