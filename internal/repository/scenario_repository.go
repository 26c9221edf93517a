package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"story_game/internal/models"
	"story_game/internal/storage"
)

// ErrInvalidScenarioID 表示場景 ID 不是合法的識別字格式
var ErrInvalidScenarioID = errors.New("invalid scenario id format")

// ErrDuplicateLevel 表示同一關卡編號的場景已存在
var ErrDuplicateLevel = errors.New("scenario level already exists")

// RootLevel 是劇情圖入口場景的關卡編號
const RootLevel = 1

// ScenarioRepository 定義場景實體的資料操作，劇情圖本身只讀
// Create 與 FindAll 僅供建置劇情資料使用
type ScenarioRepository interface {
	Create(scenario *models.Scenario) error
	FindAll() ([]models.Scenario, error)
	GetRoot() (*models.Scenario, error)
	GetByID(id string) (*models.Scenario, error)
}

type scenarioRepository struct {
	base BaseRepository[models.Scenario]
}

func NewScenarioRepository(db *storage.PostgresDB) ScenarioRepository {
	return &scenarioRepository{base: NewBaseRepository[models.Scenario](db)}
}

func (r *scenarioRepository) Create(scenario *models.Scenario) error {
	if scenario.ID == "" {
		scenario.ID = uuid.NewString()
	}
	err := r.base.Create(scenario)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateLevel
	}
	return err
}

func (r *scenarioRepository) FindAll() ([]models.Scenario, error) {
	return r.base.FindAll(map[string]interface{}{})
}

// GetRoot 取得第一關場景，查無資料時回傳 (nil, nil)
func (r *scenarioRepository) GetRoot() (*models.Scenario, error) {
	return r.base.FindOne(map[string]interface{}{"level": RootLevel})
}

// GetByID 透過 ID 取得場景，先驗證 ID 格式再查詢
func (r *scenarioRepository) GetByID(id string) (*models.Scenario, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidScenarioID
	}
	return r.base.FindOne(map[string]interface{}{"id": id})
}
