package models

import (
	"time"
)

// Scenario 表示劇情圖中的一個場景節點
type Scenario struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	Level       int        `gorm:"uniqueIndex;not null" json:"level"` // 第N關，level 1 為起點
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text;not null" json:"description"`
	Duration    int        `gorm:"not null" json:"duration"` // 投票時間，單位為秒
	Options     OptionList `gorm:"type:jsonb;serializer:json" json:"options"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Option 表示場景中的一個選項
type Option struct {
	OptionID       string  `json:"optionId"`
	Text           string  `json:"text"`
	Consequence    string  `json:"consequence"`              // 選項後果描述
	NextScenarioID *string `json:"nextScenarioId,omitempty"` // null 代表遊戲結局
}

// OptionList 為選項列表，tally 掃描時依宣告順序進行
type OptionList []Option

// FindOption 依 optionId 取得選項
func (l OptionList) FindOption(optionID string) (Option, bool) {
	for _, o := range l {
		if o.OptionID == optionID {
			return o, true
		}
	}
	return Option{}, false
}
