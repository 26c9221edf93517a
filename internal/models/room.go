package models

import (
	"time"
)

// Room 表示一個遊戲房間
// code 為 6 位數房間號碼，在現存房間中必須唯一（房間刪除後可重用）
type Room struct {
	ID                uint       `gorm:"primaryKey" json:"-"`
	Code              int        `gorm:"uniqueIndex;not null" json:"code"`
	HostID            string     `gorm:"not null" json:"hostId"`
	Players           PlayerList `gorm:"type:jsonb;serializer:json" json:"players"`
	Status            RoomStatus `gorm:"type:varchar(20);not null" json:"status"`
	CurrentScenarioID *string    `json:"currentScenarioId"`
	CurrentVotes      VoteMap    `gorm:"type:jsonb;serializer:json" json:"currentVotes"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// RoomStatus 定義房間狀態的類型
type RoomStatus string

const (
	RoomStatusWaiting RoomStatus = "waiting"
	RoomStatusPlaying RoomStatus = "playing"
	RoomStatusEnded   RoomStatus = "ended"
)

// Player 表示房間內的一位玩家
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// PlayerList 為玩家列表，維持加入順序，id 不重複
type PlayerList []Player

// Contains 檢查玩家是否已在列表中
func (l PlayerList) Contains(playerID string) bool {
	for _, p := range l {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

// VoteMap 紀錄 playerId -> optionId 的投票結果
// key 永遠是目前房間內非房主玩家的子集合
type VoteMap map[string]string

// HasPlayer 檢查連線是否為房主或房間內玩家
func (r *Room) HasPlayer(connectionID string) bool {
	return r.HostID == connectionID || r.Players.Contains(connectionID)
}
