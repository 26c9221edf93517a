package models

// Envelope 是所有 WebSocket 回應的統一包裝格式
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Body    interface{} `json:"body"`
}

// Frame 表示一個帶事件名稱的完整外送訊息
type Frame struct {
	Event string   `json:"event"`
	Data  Envelope `json:"data"`
}

// InboundMessage 表示客戶端傳入的一則訊息
type InboundMessage struct {
	Event          string `json:"event"`
	RoomCode       string `json:"roomCode,omitempty"`
	Name           string `json:"name,omitempty"`
	Avatar         string `json:"avatar,omitempty"`
	OptionID       string `json:"optionId,omitempty"`
	NextScenarioID string `json:"nextScenarioId,omitempty"`
	TargetPlayerID string `json:"targetPlayerId,omitempty"`
}

// 客戶端事件名稱
const (
	EventRoomCreate   = "room:create"
	EventRoomJoin     = "room:join"
	EventRoomLeave    = "room:leave"
	EventGameStart    = "game:start"
	EventGameRestart  = "game:restart"
	EventVoteSubmit   = "vote:submit"
	EventVoteEnd      = "vote:end"
	EventScenarioNext = "scenario:next"
	EventPlayerKick   = "player:kick"
)

// 伺服器事件名稱
const (
	EventConnectionReady = "connection:ready"
	EventRoomCreated     = "room:created"
	EventRoomJoined      = "room:joined"
	EventRoomClosed      = "room:closed"
	EventRoomError       = "room:error"
	EventPlayerJoined    = "player:joined"
	EventPlayerLeft      = "player:left"
	EventGameStarted     = "game:started"
	EventGameRestarted   = "game:restarted"
	EventGameEnded       = "game:ended"
	EventVoteSuccess     = "vote:success"
	EventVoteResult      = "vote:result"
	EventVoteError       = "vote:error"
	EventScenarioShow    = "scenario:show"
	EventScenarioError   = "scenario:error"
)
