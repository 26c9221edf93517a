package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"story_game/internal/models"
	"story_game/internal/service"
)

// 定義 WebSocket 升級器
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 注意：在生產環境中，應該檢查 origin
	},
}

// eventHandler 處理一種客戶端事件
type eventHandler func(client *service.Client, msg models.InboundMessage)

// WebSocketHandler 處理 WebSocket 連線與事件分派
type WebSocketHandler struct {
	wsManager *service.WebSocketManager
	rooms     *service.RoomService
	session   *service.SessionService
	game      *service.GameService
	vote      *service.VoteService
	scenario  *service.ScenarioService
	routes    map[string]eventHandler
}

// NewWebSocketHandler 創建一個新的 WebSocketHandler 實例
// 事件分派表在這裡建好：每個客戶端事件對應一個處理函式，
// 不在表上的事件一律回覆錯誤
func NewWebSocketHandler(services *service.Services) *WebSocketHandler {
	h := &WebSocketHandler{
		wsManager: services.WebSocketManager,
		rooms:     services.Room,
		session:   services.Session,
		game:      services.Game,
		vote:      services.Vote,
		scenario:  services.Scenario,
	}
	h.routes = map[string]eventHandler{
		models.EventRoomCreate:   h.handleRoomCreate,
		models.EventRoomJoin:     h.handleRoomJoin,
		models.EventRoomLeave:    h.handleRoomLeave,
		models.EventGameStart:    h.handleGameStart,
		models.EventGameRestart:  h.handleGameRestart,
		models.EventVoteSubmit:   h.handleVoteSubmit,
		models.EventVoteEnd:      h.handleVoteEnd,
		models.EventScenarioNext: h.handleScenarioNext,
		models.EventPlayerKick:   h.handlePlayerKick,
	}
	return h
}

// HandleWebSocket 處理 WebSocket 連線請求
// 每個連線分配一個 uuid 作為連線身份，先回覆 connection:ready
// 再開始收訊息
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "升級WebSocket失敗"})
		return
	}

	client := service.NewClient(conn, uuid.NewString())
	h.wsManager.Register(client)
	log.Info().Str("conn", client.ConnectionID).Msg("client connected")

	h.wsManager.SendTo(client.ConnectionID, models.EventConnectionReady,
		gin.H{"connectionId": client.ConnectionID}, "連線成功")

	h.readPump(client)
}

// readPump 持續接收客戶端訊息並分派，連線中斷時處理斷線清理
func (h *WebSocketHandler) readPump(client *service.Client) {
	defer func() {
		h.handleDisconnect(client)
		h.wsManager.Unregister(client.ConnectionID)
		client.Conn.Close()
		log.Info().Str("conn", client.ConnectionID).Msg("client disconnected")
	}()

	client.Conn.SetReadLimit(4096)
	client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg models.InboundMessage
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("conn", client.ConnectionID).Msg("websocket unexpected close")
			}
			return
		}

		handler, ok := h.routes[msg.Event]
		if !ok {
			h.wsManager.SendErrorTo(client.ConnectionID, models.EventRoomError, "未知的事件")
			continue
		}
		handler(client, msg)
	}
}

// handleRoomCreate 建立房間
// Event: "room:create"
func (h *WebSocketHandler) handleRoomCreate(client *service.Client, msg models.InboundMessage) {
	room, err := h.session.CreateRoom(client.ConnectionID, msg.Name, msg.Avatar)
	if err != nil {
		h.wsManager.SendErrorTo(client.ConnectionID, models.EventRoomError, err.Error())
		return
	}

	h.wsManager.JoinChannel(client.ConnectionID, room.Code)
	h.wsManager.SendTo(client.ConnectionID, models.EventRoomCreated, gin.H{
		"code":    room.Code,
		"hostId":  room.HostID,
		"players": room.Players,
		"status":  room.Status,
	}, "房間建立成功")
}

// handleRoomJoin 加入房間
// Event: "room:join"  Data: roomCode, name, avatar
func (h *WebSocketHandler) handleRoomJoin(client *service.Client, msg models.InboundMessage) {
	room, err := h.session.Join(msg.RoomCode, client.ConnectionID, msg.Name, msg.Avatar)
	if err != nil {
		h.wsManager.SendErrorTo(client.ConnectionID, models.EventRoomError, err.Error())
		return
	}

	h.wsManager.JoinChannel(client.ConnectionID, room.Code)

	// 通知自己加入成功
	h.wsManager.SendTo(client.ConnectionID, models.EventRoomJoined, room, "加入房間成功")

	// 通知房間內其他人
	h.wsManager.BroadcastExcept(client.ConnectionID, room.Code, models.EventPlayerJoined, gin.H{
		"playerId": client.ConnectionID,
		"players":  room.Players,
	}, "有新玩家加入")
}

// handleGameStart 開始遊戲並推送第一關場景
// Event: "game:start"（僅房主）
func (h *WebSocketHandler) handleGameStart(client *service.Client, msg models.InboundMessage) {
	room := h.mustFindRoom(client, models.EventRoomError)
	if room == nil {
		return
	}

	updated, root, err := h.game.Start(room.Code, client.ConnectionID)
	if err != nil {
		h.wsManager.SendErrorTo(client.ConnectionID, models.EventRoomError, err.Error())
		return
	}

	h.wsManager.Broadcast(updated.Code, models.EventGameStarted, gin.H{"room": updated}, "遊戲已開始")
	h.wsManager.Broadcast(updated.Code, models.EventScenarioShow, root, "第一關場景")
}

// handleGameRestart 重新開始遊戲
// Event: "game:restart"（僅房主）
func (h *WebSocketHandler) handleGameRestart(client *service.Client, msg models.InboundMessage) {
	room := h.mustFindRoom(client, models.EventRoomError)
	if room == nil {
		return
	}

	updated, err := h.game.Restart(room.Code, client.ConnectionID)
	if err != nil {
		h.wsManager.SendErrorTo(client.ConnectionID, models.EventRoomError, err.Error())
		return
	}

	h.wsManager.Broadcast(updated.Code, models.EventGameRestarted, gin.H{"room": updated}, "遊戲已重新開始")
}

// handleVoteSubmit 紀錄投票；全員投完時自動結算
// Event: "vote:submit"  Data: optionId
func (h *WebSocketHandler) handleVoteSubmit(client *service.Client, msg models.InboundMessage) {
	room := h.mustFindRoom(client, models.EventVoteError)
	if room == nil {
		return
	}

	updated, err := h.vote.SubmitVote(room.Code, client.ConnectionID, msg.OptionID)
	if err != nil {
		h.wsManager.SendErrorTo(client.ConnectionID, models.EventVoteError, err.Error())
		return
	}

	h.wsManager.SendTo(client.ConnectionID, models.EventVoteSuccess,
		gin.H{"optionId": msg.OptionID}, "投票成功")

	if service.AllVotesIn(updated) {
		result, err := h.vote.AutoTally(updated)
		if err != nil {
			h.wsManager.SendErrorTo(client.ConnectionID, models.EventVoteError, err.Error())
			return
		}
		h.announceTally(updated.Code, result)
	}
}

// handleVoteEnd 房主強制結算（投票時間到由客戶端計時器觸發）
// Event: "vote:end"（僅房主）
func (h *WebSocketHandler) handleVoteEnd(client *service.Client, msg models.InboundMessage) {
	room := h.mustFindRoom(client, models.EventVoteError)
	if room == nil {
		return
	}

	result, err := h.vote.Tally(room.Code, client.ConnectionID)
	if err != nil {
		h.wsManager.SendErrorTo(client.ConnectionID, models.EventVoteError, err.Error())
		return
	}
	h.announceTally(room.Code, result)
}

// announceTally 廣播結算結果；結果為 nil 表示這次結算被搶先，不廣播
// 下一關為 null 時劇情已到結局，把房間收尾為 ended
func (h *WebSocketHandler) announceTally(roomCode int, result *service.TallyResult) {
	if result == nil {
		return
	}

	h.wsManager.Broadcast(roomCode, models.EventVoteResult, result, "投票結果")

	if result.NextScenarioID == nil {
		ended, err := h.game.Finish(roomCode)
		if err != nil {
			log.Error().Err(err).Int("code", roomCode).Msg("failed to finish game")
			return
		}
		h.wsManager.Broadcast(roomCode, models.EventGameEnded, gin.H{"room": ended}, "劇情已到結局")
	}
}

// handleScenarioNext 推送下一關場景給整個房間
// Event: "scenario:next"  Data: nextScenarioId
func (h *WebSocketHandler) handleScenarioNext(client *service.Client, msg models.InboundMessage) {
	room := h.mustFindRoom(client, models.EventScenarioError)
	if room == nil {
		return
	}

	scenario, err := h.scenario.GetByID(msg.NextScenarioID)
	if err != nil {
		h.wsManager.SendErrorTo(client.ConnectionID, models.EventScenarioError, err.Error())
		return
	}

	h.wsManager.Broadcast(room.Code, models.EventScenarioShow, scenario, "下一關場景")
}

// handleRoomLeave 主動離開房間
// Event: "room:leave"
func (h *WebSocketHandler) handleRoomLeave(client *service.Client, msg models.InboundMessage) {
	h.handleDisconnect(client)
}

// handlePlayerKick 房主踢除玩家
// Event: "player:kick"  Data: targetPlayerId
func (h *WebSocketHandler) handlePlayerKick(client *service.Client, msg models.InboundMessage) {
	result, err := h.session.Kick(client.ConnectionID, msg.TargetPlayerID)
	if err != nil {
		h.wsManager.SendErrorTo(client.ConnectionID, models.EventRoomError, err.Error())
		return
	}

	// 先廣播（被踢者也會收到），再把被踢者移出頻道
	h.wsManager.Broadcast(result.Room.Code, models.EventPlayerLeft, gin.H{
		"playerId": result.PlayerID,
		"players":  result.Room.Players,
	}, "玩家已被踢出房間")
	h.wsManager.LeaveChannel(result.PlayerID, result.Room.Code)
}

// handleDisconnect 處理離開／斷線：房主離開解散房間，玩家離開更新名單
// 連線不在任何房間時靜默返回
func (h *WebSocketHandler) handleDisconnect(client *service.Client) {
	result, err := h.session.Disconnect(client.ConnectionID)
	if err != nil {
		log.Error().Err(err).Str("conn", client.ConnectionID).Msg("disconnect handling failed")
		return
	}
	if result == nil {
		return
	}

	if result.HostLeft {
		h.wsManager.Broadcast(result.Room.Code, models.EventRoomClosed, nil, "房主已離線，房間已解散")
		h.wsManager.CloseChannel(result.Room.Code)
		return
	}

	h.wsManager.LeaveChannel(client.ConnectionID, result.Room.Code)
	h.wsManager.Broadcast(result.Room.Code, models.EventPlayerLeft, gin.H{
		"playerId": result.PlayerID,
		"players":  result.Room.Players,
	}, "玩家已離開")
}

// mustFindRoom 解析連線目前所屬的房間，不在房間時回覆錯誤
func (h *WebSocketHandler) mustFindRoom(client *service.Client, errorEvent string) *models.Room {
	room, err := h.rooms.FindRoomByConnection(client.ConnectionID)
	if err != nil {
		h.wsManager.SendErrorTo(client.ConnectionID, errorEvent, err.Error())
		return nil
	}
	if room == nil {
		h.wsManager.SendErrorTo(client.ConnectionID, errorEvent, "你不在任何房間內")
		return nil
	}
	return room
}
