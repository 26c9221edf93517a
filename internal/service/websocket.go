package service

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"story_game/internal/models"
)

// Gateway 是核心對外宣布結果的訊息出口
// 核心只呼叫這組原語，不關心底層傳輸
type Gateway interface {
	// SendTo 單播給指定連線
	SendTo(connectionID, event string, body interface{}, message string)
	// SendErrorTo 單播錯誤回應，只有失敗者本人會收到
	SendErrorTo(connectionID, event, message string)
	// Broadcast 廣播給房間內所有連線
	Broadcast(roomCode int, event string, body interface{}, message string)
	// BroadcastExcept 廣播給房間內除指定連線外的所有連線
	BroadcastExcept(connectionID string, roomCode int, event string, body interface{}, message string)
	// CloseChannel 解散整個房間頻道（房主離開或房間逾期）
	CloseChannel(roomCode int)
}

const sendQueueSize = 256

// Client 代表一個 WebSocket 客戶端連線
type Client struct {
	Conn         *websocket.Conn
	ConnectionID string

	send chan models.Frame // 外送訊息通道，用於異步傳送
	done chan struct{}     // 關閉後表示連線已登出，不得再送訊息

	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, connectionID string) *Client {
	return &Client{
		Conn:         conn,
		ConnectionID: connectionID,
		send:         make(chan models.Frame, sendQueueSize),
		done:         make(chan struct{}),
	}
}

// shutdown 通知寫入迴圈結束
// send channel 從不關閉：關閉會與併發中的廣播競爭造成 panic，
// 登出後才入列的訊息直接留在通道裡被回收
func (c *Client) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

// WebSocketManager 管理所有的 WebSocket 連線與房間頻道
type WebSocketManager struct {
	clients    map[string]*Client         // connectionID -> client
	rooms      map[int]map[string]*Client // roomCode -> connectionID -> client
	clientsMux sync.RWMutex               // 保護上面兩個 map 的讀寫鎖
}

// NewWebSocketManager 創建並初始化新的 WebSocket 管理器
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients: make(map[string]*Client),
		rooms:   make(map[int]map[string]*Client),
	}
}

// Register 登錄新連線並啟動寫入處理
func (m *WebSocketManager) Register(client *Client) {
	m.clientsMux.Lock()
	m.clients[client.ConnectionID] = client
	m.clientsMux.Unlock()

	go m.writePump(client)
}

// Unregister 移除連線並清掉它所有的房間關聯
func (m *WebSocketManager) Unregister(connectionID string) {
	m.clientsMux.Lock()
	client, ok := m.clients[connectionID]
	if ok {
		delete(m.clients, connectionID)
		for code, members := range m.rooms {
			delete(members, connectionID)
			if len(members) == 0 {
				delete(m.rooms, code)
			}
		}
	}
	m.clientsMux.Unlock()

	if ok {
		client.shutdown()
	}
}

// JoinChannel 把連線掛進房間頻道，之後的房間廣播才收得到
func (m *WebSocketManager) JoinChannel(connectionID string, roomCode int) {
	m.clientsMux.Lock()
	defer m.clientsMux.Unlock()

	client, ok := m.clients[connectionID]
	if !ok {
		return
	}
	if m.rooms[roomCode] == nil {
		m.rooms[roomCode] = make(map[string]*Client)
	}
	m.rooms[roomCode][connectionID] = client
}

// LeaveChannel 把連線移出房間頻道
func (m *WebSocketManager) LeaveChannel(connectionID string, roomCode int) {
	m.clientsMux.Lock()
	defer m.clientsMux.Unlock()

	if members, ok := m.rooms[roomCode]; ok {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(m.rooms, roomCode)
		}
	}
}

// CloseChannel 解散整個房間頻道
// 房間刪除後號碼可被重用，頻道必須跟著清空，
// 否則同號碼的新房間會把訊息廣播給舊房間的成員
func (m *WebSocketManager) CloseChannel(roomCode int) {
	m.clientsMux.Lock()
	defer m.clientsMux.Unlock()
	delete(m.rooms, roomCode)
}

// SendTo 單播給指定連線
func (m *WebSocketManager) SendTo(connectionID, event string, body interface{}, message string) {
	frame := models.Frame{
		Event: event,
		Data:  models.Envelope{Success: true, Message: message, Body: body},
	}

	m.clientsMux.RLock()
	client, ok := m.clients[connectionID]
	m.clientsMux.RUnlock()
	if !ok {
		return
	}
	m.enqueue(client, frame)
}

// SendErrorTo 單播錯誤回應
func (m *WebSocketManager) SendErrorTo(connectionID, event, message string) {
	log.Warn().Str("conn", connectionID).Str("event", event).Str("message", message).Msg("sending error envelope")
	frame := models.Frame{
		Event: event,
		Data:  models.Envelope{Success: false, Message: message},
	}

	m.clientsMux.RLock()
	client, ok := m.clients[connectionID]
	m.clientsMux.RUnlock()
	if !ok {
		return
	}
	m.enqueue(client, frame)
}

// Broadcast 向房間內的所有連線廣播
func (m *WebSocketManager) Broadcast(roomCode int, event string, body interface{}, message string) {
	m.broadcast("", roomCode, event, body, message)
}

// BroadcastExcept 向房間內除指定連線外的所有連線廣播
func (m *WebSocketManager) BroadcastExcept(connectionID string, roomCode int, event string, body interface{}, message string) {
	m.broadcast(connectionID, roomCode, event, body, message)
}

func (m *WebSocketManager) broadcast(skipID string, roomCode int, event string, body interface{}, message string) {
	frame := models.Frame{
		Event: event,
		Data:  models.Envelope{Success: true, Message: message, Body: body},
	}

	m.clientsMux.RLock()
	members := make([]*Client, 0, len(m.rooms[roomCode]))
	for id, client := range m.rooms[roomCode] {
		if id != skipID {
			members = append(members, client)
		}
	}
	m.clientsMux.RUnlock()

	for _, client := range members {
		m.enqueue(client, frame)
	}
}

// enqueue 把訊息放進連線的發送隊列
// 連線已登出時訊息直接丟棄；隊列滿了就斷開該連線
func (m *WebSocketManager) enqueue(client *Client, frame models.Frame) {
	select {
	case <-client.done:
	case client.send <- frame:
	default:
		log.Warn().Str("conn", client.ConnectionID).Msg("send queue full, dropping client")
		m.Unregister(client.ConnectionID)
		client.Conn.Close()
	}
}

// writePump 處理向客戶端發送訊息與心跳
func (m *WebSocketManager) writePump(client *Client) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-client.done:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case frame := <-client.send:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteJSON(frame); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// RoomClientCount 取得指定房間頻道的在線連線數
func (m *WebSocketManager) RoomClientCount(roomCode int) int {
	m.clientsMux.RLock()
	defer m.clientsMux.RUnlock()
	return len(m.rooms[roomCode])
}
