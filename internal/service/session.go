package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"story_game/internal/models"
)

var roomCodePattern = regexp.MustCompile(`^\d{6}$`)

// SessionService 負責連線與房間的對應：建房前的衝突檢查、
// 加入房間的驗證流程、主動離開與斷線、以及房主踢人
type SessionService struct {
	rooms *RoomService
}

func NewSessionService(rooms *RoomService) *SessionService {
	return &SessionService{rooms: rooms}
}

// LeaveResult 描述一次離開／斷線處理的結果，供呼叫端廣播
type LeaveResult struct {
	Room     *models.Room // 房主離開時為解散前的房間，否則為移除後的房間
	HostLeft bool
	PlayerID string
}

// CreateRoom 為連線建立新房間
// 房主和玩家一樣需要名字與頭像；已在任一房間內的連線不能再建房
func (s *SessionService) CreateRoom(connectionID, name, avatar string) (*models.Room, error) {
	if name == "" || avatar == "" {
		return nil, NewValidationError("無效的建房請求")
	}

	existing, err := s.rooms.FindRoomByConnection(connectionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("你已經在一個房間了，不能重複建立")
	}

	host := models.Player{ID: connectionID, Name: name, Avatar: avatar}
	return s.rooms.CreateRoom(host)
}

// Join 執行加入房間的驗證流程，依固定順序檢查並在第一個失敗處停止：
//  1. 欄位缺漏
//  2. 號碼格式（去除空白後必須為 6 位數字）
//  3. 連線已在其他房間
//  4. 房間不存在
//  5. 房主不能加入自己的房間
//  6. 遊戲已開始
//  7. 寫入玩家（狀態在檢查與寫入之間翻轉時視為加入失敗）
func (s *SessionService) Join(roomCode, connectionID, name, avatar string) (*models.Room, error) {
	if roomCode == "" || name == "" || avatar == "" {
		return nil, NewValidationError("無效的加入請求")
	}

	trimmed := strings.TrimSpace(roomCode)
	if !roomCodePattern.MatchString(trimmed) {
		log.Warn().Str("roomCode", trimmed).Msg("invalid room code format")
		return nil, NewValidationError("房間號碼必須為 6 位數字")
	}
	code, _ := strconv.Atoi(trimmed)

	existing, err := s.rooms.FindRoomByConnection(connectionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("你已經在一個房間了")
	}

	room, err := s.rooms.GetRoom(code)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, NewNotFoundError("房間不存在")
	}

	if room.HostID == connectionID {
		return nil, NewValidationError("房主不能加入自己的房間")
	}

	if room.Status != models.RoomStatusWaiting {
		return nil, NewConflictError("遊戲已開始，無法加入")
	}

	player := models.Player{ID: connectionID, Name: name, Avatar: avatar}
	updated, err := s.rooms.roomRepo.AddPlayer(code, player)
	if err != nil {
		return nil, NewInternalError("加入房間失敗")
	}
	if updated == nil {
		// 檢查通過後狀態才翻轉的競爭情況
		log.Warn().Int("code", code).Str("player", connectionID).Msg("join lost the race")
		return nil, NewValidationError("加入房間失敗")
	}

	log.Info().Int("code", code).Str("player", connectionID).Msg("player joined")
	return updated, nil
}

// Leave 處理主動離開，與斷線共用同一套邏輯
func (s *SessionService) Leave(connectionID string) (*LeaveResult, error) {
	return s.Disconnect(connectionID)
}

// Disconnect 處理連線離開房間
// 連線不在任何房間時靜默結束；房主離開則解散整個房間
func (s *SessionService) Disconnect(connectionID string) (*LeaveResult, error) {
	room, err := s.rooms.FindRoomByConnection(connectionID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, nil
	}

	if room.HostID == connectionID {
		if _, err := s.rooms.DeleteRoom(room.Code); err != nil {
			return nil, err
		}
		log.Info().Int("code", room.Code).Msg("room closed by host leave")
		return &LeaveResult{Room: room, HostLeft: true, PlayerID: connectionID}, nil
	}

	updated, err := s.rooms.roomRepo.RemovePlayer(room.Code, connectionID)
	if err != nil {
		return nil, NewInternalError("離開房間失敗")
	}
	if updated == nil {
		// 房間在處理期間已被刪除，視同不在房間
		return nil, nil
	}

	log.Info().Int("code", room.Code).Str("player", connectionID).Msg("player left")
	return &LeaveResult{Room: updated, HostLeft: false, PlayerID: connectionID}, nil
}

// Kick 由房主把指定玩家移出房間
func (s *SessionService) Kick(requesterID, targetPlayerID string) (*LeaveResult, error) {
	room, err := s.rooms.FindRoomByConnection(requesterID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, NewNotFoundError("你不在任何房間內")
	}

	if room.HostID != requesterID {
		return nil, NewForbiddenError("只有房主才能踢除玩家")
	}

	if targetPlayerID == "" || targetPlayerID == room.HostID {
		return nil, NewValidationError("無效的踢除對象")
	}
	if !room.Players.Contains(targetPlayerID) {
		return nil, NewNotFoundError("玩家不在房間內")
	}

	updated, err := s.rooms.roomRepo.RemovePlayer(room.Code, targetPlayerID)
	if err != nil {
		return nil, NewInternalError("踢除玩家失敗")
	}
	if updated == nil {
		return nil, NewNotFoundError("房間不存在")
	}

	log.Info().Int("code", room.Code).Str("player", targetPlayerID).Msg("player kicked")
	return &LeaveResult{Room: updated, HostLeft: false, PlayerID: targetPlayerID}, nil
}
