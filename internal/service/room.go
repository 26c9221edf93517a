package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"story_game/internal/models"
	"story_game/internal/repository"
	"story_game/internal/utils"
)

// maxCodeAttempts 限制取號重試次數，避免號碼空間耗盡時無限迴圈
const maxCodeAttempts = 100

// RoomService 負責房間實體的生命週期：取號建房、查詢、刪除與逾期清理
type RoomService struct {
	roomRepo repository.RoomRepository
	rnd      utils.Random
	roomTTL  time.Duration
}

func NewRoomService(roomRepo repository.RoomRepository, rnd utils.Random, roomTTL time.Duration) *RoomService {
	return &RoomService{
		roomRepo: roomRepo,
		rnd:      rnd,
		roomTTL:  roomTTL,
	}
}

// CreateRoom 建立新房間並把房主放進玩家列表
// 候選號碼在 [100000, 999999] 均勻取樣，寫入本身是唯一性的仲裁者：
// 與其他連線同時搶到同一號碼時，輸的一方重新取號
func (s *RoomService) CreateRoom(host models.Player) (*models.Room, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		room := &models.Room{
			Code:         utils.RandomRoomCode(s.rnd),
			HostID:       host.ID,
			Players:      models.PlayerList{host},
			Status:       models.RoomStatusWaiting,
			CurrentVotes: models.VoteMap{},
		}

		err := s.roomRepo.Insert(room)
		if err == nil {
			log.Info().Int("code", room.Code).Str("host", host.ID).Msg("room created")
			return room, nil
		}
		if errors.Is(err, repository.ErrDuplicateCode) {
			continue
		}
		log.Error().Err(err).Msg("room insert failed")
		return nil, NewInternalError("無法建立房間")
	}
	return nil, NewInternalError("無法取得未使用的房間號碼")
}

// GetRoom 以號碼查詢房間，查無房間時回傳 (nil, nil)
func (s *RoomService) GetRoom(code int) (*models.Room, error) {
	room, err := s.roomRepo.GetByCode(code)
	if err != nil {
		return nil, NewInternalError("查詢房間失敗")
	}
	return room, nil
}

// FindRoomByConnection 尋找連線所屬的房間（房主或玩家）
func (s *RoomService) FindRoomByConnection(connectionID string) (*models.Room, error) {
	room, err := s.roomRepo.FindByMember(connectionID)
	if err != nil {
		return nil, NewInternalError("查詢房間失敗")
	}
	return room, nil
}

// DeleteRoom 刪除房間，號碼隨即可被重用
func (s *RoomService) DeleteRoom(code int) (bool, error) {
	deleted, err := s.roomRepo.DeleteRoom(code)
	if err != nil {
		return false, NewInternalError("刪除房間失敗")
	}
	if deleted {
		log.Info().Int("code", code).Msg("room deleted")
	}
	return deleted, nil
}

// StartExpirySweep 啟動逾期房間的清理迴圈
// 建立超過保留時間且未被刪除的房間會被清掉，並對房間廣播關閉通知
func (s *RoomService) StartExpirySweep(ctx context.Context, interval time.Duration, gateway Gateway) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweepExpired(gateway)
			}
		}
	}()
}

func (s *RoomService) sweepExpired(gateway Gateway) {
	expired, err := s.roomRepo.DeleteExpired(time.Now().Add(-s.roomTTL))
	if err != nil {
		log.Error().Err(err).Msg("expiry sweep failed")
		return
	}
	for _, room := range expired {
		log.Info().Int("code", room.Code).Msg("room expired")
		gateway.Broadcast(room.Code, models.EventRoomClosed, nil, "房間已逾期關閉")
		// 頻道一併解散，號碼重用後的新房間才不會廣播給舊成員
		gateway.CloseChannel(room.Code)
	}
}
