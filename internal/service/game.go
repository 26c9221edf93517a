package service

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"story_game/internal/models"
	"story_game/internal/repository"
)

// GameService 負責房間狀態機：waiting → playing → ended，
// 以及回到 waiting 的重新開始
type GameService struct {
	rooms        *RoomService
	scenarioRepo repository.ScenarioRepository
	minPlayers   int
}

func NewGameService(rooms *RoomService, scenarioRepo repository.ScenarioRepository, minPlayers int) *GameService {
	return &GameService{
		rooms:        rooms,
		scenarioRepo: scenarioRepo,
		minPlayers:   minPlayers,
	}
}

// NonHostPlayerCount 計算房間內非房主的玩家數，投票門檻只看這個數字
func NonHostPlayerCount(room *models.Room) int {
	return lo.CountBy(room.Players, func(p models.Player) bool {
		return p.ID != room.HostID
	})
}

// Start 由房主開始遊戲：狀態切為 playing，場景指向第一關
// 回傳更新後的房間與第一關場景，供呼叫端廣播
func (s *GameService) Start(code int, requesterID string) (*models.Room, *models.Scenario, error) {
	room, err := s.rooms.GetRoom(code)
	if err != nil {
		return nil, nil, err
	}
	if room == nil {
		return nil, nil, NewNotFoundError("房間不存在")
	}

	if room.HostID != requesterID {
		return nil, nil, NewForbiddenError("只有房主才能開始遊戲")
	}

	if NonHostPlayerCount(room) < s.minPlayers {
		return nil, nil, NewValidationError(fmt.Sprintf("至少需要 %d 位玩家才能開始遊戲", s.minPlayers))
	}

	root, err := s.scenarioRepo.GetRoot()
	if err != nil {
		return nil, nil, NewInternalError("查詢場景失敗")
	}
	if root == nil {
		return nil, nil, NewNotFoundError("無法取得第一關場景")
	}

	updated, err := s.rooms.roomRepo.StartGame(code, root.ID)
	if err != nil {
		return nil, nil, NewInternalError("開始遊戲失敗")
	}
	if updated == nil {
		// 狀態在檢查與寫入之間已被翻轉
		return nil, nil, NewConflictError("遊戲已開始")
	}

	log.Info().Int("code", code).Str("scenario", root.ID).Msg("game started")
	return updated, root, nil
}

// Restart 由房主把房間重設回 waiting，清空場景指標與投票
// 不論先前是 playing 或 ended 都允許
func (s *GameService) Restart(code int, requesterID string) (*models.Room, error) {
	room, err := s.rooms.GetRoom(code)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, NewNotFoundError("房間不存在")
	}

	if room.HostID != requesterID {
		return nil, NewForbiddenError("只有房主才能重新開始遊戲")
	}

	updated, err := s.rooms.roomRepo.ResetGame(code)
	if err != nil {
		return nil, NewInternalError("重新開始失敗")
	}
	if updated == nil {
		return nil, NewNotFoundError("房間不存在")
	}

	log.Info().Int("code", code).Msg("game restarted")
	return updated, nil
}

// Finish 把房間標記為 ended
// 結算解析出 nextScenarioId 為 null（劇情結局）時由呼叫端驅動
func (s *GameService) Finish(code int) (*models.Room, error) {
	updated, err := s.rooms.roomRepo.SetEnded(code)
	if err != nil {
		return nil, NewInternalError("結束遊戲失敗")
	}
	if updated == nil {
		return nil, NewNotFoundError("房間不存在")
	}

	log.Info().Int("code", code).Msg("game ended")
	return updated, nil
}
