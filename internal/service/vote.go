package service

import (
	"errors"

	"github.com/rs/zerolog/log"

	"story_game/internal/models"
	"story_game/internal/repository"
	"story_game/internal/utils"
)

// VoteService 負責收集投票與結算：決定獲勝選項、解析下一個場景、
// 清空投票狀態
type VoteService struct {
	rooms        *RoomService
	scenarioRepo repository.ScenarioRepository
	rnd          utils.Random
}

func NewVoteService(rooms *RoomService, scenarioRepo repository.ScenarioRepository, rnd utils.Random) *VoteService {
	return &VoteService{
		rooms:        rooms,
		scenarioRepo: scenarioRepo,
		rnd:          rnd,
	}
}

// TallyResult 是一次結算的產出，供呼叫端廣播
type TallyResult struct {
	WinningOptionID string         `json:"winningOptionId"`
	Counts          map[string]int `json:"counts"`
	NextScenarioID  *string        `json:"nextScenarioId"`
	Consequence     string         `json:"consequence"`
}

// SubmitVote 紀錄玩家對目前場景的投票，選項必須存在於目前場景中
// 同一玩家重複投票會覆寫先前的選擇，不是錯誤
// 回傳更新後的房間，呼叫端比較票數與非房主玩家數決定是否自動結算
func (s *VoteService) SubmitVote(code int, playerID, optionID string) (*models.Room, error) {
	if optionID == "" {
		return nil, NewValidationError("無效的選項")
	}

	room, err := s.rooms.GetRoom(code)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, NewNotFoundError("房間不存在")
	}

	if playerID == room.HostID {
		return nil, NewForbiddenError("房主不能投票")
	}
	if !room.Players.Contains(playerID) {
		return nil, NewNotFoundError("玩家不在房間內")
	}

	if room.CurrentScenarioID == nil {
		return nil, NewValidationError("目前沒有進行中的投票")
	}
	scenario, err := s.scenarioRepo.GetByID(*room.CurrentScenarioID)
	if err != nil {
		return nil, NewInternalError("查詢場景失敗")
	}
	if scenario == nil {
		return nil, NewInternalError("目前場景不存在")
	}
	if _, ok := scenario.Options.FindOption(optionID); !ok {
		return nil, NewValidationError("選項不在目前場景中")
	}

	updated, err := s.rooms.roomRepo.SetVote(code, playerID, optionID)
	if err != nil {
		return nil, NewInternalError("投票失敗")
	}
	if updated == nil {
		// 遊戲狀態或名單在檢查與寫入之間改變
		return nil, NewValidationError("投票失敗")
	}

	log.Info().Int("code", code).Str("player", playerID).Str("option", optionID).Msg("vote recorded")
	return updated, nil
}

// AllVotesIn 判斷是否所有非房主玩家都已投票，成立時觸發自動結算
func AllVotesIn(room *models.Room) bool {
	eligible := NonHostPlayerCount(room)
	return eligible > 0 && len(room.CurrentVotes) >= eligible
}

// Tally 由房主強制結算目前場景（投票時間到時由外部計時器觸發）
func (s *VoteService) Tally(code int, requesterID string) (*TallyResult, error) {
	room, err := s.rooms.GetRoom(code)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, NewNotFoundError("房間不存在")
	}

	if room.HostID != requesterID {
		return nil, NewForbiddenError("只有房主才能結束投票")
	}

	return s.tally(room)
}

// AutoTally 在最後一位玩家投完票後結算
// 與房主手動結算同時發生時，後到的一方回傳 (nil, nil) 成為 no-op
func (s *VoteService) AutoTally(room *models.Room) (*TallyResult, error) {
	return s.tally(room)
}

// tally 結算目前場景：
//  1. 統計每個選項的票數
//  2. 有票時依選項宣告順序掃描，票數嚴格較高者成為新領先者；
//     平手時擲硬幣決定是否取代目前領先者（保留既有行為：
//     後出現的平手選項有疊加的五成機率搶走領先，並非均勻分布）
//  3. 無人投票時從全部選項中均勻隨機挑選
//  4. 完全無法決定選項時回報內部錯誤，不更動房間
//  5. 原子地清空投票並把場景推進到獲勝選項的下一關
func (s *VoteService) tally(room *models.Room) (*TallyResult, error) {
	if room.CurrentScenarioID == nil {
		return nil, NewConflictError("目前沒有進行中的場景")
	}

	scenario, err := s.scenarioRepo.GetByID(*room.CurrentScenarioID)
	if err != nil {
		return nil, NewInternalError("查詢場景失敗")
	}
	if scenario == nil {
		return nil, NewInternalError("目前場景不存在")
	}

	counts := make(map[string]int, len(scenario.Options))
	for _, optionID := range room.CurrentVotes {
		counts[optionID]++
	}

	var winnerID string
	if len(room.CurrentVotes) > 0 {
		best := -1
		for _, opt := range scenario.Options {
			c := counts[opt.OptionID]
			if c > best {
				winnerID = opt.OptionID
				best = c
			} else if c == best && s.rnd.Intn(2) == 0 {
				winnerID = opt.OptionID
			}
		}
	} else if len(scenario.Options) > 0 {
		winnerID = scenario.Options[s.rnd.Intn(len(scenario.Options))].OptionID
	}

	winner, ok := scenario.Options.FindOption(winnerID)
	if winnerID == "" || !ok {
		log.Error().Int("code", room.Code).Str("scenario", scenario.ID).Msg("tally could not resolve an option")
		return nil, NewInternalError("無法決定獲勝選項")
	}

	updated, err := s.rooms.roomRepo.AdvanceScenario(room.Code, scenario.ID, winner.NextScenarioID)
	if errors.Is(err, repository.ErrScenarioMismatch) {
		// 另一個結算已經推進場景，這次結算不廣播任何結果
		log.Info().Int("code", room.Code).Str("scenario", scenario.ID).Msg("tally superseded")
		return nil, nil
	}
	if err != nil {
		return nil, NewInternalError("結算失敗")
	}
	if updated == nil {
		return nil, NewNotFoundError("房間不存在")
	}

	log.Info().Int("code", room.Code).Str("winner", winnerID).Msg("votes tallied")
	return &TallyResult{
		WinningOptionID: winnerID,
		Counts:          counts,
		NextScenarioID:  winner.NextScenarioID,
		Consequence:     winner.Consequence,
	}, nil
}
