package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"story_game/internal/models"
)

func startedRoom(t *testing.T, w *testWorld, playerIDs ...string) *models.Room {
	t.Helper()
	room := w.createRoomWithPlayers(t, "host-1", playerIDs...)
	updated, _, err := w.game.Start(room.Code, "host-1")
	require.NoError(t, err)
	return updated
}

func TestSubmitVoteHostForbidden(t *testing.T) {
	req := require.New(t)
	w, _, _ := newTestWorld(t)
	room := startedRoom(t, w, "conn-1")

	_, err := w.vote.SubmitVote(room.Code, "host-1", "opt1")
	req.Error(err)
	req.Equal(KindForbidden, KindOf(err))
}

func TestSubmitVoteUnknownPlayer(t *testing.T) {
	req := require.New(t)
	w, _, _ := newTestWorld(t)
	room := startedRoom(t, w, "conn-1")

	_, err := w.vote.SubmitVote(room.Code, "ghost", "opt1")
	req.Error(err)
	req.Equal(KindNotFound, KindOf(err))
}

func TestSubmitVoteOverwrite(t *testing.T) {
	req := require.New(t)
	w, _, _ := newTestWorld(t)
	room := startedRoom(t, w, "conn-1", "conn-2")

	_, err := w.vote.SubmitVote(room.Code, "conn-1", "opt1")
	req.NoError(err)
	updated, err := w.vote.SubmitVote(room.Code, "conn-1", "opt2")
	req.NoError(err)

	// 重複投票覆寫先前選擇，只留最新一票
	req.Len(updated.CurrentVotes, 1)
	req.Equal("opt2", updated.CurrentVotes["conn-1"])
}

func TestSubmitVoteUnknownOptionRejected(t *testing.T) {
	req := require.New(t)
	w, _, _ := newTestWorld(t)
	room := startedRoom(t, w, "conn-1")

	// 不存在於目前場景的選項不能投，也不能留下任何投票紀錄
	_, err := w.vote.SubmitVote(room.Code, "conn-1", "nope")
	req.Error(err)
	req.Equal(KindValidation, KindOf(err))

	after, err := w.rooms.GetRoom(room.Code)
	req.NoError(err)
	req.Empty(after.CurrentVotes)
}

func TestSubmitVoteWhileWaitingRejected(t *testing.T) {
	req := require.New(t)
	w, _, _ := newTestWorld(t)
	room := w.createRoomWithPlayers(t, "host-1", "conn-1")

	_, err := w.vote.SubmitVote(room.Code, "conn-1", "opt1")
	req.Error(err)
	req.Equal(KindValidation, KindOf(err))
}

func TestAllVotesInCountsNonHostOnly(t *testing.T) {
	req := require.New(t)
	w, _, _ := newTestWorld(t)
	room := startedRoom(t, w, "conn-1", "conn-2")

	updated, err := w.vote.SubmitVote(room.Code, "conn-1", "opt1")
	req.NoError(err)
	req.False(AllVotesIn(updated))

	updated, err = w.vote.SubmitVote(room.Code, "conn-2", "opt2")
	req.NoError(err)
	req.True(AllVotesIn(updated))
}

func TestTallyMajorityWins(t *testing.T) {
	req := require.New(t)
	w, root, second := newTestWorld(t)
	room := startedRoom(t, w, "conn-1", "conn-2", "conn-3")

	_, err := w.vote.SubmitVote(room.Code, "conn-1", "opt1")
	req.NoError(err)
	_, err = w.vote.SubmitVote(room.Code, "conn-2", "opt1")
	req.NoError(err)
	updated, err := w.vote.SubmitVote(room.Code, "conn-3", "opt2")
	req.NoError(err)

	result, err := w.vote.AutoTally(updated)
	req.NoError(err)
	req.NotNil(result)

	// {opt1:2, opt2:1} 一定選 opt1，不受擲硬幣影響
	req.Equal("opt1", result.WinningOptionID)
	req.Equal(map[string]int{"opt1": 2, "opt2": 1}, result.Counts)
	req.NotNil(result.NextScenarioID)
	req.Equal(second.ID, *result.NextScenarioID)
	req.Equal(root.Options[0].Consequence, result.Consequence)

	// 投票清空、場景推進
	after, err := w.rooms.GetRoom(room.Code)
	req.NoError(err)
	req.Empty(after.CurrentVotes)
	req.Equal(second.ID, *after.CurrentScenarioID)
}

func TestTallyTieNeverPicksThirdOption(t *testing.T) {
	req := require.New(t)

	for i := 0; i < 50; i++ {
		w, root, _ := newTestWorld(t)

		// 給 root 補上一個沒有人投的第三選項
		w.scenarios.mu.Lock()
		w.scenarios.scenarios[root.ID].Options = append(w.scenarios.scenarios[root.ID].Options,
			models.Option{OptionID: "opt3", Text: "紮營", Consequence: "你們原地休息"})
		w.scenarios.mu.Unlock()

		room := startedRoom(t, w, "conn-1", "conn-2")
		_, err := w.vote.SubmitVote(room.Code, "conn-1", "opt1")
		req.NoError(err)
		updated, err := w.vote.SubmitVote(room.Code, "conn-2", "opt2")
		req.NoError(err)

		w.rnd.seq = []int{i % 2}
		result, err := w.vote.AutoTally(updated)
		req.NoError(err)
		req.Contains([]string{"opt1", "opt2"}, result.WinningOptionID)
	}
}

// 平手採「掃描並擲硬幣取代」而非均勻挑選：
// 硬幣永遠輸（不取代）時第一個選項勝，永遠贏時最後一個平手選項勝。
// 這是刻意保留的既有行為。
func TestTallyTieBreakScanBias(t *testing.T) {
	req := require.New(t)

	run := func(coin int) string {
		w, _, _ := newTestWorld(t)
		room := startedRoom(t, w, "conn-1", "conn-2")
		_, err := w.vote.SubmitVote(room.Code, "conn-1", "opt1")
		req.NoError(err)
		updated, err := w.vote.SubmitVote(room.Code, "conn-2", "opt2")
		req.NoError(err)

		w.rnd.seq = []int{coin}
		result, err := w.vote.AutoTally(updated)
		req.NoError(err)
		return result.WinningOptionID
	}

	// Intn(2) == 0 代表擲硬幣成功，領先者被取代
	req.Equal("opt2", run(0))
	req.Equal("opt1", run(1))
}

func TestTallyNoVotesPicksUniformly(t *testing.T) {
	req := require.New(t)

	picked := map[string]int{}
	for i := 0; i < 400; i++ {
		w, _, _ := newTestWorld(t)
		w.rnd.seq = []int{i} // Intn(len(options)) 會對選項數取餘
		room := startedRoom(t, w, "conn-1")

		result, err := w.vote.Tally(room.Code, "host-1")
		req.NoError(err)
		req.NotNil(result)
		req.Empty(result.Counts)
		picked[result.WinningOptionID]++
	}

	// root 有兩個選項，長期下來兩者都該被選到
	req.Len(picked, 2)
	req.Greater(picked["opt1"], 100)
	req.Greater(picked["opt2"], 100)
}

func TestTallyRequiresHostWhenForced(t *testing.T) {
	req := require.New(t)
	w, _, _ := newTestWorld(t)
	room := startedRoom(t, w, "conn-1")

	_, err := w.vote.Tally(room.Code, "conn-1")
	req.Error(err)
	req.Equal(KindForbidden, KindOf(err))
}

func TestTallyWithoutActiveScenario(t *testing.T) {
	req := require.New(t)
	w, _, _ := newTestWorld(t)
	room := w.createRoomWithPlayers(t, "host-1", "conn-1")

	_, err := w.vote.Tally(room.Code, "host-1")
	req.Error(err)
	req.Equal(KindConflict, KindOf(err))
}

func TestTallyNoOptionsIsInternalErrorWithoutMutation(t *testing.T) {
	req := require.New(t)
	w, _, _ := newTestWorld(t)

	// 建一個沒有任何選項的場景並讓房間指向它
	deadEnd := &models.Scenario{
		ID:          uuid.NewString(),
		Level:       9,
		Title:       "死路",
		Description: "無路可走",
		Duration:    10,
	}
	req.NoError(w.scenarios.Create(deadEnd))

	room := startedRoom(t, w, "conn-1")
	_, err := w.roomRepo.AdvanceScenario(room.Code, *room.CurrentScenarioID, &deadEnd.ID)
	req.NoError(err)

	_, err = w.vote.Tally(room.Code, "host-1")
	req.Error(err)
	req.Equal(KindInternal, KindOf(err))

	// 房間狀態不得被更動
	after, err := w.rooms.GetRoom(room.Code)
	req.NoError(err)
	req.Equal(deadEnd.ID, *after.CurrentScenarioID)
}

func TestTallyRacedBecomesNoop(t *testing.T) {
	req := require.New(t)
	w, _, second := newTestWorld(t)
	room := startedRoom(t, w, "conn-1")

	updated, err := w.vote.SubmitVote(room.Code, "conn-1", "opt1")
	req.NoError(err)

	// 第一次結算推進場景
	result, err := w.vote.AutoTally(updated)
	req.NoError(err)
	req.NotNil(result)
	req.Equal(second.ID, *result.NextScenarioID)

	// 拿著舊房間快照的第二次結算必須變成 no-op
	again, err := w.vote.AutoTally(updated)
	req.NoError(err)
	req.Nil(again)
}

// 完整流程：建房 → 加入 → 開始 → 唯一玩家投票 → 自動結算
func TestEndToEndSinglePlayerFlow(t *testing.T) {
	req := require.New(t)
	w, root, second := newTestWorld(t)

	room, err := w.session.CreateRoom("host-1", "房主", "🎩")
	req.NoError(err)

	joined, err := w.session.Join(codeStr(room), "conn-a", "A", "🙂")
	req.NoError(err)
	req.Len(joined.Players, 2)

	started, first, err := w.game.Start(room.Code, "host-1")
	req.NoError(err)
	req.Equal(models.RoomStatusPlaying, started.Status)
	req.Equal(root.ID, first.ID)

	updated, err := w.vote.SubmitVote(room.Code, "conn-a", "opt1")
	req.NoError(err)
	req.True(AllVotesIn(updated))

	result, err := w.vote.AutoTally(updated)
	req.NoError(err)
	req.Equal("opt1", result.WinningOptionID)
	req.Equal(second.ID, *result.NextScenarioID)
}

// 結局選項：nextScenarioId 為 null，由呼叫端把房間收尾為 ended
func TestEndingOptionFinishesGame(t *testing.T) {
	req := require.New(t)
	w, _, _ := newTestWorld(t)
	room := startedRoom(t, w, "conn-1")

	updated, err := w.vote.SubmitVote(room.Code, "conn-1", "opt2")
	req.NoError(err)

	result, err := w.vote.AutoTally(updated)
	req.NoError(err)
	req.Nil(result.NextScenarioID)

	ended, err := w.game.Finish(room.Code)
	req.NoError(err)
	req.Equal(models.RoomStatusEnded, ended.Status)
	req.Nil(ended.CurrentScenarioID)
}
