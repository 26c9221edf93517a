package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"story_game/internal/models"
	"story_game/internal/repository"
)

// memRoomRepo 是 RoomRepository 的記憶體實作，語意與資料庫版一致：
// 每個操作都在鎖內完成檢查加寫入，模擬原子條件更新
type memRoomRepo struct {
	mu    sync.Mutex
	rooms map[int]*models.Room
}

func newMemRoomRepo() *memRoomRepo {
	return &memRoomRepo{rooms: make(map[int]*models.Room)}
}

func cloneRoom(room *models.Room) *models.Room {
	c := *room
	c.Players = append(models.PlayerList{}, room.Players...)
	c.CurrentVotes = models.VoteMap{}
	for k, v := range room.CurrentVotes {
		c.CurrentVotes[k] = v
	}
	if room.CurrentScenarioID != nil {
		id := *room.CurrentScenarioID
		c.CurrentScenarioID = &id
	}
	return &c
}

func (r *memRoomRepo) Insert(room *models.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rooms[room.Code]; exists {
		return repository.ErrDuplicateCode
	}
	room.CreatedAt = time.Now()
	r.rooms[room.Code] = cloneRoom(room)
	return nil
}

func (r *memRoomRepo) GetByCode(code int) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[code]
	if !ok {
		return nil, nil
	}
	return cloneRoom(room), nil
}

func (r *memRoomRepo) FindByMember(connectionID string) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range r.rooms {
		if room.HostID == connectionID || room.Players.Contains(connectionID) {
			return cloneRoom(room), nil
		}
	}
	return nil, nil
}

func (r *memRoomRepo) AddPlayer(code int, player models.Player) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[code]
	if !ok || room.Status != models.RoomStatusWaiting {
		return nil, nil
	}
	if !room.Players.Contains(player.ID) {
		room.Players = append(room.Players, player)
	}
	return cloneRoom(room), nil
}

func (r *memRoomRepo) RemovePlayer(code int, playerID string) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[code]
	if !ok {
		return nil, nil
	}
	players := make(models.PlayerList, 0, len(room.Players))
	for _, p := range room.Players {
		if p.ID != playerID {
			players = append(players, p)
		}
	}
	room.Players = players
	delete(room.CurrentVotes, playerID)
	return cloneRoom(room), nil
}

func (r *memRoomRepo) SetVote(code int, playerID, optionID string) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[code]
	if !ok {
		return nil, nil
	}
	if room.Status != models.RoomStatusPlaying || !room.Players.Contains(playerID) {
		return nil, nil
	}
	if room.CurrentVotes == nil {
		room.CurrentVotes = models.VoteMap{}
	}
	room.CurrentVotes[playerID] = optionID
	return cloneRoom(room), nil
}

func (r *memRoomRepo) StartGame(code int, scenarioID string) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[code]
	if !ok || room.Status != models.RoomStatusWaiting {
		return nil, nil
	}
	room.Status = models.RoomStatusPlaying
	room.CurrentScenarioID = &scenarioID
	room.CurrentVotes = models.VoteMap{}
	return cloneRoom(room), nil
}

func (r *memRoomRepo) ResetGame(code int) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[code]
	if !ok {
		return nil, nil
	}
	room.Status = models.RoomStatusWaiting
	room.CurrentScenarioID = nil
	room.CurrentVotes = models.VoteMap{}
	return cloneRoom(room), nil
}

func (r *memRoomRepo) SetEnded(code int) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[code]
	if !ok {
		return nil, nil
	}
	room.Status = models.RoomStatusEnded
	return cloneRoom(room), nil
}

func (r *memRoomRepo) AdvanceScenario(code int, fromScenarioID string, nextScenarioID *string) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[code]
	if !ok {
		return nil, nil
	}
	if room.CurrentScenarioID == nil || *room.CurrentScenarioID != fromScenarioID {
		return nil, repository.ErrScenarioMismatch
	}
	room.CurrentVotes = models.VoteMap{}
	room.CurrentScenarioID = nextScenarioID
	return cloneRoom(room), nil
}

func (r *memRoomRepo) DeleteRoom(code int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rooms[code]
	delete(r.rooms, code)
	return ok, nil
}

func (r *memRoomRepo) DeleteExpired(cutoff time.Time) ([]models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []models.Room
	for code, room := range r.rooms {
		if room.CreatedAt.Before(cutoff) {
			expired = append(expired, *cloneRoom(room))
			delete(r.rooms, code)
		}
	}
	return expired, nil
}

// memScenarioRepo 是 ScenarioRepository 的記憶體實作
type memScenarioRepo struct {
	mu        sync.Mutex
	scenarios map[string]*models.Scenario
}

func newMemScenarioRepo() *memScenarioRepo {
	return &memScenarioRepo{scenarios: make(map[string]*models.Scenario)}
}

func (r *memScenarioRepo) Create(scenario *models.Scenario) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if scenario.ID == "" {
		scenario.ID = uuid.NewString()
	}
	for _, s := range r.scenarios {
		if s.Level == scenario.Level {
			return repository.ErrDuplicateLevel
		}
	}
	r.scenarios[scenario.ID] = scenario
	return nil
}

func (r *memScenarioRepo) FindAll() ([]models.Scenario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]models.Scenario, 0, len(r.scenarios))
	for _, s := range r.scenarios {
		all = append(all, *s)
	}
	return all, nil
}

func (r *memScenarioRepo) GetRoot() (*models.Scenario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.scenarios {
		if s.Level == repository.RootLevel {
			return s, nil
		}
	}
	return nil, nil
}

func (r *memScenarioRepo) GetByID(id string) (*models.Scenario, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrInvalidScenarioID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scenarios[id]
	if !ok {
		return nil, nil
	}
	return s, nil
}

// scriptedRandom 依預先給定的序列回傳值，序列用完後回到開頭
type scriptedRandom struct {
	seq []int
	pos int
}

func (r *scriptedRandom) Intn(n int) int {
	if len(r.seq) == 0 {
		return 0
	}
	v := r.seq[r.pos%len(r.seq)]
	r.pos++
	return v % n
}

// recordingGateway 記錄廣播事件與被解散的頻道，供逾期清理測試檢查
type recordingGateway struct {
	mu        sync.Mutex
	broadcast []string
	closed    []int
}

func (g *recordingGateway) SendTo(connectionID, event string, body interface{}, message string) {}
func (g *recordingGateway) SendErrorTo(connectionID, event, message string) {}
func (g *recordingGateway) Broadcast(roomCode int, event string, body interface{}, message string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.broadcast = append(g.broadcast, event)
}
func (g *recordingGateway) BroadcastExcept(connectionID string, roomCode int, event string, body interface{}, message string) {
}
func (g *recordingGateway) CloseChannel(roomCode int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = append(g.closed, roomCode)
}
