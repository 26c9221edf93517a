package repository

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"story_game/internal/models"
	"story_game/internal/storage"
)

// ErrScenarioMismatch 表示結算時房間的場景已被其他結算推進，
// 呼叫端應視為 no-op 而非錯誤
var ErrScenarioMismatch = errors.New("scenario already advanced")

// ErrDuplicateCode 表示房間號碼與現存房間衝突，呼叫端應重新取號
var ErrDuplicateCode = errors.New("room code already taken")

// RoomRepository 定義房間實體的資料操作
// 所有會改變狀態的操作都在資料庫交易內以列鎖完成條件檢查，
// 避免多個連線同時對同一房間讀改寫造成不一致
type RoomRepository interface {
	Insert(room *models.Room) error
	GetByCode(code int) (*models.Room, error)
	FindByMember(connectionID string) (*models.Room, error)
	AddPlayer(code int, player models.Player) (*models.Room, error)
	RemovePlayer(code int, playerID string) (*models.Room, error)
	SetVote(code int, playerID, optionID string) (*models.Room, error)
	StartGame(code int, scenarioID string) (*models.Room, error)
	ResetGame(code int) (*models.Room, error)
	SetEnded(code int) (*models.Room, error)
	AdvanceScenario(code int, fromScenarioID string, nextScenarioID *string) (*models.Room, error)
	DeleteRoom(code int) (bool, error)
	DeleteExpired(cutoff time.Time) ([]models.Room, error)
}

type roomRepository struct {
	db   *storage.PostgresDB
	base BaseRepository[models.Room]
}

func NewRoomRepository(db *storage.PostgresDB) RoomRepository {
	return &roomRepository{
		db:   db,
		base: NewBaseRepository[models.Room](db),
	}
}

// Insert 寫入新房間
// code 欄位的唯一索引是併發建房時的仲裁者：同號碼的第二筆寫入
// 會得到唯一索引衝突，轉為 ErrDuplicateCode 由呼叫端重新取號
func (r *roomRepository) Insert(room *models.Room) error {
	err := r.base.Create(room)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateCode
	}
	return err
}

func (r *roomRepository) GetByCode(code int) (*models.Room, error) {
	return r.base.FindOne(map[string]interface{}{"code": code})
}

// FindByMember 尋找連線所屬的房間（房主或玩家皆算）
func (r *roomRepository) FindByMember(connectionID string) (*models.Room, error) {
	member, err := json.Marshal([]map[string]string{{"id": connectionID}})
	if err != nil {
		return nil, err
	}

	var room models.Room
	err = r.db.Where("host_id = ? OR players @> ?", connectionID, string(member)).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// mutate 以列鎖鎖定房間後執行變更，整個檢查加寫入是單一原子步驟
// 房間不存在時回傳 (nil, nil)
func (r *roomRepository) mutate(code int, fn func(room *models.Room) error) (*models.Room, error) {
	var updated *models.Room
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var room models.Room
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("code = ?", code).First(&room).Error
		if err != nil {
			return err
		}
		if err := fn(&room); err != nil {
			return err
		}
		if err := tx.Save(&room).Error; err != nil {
			return err
		}
		updated = &room
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

var errPreconditionFailed = errors.New("precondition failed")

// AddPlayer 只在房間處於 waiting 時加入玩家
// 重複加入為 no-op（集合語意）；房間不存在或已開始時回傳 (nil, nil)
func (r *roomRepository) AddPlayer(code int, player models.Player) (*models.Room, error) {
	room, err := r.mutate(code, func(room *models.Room) error {
		if room.Status != models.RoomStatusWaiting {
			return errPreconditionFailed
		}
		if !room.Players.Contains(player.ID) {
			room.Players = append(room.Players, player)
		}
		return nil
	})
	if errors.Is(err, errPreconditionFailed) {
		return nil, nil
	}
	return room, err
}

// RemovePlayer 移除玩家並一併清除其尚存的投票
// 玩家不在房間內時為 no-op
func (r *roomRepository) RemovePlayer(code int, playerID string) (*models.Room, error) {
	return r.mutate(code, func(room *models.Room) error {
		players := make(models.PlayerList, 0, len(room.Players))
		for _, p := range room.Players {
			if p.ID != playerID {
				players = append(players, p)
			}
		}
		room.Players = players
		if room.CurrentVotes != nil {
			delete(room.CurrentVotes, playerID)
		}
		return nil
	})
}

// SetVote 覆寫玩家目前的投票，只在遊戲進行中且玩家仍在房間時生效
// 條件不符時回傳 (nil, nil)
func (r *roomRepository) SetVote(code int, playerID, optionID string) (*models.Room, error) {
	room, err := r.mutate(code, func(room *models.Room) error {
		if room.Status != models.RoomStatusPlaying || !room.Players.Contains(playerID) {
			return errPreconditionFailed
		}
		if room.CurrentVotes == nil {
			room.CurrentVotes = models.VoteMap{}
		}
		room.CurrentVotes[playerID] = optionID
		return nil
	})
	if errors.Is(err, errPreconditionFailed) {
		return nil, nil
	}
	return room, err
}

// StartGame 只在 waiting 狀態下把房間切換為 playing 並設定起始場景
func (r *roomRepository) StartGame(code int, scenarioID string) (*models.Room, error) {
	room, err := r.mutate(code, func(room *models.Room) error {
		if room.Status != models.RoomStatusWaiting {
			return errPreconditionFailed
		}
		room.Status = models.RoomStatusPlaying
		room.CurrentScenarioID = &scenarioID
		room.CurrentVotes = models.VoteMap{}
		return nil
	})
	if errors.Is(err, errPreconditionFailed) {
		return nil, nil
	}
	return room, err
}

// ResetGame 無論先前狀態為何都把房間重設回 waiting
func (r *roomRepository) ResetGame(code int) (*models.Room, error) {
	return r.mutate(code, func(room *models.Room) error {
		room.Status = models.RoomStatusWaiting
		room.CurrentScenarioID = nil
		room.CurrentVotes = models.VoteMap{}
		return nil
	})
}

// SetEnded 把房間標記為已結束（劇情走到結局時由呼叫端驅動）
func (r *roomRepository) SetEnded(code int) (*models.Room, error) {
	return r.mutate(code, func(room *models.Room) error {
		room.Status = models.RoomStatusEnded
		return nil
	})
}

// AdvanceScenario 清空投票並推進場景，條件是房間目前的場景
// 仍是這次結算所針對的場景。自動結算與房主手動結算若同時發生，
// 後到的一方會因場景不符得到 ErrScenarioMismatch，成為 no-op
func (r *roomRepository) AdvanceScenario(code int, fromScenarioID string, nextScenarioID *string) (*models.Room, error) {
	room, err := r.mutate(code, func(room *models.Room) error {
		if room.CurrentScenarioID == nil || *room.CurrentScenarioID != fromScenarioID {
			return ErrScenarioMismatch
		}
		room.CurrentVotes = models.VoteMap{}
		room.CurrentScenarioID = nextScenarioID
		return nil
	})
	if errors.Is(err, ErrScenarioMismatch) {
		return nil, ErrScenarioMismatch
	}
	return room, err
}

func (r *roomRepository) DeleteRoom(code int) (bool, error) {
	affected, err := r.base.Delete(map[string]interface{}{"code": code})
	return affected > 0, err
}

// DeleteExpired 刪除建立時間早於 cutoff 的房間，回傳被刪除的房間
// 供呼叫端廣播關閉通知
func (r *roomRepository) DeleteExpired(cutoff time.Time) ([]models.Room, error) {
	var expired []models.Room
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("created_at < ?", cutoff).Find(&expired).Error; err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}
		return tx.Where("created_at < ?", cutoff).Delete(&models.Room{}).Error
	})
	return expired, err
}
