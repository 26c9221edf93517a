package utils

import (
	"math/rand"
	"sync"
	"time"
)

// Random 是可注入的隨機來源
// 房間號碼取樣、平手擲硬幣與無人投票的隨機挑選都經過這個介面，
// 測試時可替換為固定序列
type Random interface {
	// Intn 回傳 [0, n) 區間的隨機整數
	Intn(n int) int
}

type mathRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom 建立以目前時間為種子的隨機來源，可供多個連線並行使用
func NewRandom() Random {
	return &mathRandom{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r *mathRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

// RoomCodeMin 與 RoomCodeMax 界定 6 位數房間號碼的取樣區間
const (
	RoomCodeMin = 100000
	RoomCodeMax = 999999
)

// RandomRoomCode 均勻取樣一個候選房間號碼
func RandomRoomCode(r Random) int {
	return RoomCodeMin + r.Intn(RoomCodeMax-RoomCodeMin+1)
}
