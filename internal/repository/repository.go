package repository

import "story_game/internal/storage"

type Repositories struct {
	Room     RoomRepository
	Scenario ScenarioRepository
}

func NewRepositories(db *storage.PostgresDB) *Repositories {
	return &Repositories{
		Room:     NewRoomRepository(db),
		Scenario: NewScenarioRepository(db),
	}
}
