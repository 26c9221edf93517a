package service

import (
	"story_game/internal/repository"
	"story_game/internal/utils"
	"story_game/pkg/config"
)

type Services struct {
	Room             *RoomService
	Session          *SessionService
	Game             *GameService
	Vote             *VoteService
	Scenario         *ScenarioService
	WebSocketManager *WebSocketManager
}

func NewServices(repos *repository.Repositories, cfg *config.Config, rnd utils.Random) *Services {
	wsManager := NewWebSocketManager()

	roomService := NewRoomService(repos.Room, rnd, cfg.Game.RoomTTL)
	sessionService := NewSessionService(roomService)
	gameService := NewGameService(roomService, repos.Scenario, cfg.Game.MinPlayers)
	voteService := NewVoteService(roomService, repos.Scenario, rnd)
	scenarioService := NewScenarioService(repos.Scenario)

	return &Services{
		Room:             roomService,
		Session:          sessionService,
		Game:             gameService,
		Vote:             voteService,
		Scenario:         scenarioService,
		WebSocketManager: wsManager,
	}
}
