package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"story_game/internal/api"
	"story_game/internal/models"
	"story_game/internal/repository"
	"story_game/internal/service"
	"story_game/internal/storage"
	"story_game/internal/utils"
	"story_game/pkg/config"
)

func main() {
	// 設定全域 logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// 載入應用程式配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// 初始化資料庫連接
	db, err := storage.NewPostgresDB(cfg.DB.Host, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.Port)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	// 確保在程序結束時關閉數據庫連接
	defer db.Close()

	// 自動遷移資料庫結構
	// 這裡遷移 Room 和 Scenario 兩個模型
	if err := db.AutoMigrate(&models.Room{}, &models.Scenario{}); err != nil {
		log.Fatal().Err(err).Msg("failed to auto migrate database")
	}

	// 初始化 repositories 與 services
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, cfg, utils.NewRandom())

	// 啟動逾期房間清理迴圈
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	services.Room.StartExpirySweep(ctx, cfg.Game.SweepInterval, services.WebSocketManager)

	// 設置 Gin 路由
	r := gin.Default()
	api.SetupRoutes(r, services)

	// 啟動伺服器
	if err := r.Run(cfg.Server.Address); err != nil {
		log.Fatal().Err(err).Msg("failed to run server")
	}
}
