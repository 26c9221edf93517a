package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Game   GameConfig
}

type ServerConfig struct {
	Address string
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     int
}

// GameConfig 包含遊戲規則的可調參數
type GameConfig struct {
	MinPlayers    int           `mapstructure:"min_players"`    // 開始遊戲所需的非房主玩家數
	RoomTTL       time.Duration `mapstructure:"room_ttl"`       // 房間保留時間，逾期自動刪除
	SweepInterval time.Duration `mapstructure:"sweep_interval"` // 過期房間掃描頻率
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./pkg/config")

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.user", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.name", "story_game")
	viper.SetDefault("db.port", 5432)
	viper.SetDefault("game.min_players", 1)
	viper.SetDefault("game.room_ttl", "2h")
	viper.SetDefault("game.sweep_interval", "1m")

	// 設定檔不存在時以預設值執行
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
