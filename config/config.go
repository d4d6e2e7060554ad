package config

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// GameConfig 游戏业务参数
type GameConfig struct {
	// StartingBalance 新玩家注册时的初始余额
	StartingBalance string `mapstructure:"starting_balance"`
	// WaitingMatchTTL 等待中的对局超过该时长未开始则自动取消并退款
	WaitingMatchTTL time.Duration `mapstructure:"waiting_match_ttl"`
}

// StartingBalanceDecimal 解析失败回落到零，注册时不入账
func (g GameConfig) StartingBalanceDecimal() decimal.Decimal {
	balance, err := decimal.NewFromString(g.StartingBalance)
	if err != nil {
		return decimal.Zero
	}
	return balance
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("auth.token_ttl", "24h")
	viper.SetDefault("game.starting_balance", "1000.00")
	viper.SetDefault("game.waiting_match_ttl", "30m")

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
