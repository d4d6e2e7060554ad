// models/gorm_models.go
package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Player 玩家模型
type Player struct {
	gorm.Model
	Username string          `gorm:"uniqueIndex;not null" json:"username"`
	Email    string          `gorm:"uniqueIndex;not null" json:"email"`
	Password string          `gorm:"not null" json:"-"`
	Balance  decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"balance"`

	// 玩家生涯统计，对局结束时更新一次
	GamesPlayed   int             `gorm:"default:0" json:"games_played"`
	GamesWon      int             `gorm:"default:0" json:"games_won"`
	GamesLost     int             `gorm:"default:0" json:"games_lost"`
	TotalEarnings decimal.Decimal `gorm:"type:numeric(20,2)" json:"total_earnings"`
	TotalLosses   decimal.Decimal `gorm:"type:numeric(20,2)" json:"total_losses"`
	HighestScore  int             `gorm:"default:0" json:"highest_score"`

	Active       bool       `gorm:"default:true" json:"active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
}

// HasEnoughBalance 余额是否足以支付amount
func (p *Player) HasEnoughBalance(amount decimal.Decimal) bool {
	return p.Balance.GreaterThanOrEqual(amount)
}

// WinRate 胜率百分比
func (p *Player) WinRate() float64 {
	if p.GamesPlayed == 0 {
		return 0
	}
	return float64(p.GamesWon) / float64(p.GamesPlayed) * 100
}

// NetEarnings 净收益
func (p *Player) NetEarnings() decimal.Decimal {
	return p.TotalEarnings.Sub(p.TotalLosses)
}

// Match 对局模型
type Match struct {
	gorm.Model
	Code        string          `gorm:"uniqueIndex;not null" json:"code"`
	Status      MatchStatus     `gorm:"not null" json:"status"`
	StakeAmount decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"stake_amount"`
	MaxSeats    int             `gorm:"not null" json:"max_seats"`

	CurrentRound int `gorm:"default:1" json:"current_round"`
	MaxRoundsNum int `gorm:"column:max_rounds;default:13" json:"max_rounds"`

	CurrentTurnPlayerID *uint `json:"current_turn_player_id,omitempty"`
	WinnerID            *uint `json:"winner_id,omitempty"`

	// PrizePool 等于通过账本实际收取的押金之和
	PrizePool decimal.Decimal `gorm:"type:numeric(20,2)" json:"prize_pool"`

	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Seat 玩家在一个对局中的席位
type Seat struct {
	gorm.Model
	MatchID  uint `gorm:"index:idx_seat_match_player,unique;not null" json:"match_id"`
	PlayerID uint `gorm:"index:idx_seat_match_player,unique;not null" json:"player_id"`

	// JoinOrder 加入顺序，1起始，决定回合顺序，分配后不变
	JoinOrder  int  `gorm:"not null" json:"join_order"`
	TotalScore int  `gorm:"default:0" json:"total_score"`
	Active     bool `gorm:"default:true" json:"active"`
}

// Turn 一个玩家在某一轮的掷骰回合
type Turn struct {
	gorm.Model
	MatchID     uint `gorm:"index;not null" json:"match_id"`
	PlayerID    uint `gorm:"index;not null" json:"player_id"`
	RoundNumber int  `gorm:"not null" json:"round_number"`

	// Rolls 每次掷骰结果，5位数字字符串如"13462"，最多3条
	Rolls pq.StringArray `gorm:"type:text[]" json:"rolls"`
	// KeepMasks 第2、3次掷骰前保留骰子的模式，5位01字符串如"01101"
	KeepMasks pq.StringArray `gorm:"type:text[]" json:"keep_masks"`

	SelectedCategory *Category `json:"selected_category,omitempty"`
	Score            int       `gorm:"default:0" json:"score"`
	Completed        bool      `gorm:"default:false" json:"completed"`
}

// RollCount 已掷骰次数
func (t *Turn) RollCount() int {
	return len(t.Rolls)
}

// Transaction 账本交易，不可变，余额变动的唯一途径
type Transaction struct {
	gorm.Model
	PlayerID uint            `gorm:"index;not null" json:"player_id"`
	MatchID  *uint           `gorm:"index" json:"match_id,omitempty"`
	Type     TransactionType `gorm:"not null" json:"type"`
	Amount   decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	// BalanceAfter 交易后余额快照
	BalanceAfter decimal.Decimal `gorm:"type:numeric(20,2)" json:"balance_after"`
	Description  string          `gorm:"size:500" json:"description"`
}

// SignedAmount 带符号金额，所有交易的带符号金额之和应等于当前余额
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type.IsCredit() {
		return t.Amount
	}
	return t.Amount.Neg()
}
