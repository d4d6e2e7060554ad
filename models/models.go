// models/models.go
package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MatchStatus 对局状态
type MatchStatus string

const (
	MatchWaiting    MatchStatus = "WAITING"
	MatchInProgress MatchStatus = "IN_PROGRESS"
	MatchFinished   MatchStatus = "FINISHED"
	MatchCancelled  MatchStatus = "CANCELLED"
)

// IsTerminal 终态不再允许任何状态转换
func (s MatchStatus) IsTerminal() bool {
	return s == MatchFinished || s == MatchCancelled
}

// Category Yahtzee计分类别
type Category string

const (
	Ones           Category = "ONES"
	Twos           Category = "TWOS"
	Threes         Category = "THREES"
	Fours          Category = "FOURS"
	Fives          Category = "FIVES"
	Sixes          Category = "SIXES"
	ThreeOfAKind   Category = "THREE_OF_A_KIND"
	FourOfAKind    Category = "FOUR_OF_A_KIND"
	FullHouse      Category = "FULL_HOUSE"
	SmallStraight  Category = "SMALL_STRAIGHT"
	LargeStraight  Category = "LARGE_STRAIGHT"
	Yahtzee        Category = "YAHTZEE"
	Chance         Category = "CHANCE"
)

// Categories 按声明顺序排列，打分建议的平局按此顺序决定
var Categories = []Category{
	Ones, Twos, Threes, Fours, Fives, Sixes,
	ThreeOfAKind, FourOfAKind, FullHouse,
	SmallStraight, LargeStraight, Yahtzee, Chance,
}

// ParseCategory 解析类别字符串
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category: %s", s)
}

// FaceValue 上区类别对应的点数，非上区类别返回0
func (c Category) FaceValue() int {
	switch c {
	case Ones:
		return 1
	case Twos:
		return 2
	case Threes:
		return 3
	case Fours:
		return 4
	case Fives:
		return 5
	case Sixes:
		return 6
	}
	return 0
}

// TransactionType 账本交易类型
type TransactionType string

const (
	TxDeposit    TransactionType = "DEPOSIT"
	TxWithdrawal TransactionType = "WITHDRAWAL"
	TxBet        TransactionType = "BET"
	TxWin        TransactionType = "WIN"
	TxLose       TransactionType = "LOSE"
	TxRefund     TransactionType = "REFUND"
	TxBonus      TransactionType = "BONUS"
	TxPenalty    TransactionType = "PENALTY"
)

// IsCredit 该类型是否增加余额
func (t TransactionType) IsCredit() bool {
	switch t {
	case TxDeposit, TxWin, TxRefund, TxBonus:
		return true
	}
	return false
}

// MaxRounds 标准Yahtzee共13轮，每轮每个玩家选一个类别
const MaxRounds = 13

// MaxRollsPerTurn 每回合最多掷3次骰子
const MaxRollsPerTurn = 3

const (
	MinSeats = 2
	MaxSeats = 6
)

// MatchSummary 对局列表项（只读视图）
type MatchSummary struct {
	Code        string          `json:"code"`
	Status      MatchStatus     `json:"status"`
	StakeAmount decimal.Decimal `json:"stake_amount"`
	PrizePool   decimal.Decimal `json:"prize_pool"`
	MaxSeats    int             `json:"max_seats"`
	SeatCount   int             `json:"seat_count"`
}

// LeaderboardEntry 排行榜条目（统计查询结果）
type LeaderboardEntry struct {
	Username     string          `json:"username"`
	GamesPlayed  int             `json:"games_played"`
	GamesWon     int             `json:"games_won"`
	HighestScore int             `json:"highest_score"`
	NetEarnings  decimal.Decimal `json:"net_earnings"`
}

// SystemTotals 系统级统计
type SystemTotals struct {
	ActivePlayers     int64           `json:"active_players"`
	TotalBalance      decimal.Decimal `json:"total_balance"`
	FinishedMatches   int64           `json:"finished_matches"`
	PrizesDistributed decimal.Decimal `json:"prizes_distributed"`
}
