// match/events.go
package match

import "github.com/shopspring/decimal"

// 推送给在座玩家的对局事件负载

type PlayerJoinedEvent struct {
	MatchCode string          `json:"match_code"`
	PlayerID  uint            `json:"player_id"`
	JoinOrder int             `json:"join_order"`
	SeatCount int             `json:"seat_count"`
	PrizePool decimal.Decimal `json:"prize_pool"`
}

type MatchStartedEvent struct {
	MatchCode     string          `json:"match_code"`
	FirstPlayerID uint            `json:"first_player_id"`
	SeatCount     int             `json:"seat_count"`
	PrizePool     decimal.Decimal `json:"prize_pool"`
}

type TurnAdvancedEvent struct {
	MatchCode    string `json:"match_code"`
	NextPlayerID uint   `json:"next_player_id"`
	Round        int    `json:"round"`
}

type MatchFinishedEvent struct {
	MatchCode string          `json:"match_code"`
	WinnerID  *uint           `json:"winner_id,omitempty"`
	PrizePool decimal.Decimal `json:"prize_pool"`
}

type MatchCancelledEvent struct {
	MatchCode string `json:"match_code"`
	Reason    string `json:"reason"`
}
