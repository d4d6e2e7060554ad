// round/events.go
package round

import "github.com/wfunc/yahtzee/models"

// 推送给在座玩家的回合事件负载

type TurnStartedEvent struct {
	MatchCode string `json:"match_code"`
	PlayerID  uint   `json:"player_id"`
	Round     int    `json:"round"`
}

type DiceRolledEvent struct {
	MatchCode    string `json:"match_code"`
	PlayerID     uint   `json:"player_id"`
	RollNumber   int    `json:"roll_number"`
	Faces        string `json:"faces"`
	CanRollAgain bool   `json:"can_roll_again"`
}

type TurnCompletedEvent struct {
	MatchCode string          `json:"match_code"`
	PlayerID  uint            `json:"player_id"`
	Round     int             `json:"round"`
	Category  models.Category `json:"category"`
	Score     int             `json:"score"`
}
