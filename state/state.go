package state

import (
	"errors"

	"github.com/wfunc/yahtzee/models"
)

// ErrTransitionNotAllowed is returned when a match status transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// 对局状态转换表：fromStatus -> 允许的toStatus集合。
// 状态单调推进，进入IN_PROGRESS后不允许回到WAITING，终态不再转换。
var transitions = map[models.MatchStatus]map[models.MatchStatus]bool{
	models.MatchWaiting: {
		models.MatchWaiting:    true, // join在WAITING上自环
		models.MatchInProgress: true,
		models.MatchCancelled:  true,
	},
	models.MatchInProgress: {
		models.MatchFinished:  true,
		models.MatchCancelled: true,
	},
}

// CanTransition 检查状态转换是否合法
func CanTransition(from, to models.MatchStatus) bool {
	allowed, exists := transitions[from]
	if !exists {
		return false
	}
	return allowed[to]
}

// Transition 执行状态转换，非法转换返回ErrTransitionNotAllowed且不修改对局
func Transition(m *models.Match, to models.MatchStatus) error {
	if !CanTransition(m.Status, to) {
		return ErrTransitionNotAllowed
	}
	m.Status = to
	return nil
}
