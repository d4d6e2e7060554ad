// round/round.go
package round

import (
	"errors"
	"fmt"

	"github.com/wfunc/yahtzee/dice"
	"github.com/wfunc/yahtzee/logger"
	"github.com/wfunc/yahtzee/match"
	"github.com/wfunc/yahtzee/models"
	"github.com/wfunc/yahtzee/network"
	"github.com/wfunc/yahtzee/persistence"
	"github.com/wfunc/yahtzee/scoring"
)

// 错误定义
var (
	ErrNotYourTurn         = errors.New("not this player's turn")
	ErrPlayerInactive      = errors.New("player's seat is inactive")
	ErrTurnAlreadyOpen     = errors.New("player already has an open turn")
	ErrTurnCompleted       = errors.New("turn already completed")
	ErrMaxRollsReached     = errors.New("maximum rolls reached for this turn")
	ErrNoRolls             = errors.New("turn has no rolls to score")
	ErrCategoryUnavailable = errors.New("category already used in this match")
	ErrKeepMaskRequired    = errors.New("keep mask required for rerolls")
	ErrKeepMaskNotAllowed  = errors.New("keep mask not allowed on the first roll")
)

// Scheduler 回合结束后的轮转入口，由对局引擎实现
type Scheduler interface {
	WithMatch(code string, fn func() error) error
	AdvanceAfterTurn(tx persistence.Database, m *models.Match) error
}

// Broadcaster pushes turn events to seated players.
type Broadcaster interface {
	BroadcastToMatch(matchID uint, msgID uint16, v any) error
}

// Engine 回合引擎：掷骰、保留、选类别计分
type Engine struct {
	db          persistence.Database
	roller      *dice.Roller
	scheduler   Scheduler
	broadcaster Broadcaster
}

func New(db persistence.Database, roller *dice.Roller, scheduler Scheduler, broadcaster Broadcaster) *Engine {
	return &Engine{
		db:          db,
		roller:      roller,
		scheduler:   scheduler,
		broadcaster: broadcaster,
	}
}

// StartTurn 开启当前行动玩家的回合，0次掷骰
func (e *Engine) StartTurn(code string, playerID uint) (*models.Turn, error) {
	var turn *models.Turn
	err := e.scheduler.WithMatch(code, func() error {
		m, err := e.currentMatch(code, playerID)
		if err != nil {
			return err
		}

		seat, err := e.db.SeatForPlayer(m.ID, playerID)
		if err != nil {
			return err
		}
		if !seat.Active {
			return ErrPlayerInactive
		}

		if _, err := e.db.OpenTurnForPlayer(m.ID, playerID); err == nil {
			return ErrTurnAlreadyOpen
		} else if !errors.Is(err, persistence.ErrRecordNotFound) {
			return err
		}

		turn = &models.Turn{
			MatchID:     m.ID,
			PlayerID:    playerID,
			RoundNumber: m.CurrentRound,
		}
		if err := e.db.CreateTurn(turn); err != nil {
			return err
		}

		e.notify(m.ID, network.MsgTypeTurnStarted, TurnStartedEvent{
			MatchCode: m.Code,
			PlayerID:  playerID,
			Round:     m.CurrentRound,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return turn, nil
}

// Roll 掷骰。第1次必须不带保留模式，第2、3次必须带，
// 保留位沿用上一次的点数，其余重掷。
func (e *Engine) Roll(code string, playerID uint, keepMask string) (*models.Turn, error) {
	var turn *models.Turn
	err := e.scheduler.WithMatch(code, func() error {
		m, err := e.currentMatch(code, playerID)
		if err != nil {
			return err
		}

		turn, err = e.openTurn(m, playerID)
		if err != nil {
			return err
		}
		if turn.RollCount() >= models.MaxRollsPerTurn {
			return ErrMaxRollsReached
		}

		var faces [5]int
		if turn.RollCount() == 0 {
			if keepMask != "" {
				return ErrKeepMaskNotAllowed
			}
			faces = e.roller.RollAll()
		} else {
			if keepMask == "" {
				return ErrKeepMaskRequired
			}
			keep, err := dice.ParseMask(keepMask)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrKeepMaskRequired, err)
			}
			previous, err := dice.ParseFaces(turn.Rolls[len(turn.Rolls)-1])
			if err != nil {
				return err
			}
			faces = e.roller.Reroll(previous, keep)
			turn.KeepMasks = append(turn.KeepMasks, keepMask)
		}

		turn.Rolls = append(turn.Rolls, dice.FacesToString(faces))
		if err := e.db.SaveTurn(turn); err != nil {
			return err
		}

		e.notify(m.ID, network.MsgTypeDiceRolled, DiceRolledEvent{
			MatchCode:    m.Code,
			PlayerID:     playerID,
			RollNumber:   turn.RollCount(),
			Faces:        dice.FacesToString(faces),
			CanRollAgain: CanRollAgain(turn),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return turn, nil
}

// Complete 选定类别结算回合：按最后一次掷骰计分，一经结算不可更改，
// 类别在一个对局内每人只能用一次。成功后触发轮转调度。
func (e *Engine) Complete(code string, playerID uint, category models.Category) (*models.Turn, error) {
	var turn *models.Turn
	err := e.scheduler.WithMatch(code, func() error {
		m, err := e.currentMatch(code, playerID)
		if err != nil {
			return err
		}

		turn, err = e.openTurn(m, playerID)
		if err != nil {
			return err
		}
		if turn.RollCount() == 0 {
			return ErrNoRolls
		}

		used, err := e.db.CompletedTurnsForPlayer(m.ID, playerID)
		if err != nil {
			return err
		}
		for _, prev := range used {
			if prev.SelectedCategory != nil && *prev.SelectedCategory == category {
				return ErrCategoryUnavailable
			}
		}

		faces, err := dice.ParseFaces(turn.Rolls[len(turn.Rolls)-1])
		if err != nil {
			return err
		}
		score, err := scoring.Score(faces, category)
		if err != nil {
			return err
		}

		err = e.db.Atomic(func(tx persistence.Database) error {
			turn.SelectedCategory = &category
			turn.Score = score
			turn.Completed = true
			if err := tx.SaveTurn(turn); err != nil {
				return err
			}

			seat, err := tx.SeatForPlayer(m.ID, playerID)
			if err != nil {
				return err
			}
			seat.TotalScore += score
			if err := tx.SaveSeat(seat); err != nil {
				return err
			}

			return e.scheduler.AdvanceAfterTurn(tx, m)
		})
		if err != nil {
			return err
		}

		e.notify(m.ID, network.MsgTypeTurnCompleted, TurnCompletedEvent{
			MatchCode: m.Code,
			PlayerID:  playerID,
			Round:     turn.RoundNumber,
			Category:  category,
			Score:     score,
		})
		logger.Log.Infof("Player %d scored %d with %s in match %s round %d",
			playerID, score, category, m.Code, turn.RoundNumber)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return turn, nil
}

// CanRollAgain 回合未结算且掷骰未满3次
func CanRollAgain(turn *models.Turn) bool {
	return !turn.Completed && turn.RollCount() < models.MaxRollsPerTurn
}

// Suggestions 按当前骰面给出的类别建议，得分高者在前
func (e *Engine) Suggestions(code string, playerID uint) ([]models.Category, models.Category, error) {
	m, err := e.db.MatchByCode(code)
	if err != nil {
		return nil, "", err
	}
	turn, err := e.openTurn(m, playerID)
	if err != nil {
		return nil, "", err
	}
	if turn.RollCount() == 0 {
		return nil, "", ErrNoRolls
	}

	faces, err := dice.ParseFaces(turn.Rolls[len(turn.Rolls)-1])
	if err != nil {
		return nil, "", err
	}
	suggested, err := scoring.SuggestCategories(faces)
	if err != nil {
		return nil, "", err
	}
	best, err := scoring.BestCategory(faces)
	if err != nil {
		return nil, "", err
	}
	return suggested, best, nil
}

// Scorecard 一个对局的全部已结算回合
func (e *Engine) Scorecard(code string) ([]*models.Turn, error) {
	m, err := e.db.MatchByCode(code)
	if err != nil {
		return nil, err
	}
	return e.db.CompletedTurnsForMatch(m.ID)
}

// currentMatch 校验对局进行中且轮到该玩家
func (e *Engine) currentMatch(code string, playerID uint) (*models.Match, error) {
	m, err := e.db.MatchByCode(code)
	if err != nil {
		return nil, err
	}
	if m.Status != models.MatchInProgress {
		return nil, match.ErrNotInProgress
	}
	if m.CurrentTurnPlayerID == nil || *m.CurrentTurnPlayerID != playerID {
		return nil, ErrNotYourTurn
	}
	return m, nil
}

// openTurn 取当前未结算回合；本轮已结算返回ErrTurnCompleted
func (e *Engine) openTurn(m *models.Match, playerID uint) (*models.Turn, error) {
	turn, err := e.db.OpenTurnForPlayer(m.ID, playerID)
	if err == nil {
		return turn, nil
	}
	if !errors.Is(err, persistence.ErrRecordNotFound) {
		return nil, err
	}

	completed, cErr := e.db.CompletedTurnsForPlayer(m.ID, playerID)
	if cErr != nil {
		return nil, cErr
	}
	for _, t := range completed {
		if t.RoundNumber == m.CurrentRound {
			return nil, ErrTurnCompleted
		}
	}
	return nil, err
}

func (e *Engine) notify(matchID uint, msgID uint16, v any) {
	if e.broadcaster == nil {
		return
	}
	if err := e.broadcaster.BroadcastToMatch(matchID, msgID, v); err != nil {
		logger.Log.Warnf("Broadcast failed for match %d: %v", matchID, err)
	}
}
