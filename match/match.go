// match/match.go
package match

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wfunc/yahtzee/ledger"
	"github.com/wfunc/yahtzee/logger"
	"github.com/wfunc/yahtzee/models"
	"github.com/wfunc/yahtzee/network"
	"github.com/wfunc/yahtzee/persistence"
	"github.com/wfunc/yahtzee/state"
)

// 错误定义
var (
	ErrInvalidStake     = errors.New("stake amount must be positive")
	ErrInvalidSeats     = errors.New("max seats out of range")
	ErrMatchNotJoinable = errors.New("match is not joinable")
	ErrMatchFull        = errors.New("match is full")
	ErrAlreadySeated    = errors.New("player already seated in this match")
	ErrPlayerBusy       = errors.New("player already active in another match")
	ErrNotEnoughSeats   = errors.New("not enough seated players to start")
	ErrNotInProgress    = errors.New("match is not in progress")
)

// lockTable 对局级互斥表，同一对局的状态转换串行执行
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.Mutex)}
}

func (t *lockTable) forMatch(code string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, exists := t.locks[code]
	if !exists {
		l = &sync.Mutex{}
		t.locks[code] = l
	}
	return l
}

// playerLockTable 玩家级互斥表。忙闲检查到入座提交之间持有玩家锁，
// 同一玩家跨对局的并发建桌/入座串行执行，保证一人同时只在一局。
type playerLockTable struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newPlayerLockTable() *playerLockTable {
	return &playerLockTable{locks: make(map[uint]*sync.Mutex)}
}

func (t *playerLockTable) forPlayer(playerID uint) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, exists := t.locks[playerID]
	if !exists {
		l = &sync.Mutex{}
		t.locks[playerID] = l
	}
	return l
}

// Engine 对局生命周期引擎：建桌、入座、开局、轮转、结算、取消
type Engine struct {
	db          persistence.Database
	ledger      *ledger.Ledger
	broadcaster Broadcaster
	locks       *lockTable
	playerLocks *playerLockTable
}

func New(db persistence.Database, led *ledger.Ledger, broadcaster Broadcaster) *Engine {
	return &Engine{
		db:          db,
		ledger:      led,
		broadcaster: broadcaster,
		locks:       newLockTable(),
		playerLocks: newPlayerLockTable(),
	}
}

// WithMatch 持有对局锁执行fn，回合引擎也通过它串行化同一对局的操作
func (e *Engine) WithMatch(code string, fn func() error) error {
	l := e.locks.forMatch(code)
	l.Lock()
	defer l.Unlock()
	return fn()
}

// newMatchCode 生成8位大写对局码
func newMatchCode() string {
	return strings.ToUpper(uuid.New().String()[:8])
}

// Create 建桌：校验押金和座位数，扣除创建者押金，1号位入座
func (e *Engine) Create(creatorID uint, stake decimal.Decimal, maxSeats int) (*models.Match, error) {
	if stake.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidStake
	}
	if maxSeats < models.MinSeats || maxSeats > models.MaxSeats {
		return nil, ErrInvalidSeats
	}

	// 玩家锁覆盖忙闲检查到入座提交，另一局的并发建桌/入座在此排队
	playerLock := e.playerLocks.forPlayer(creatorID)
	playerLock.Lock()
	defer playerLock.Unlock()

	busy, err := e.db.PlayerHasActiveMatch(creatorID)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, ErrPlayerBusy
	}

	m := &models.Match{
		Code:         newMatchCode(),
		Status:       models.MatchWaiting,
		StakeAmount:  stake,
		MaxSeats:     maxSeats,
		CurrentRound: 1,
		MaxRoundsNum: models.MaxRounds,
		PrizePool:    decimal.Zero,
	}

	err = e.db.Atomic(func(tx persistence.Database) error {
		if err := tx.CreateMatch(m); err != nil {
			return err
		}
		if _, err := e.ledger.In(tx).Debit(creatorID, &m.ID, models.TxBet, stake,
			fmt.Sprintf("Stake for match %s", m.Code)); err != nil {
			return err
		}
		seat := &models.Seat{
			MatchID:   m.ID,
			PlayerID:  creatorID,
			JoinOrder: 1,
			Active:    true,
		}
		if err := tx.CreateSeat(seat); err != nil {
			return err
		}
		m.PrizePool = stake
		return tx.SaveMatch(m)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Infof("Match %s created by player %d, stake %s, max seats %d",
		m.Code, creatorID, stake, maxSeats)
	return m, nil
}

// Join 入座：扣押金、按加入顺序分配座位、重算奖池
func (e *Engine) Join(code string, playerID uint) (*models.Seat, error) {
	var seat *models.Seat
	err := e.WithMatch(code, func() error {
		m, err := e.db.MatchByCode(code)
		if err != nil {
			return err
		}
		if m.Status != models.MatchWaiting {
			return ErrMatchNotJoinable
		}

		seats, err := e.db.SeatsForMatch(m.ID)
		if err != nil {
			return err
		}
		if len(seats) >= m.MaxSeats {
			return ErrMatchFull
		}
		for _, s := range seats {
			if s.PlayerID == playerID {
				return ErrAlreadySeated
			}
		}

		// 对局锁之后再占玩家锁，覆盖忙闲检查到入座提交
		playerLock := e.playerLocks.forPlayer(playerID)
		playerLock.Lock()
		defer playerLock.Unlock()

		busy, err := e.db.PlayerHasActiveMatch(playerID)
		if err != nil {
			return err
		}
		if busy {
			return ErrPlayerBusy
		}

		return e.db.Atomic(func(tx persistence.Database) error {
			if _, err := e.ledger.In(tx).Debit(playerID, &m.ID, models.TxBet, m.StakeAmount,
				fmt.Sprintf("Stake for match %s", m.Code)); err != nil {
				return err
			}
			seat = &models.Seat{
				MatchID:   m.ID,
				PlayerID:  playerID,
				JoinOrder: len(seats) + 1,
				Active:    true,
			}
			if err := tx.CreateSeat(seat); err != nil {
				return err
			}
			// 奖池始终等于实收押金之和
			m.PrizePool = m.PrizePool.Add(m.StakeAmount)
			if err := tx.SaveMatch(m); err != nil {
				return err
			}

			e.notify(m.ID, network.MsgTypePlayerJoined, PlayerJoinedEvent{
				MatchCode: m.Code,
				PlayerID:  playerID,
				JoinOrder: seat.JoinOrder,
				SeatCount: len(seats) + 1,
				PrizePool: m.PrizePool,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return seat, nil
}

// Start 开局：至少2人，1号位先行
func (e *Engine) Start(code string) (*models.Match, error) {
	var m *models.Match
	err := e.WithMatch(code, func() error {
		var err error
		m, err = e.db.MatchByCode(code)
		if err != nil {
			return err
		}

		seats, err := e.db.SeatsForMatch(m.ID)
		if err != nil {
			return err
		}
		if len(seats) < models.MinSeats {
			return ErrNotEnoughSeats
		}

		if err := state.Transition(m, models.MatchInProgress); err != nil {
			return err
		}
		now := time.Now()
		m.StartedAt = &now
		first := firstActive(seats)
		if first != nil {
			pid := first.PlayerID
			m.CurrentTurnPlayerID = &pid
		}
		if err := e.db.SaveMatch(m); err != nil {
			return err
		}

		e.notify(m.ID, network.MsgTypeMatchStarted, MatchStartedEvent{
			MatchCode:     m.Code,
			FirstPlayerID: *m.CurrentTurnPlayerID,
			SeatCount:     len(seats),
			PrizePool:     m.PrizePool,
		})
		logger.Log.Infof("Match %s started with %d players, prize pool %s",
			m.Code, len(seats), m.PrizePool)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// AdvanceAfterTurn 回合结束后的轮转调度：下一个本轮未行动的在座玩家，
// 全员行动完则进入下一轮，第13轮打完触发结算。调用方需持有对局锁。
func (e *Engine) AdvanceAfterTurn(tx persistence.Database, m *models.Match) error {
	seats, err := tx.SeatsForMatch(m.ID)
	if err != nil {
		return err
	}
	active := activeSeats(seats)
	if len(active) == 0 {
		// 全员弃局，直接结算
		return e.finish(tx, m, seats)
	}

	turns, err := tx.CompletedTurnsForMatch(m.ID)
	if err != nil {
		return err
	}
	done := make(map[uint]bool)
	for _, t := range turns {
		if t.RoundNumber == m.CurrentRound {
			done[t.PlayerID] = true
		}
	}

	// 从当前玩家之后按加入顺序找本轮未行动的在座玩家
	start := 0
	if m.CurrentTurnPlayerID != nil {
		for i, s := range active {
			if s.PlayerID == *m.CurrentTurnPlayerID {
				start = i + 1
				break
			}
		}
	}
	for i := 0; i < len(active); i++ {
		s := active[(start+i)%len(active)]
		if !done[s.PlayerID] {
			pid := s.PlayerID
			m.CurrentTurnPlayerID = &pid
			if err := tx.SaveMatch(m); err != nil {
				return err
			}
			e.notify(m.ID, network.MsgTypeTurnAdvanced, TurnAdvancedEvent{
				MatchCode:    m.Code,
				NextPlayerID: pid,
				Round:        m.CurrentRound,
			})
			return nil
		}
	}

	// 本轮全员已行动
	if m.CurrentRound < m.MaxRoundsNum {
		m.CurrentRound++
		pid := active[0].PlayerID
		m.CurrentTurnPlayerID = &pid
		if err := tx.SaveMatch(m); err != nil {
			return err
		}
		e.notify(m.ID, network.MsgTypeTurnAdvanced, TurnAdvancedEvent{
			MatchCode:    m.Code,
			NextPlayerID: pid,
			Round:        m.CurrentRound,
		})
		return nil
	}
	return e.finish(tx, m, seats)
}

// finish 结算：定胜者、派发奖池、更新生涯统计（每个对局恰好一次）
func (e *Engine) finish(tx persistence.Database, m *models.Match, seats []*models.Seat) error {
	if m.Status != models.MatchInProgress {
		return ErrNotInProgress
	}

	winner := winnerSeat(seats)
	if err := state.Transition(m, models.MatchFinished); err != nil {
		return err
	}
	now := time.Now()
	m.FinishedAt = &now
	m.CurrentTurnPlayerID = nil

	if winner != nil {
		pid := winner.PlayerID
		m.WinnerID = &pid
		if _, err := e.ledger.In(tx).Credit(pid, &m.ID, models.TxWin, m.PrizePool,
			fmt.Sprintf("Prize payout for match %s", m.Code)); err != nil {
			return err
		}
	}

	for _, s := range seats {
		p, err := tx.PlayerByID(s.PlayerID)
		if err != nil {
			return err
		}
		p.GamesPlayed++
		if winner != nil && s.PlayerID == winner.PlayerID {
			p.GamesWon++
			p.TotalEarnings = p.TotalEarnings.Add(m.PrizePool)
		} else {
			p.GamesLost++
			p.TotalLosses = p.TotalLosses.Add(m.StakeAmount)
		}
		if s.TotalScore > p.HighestScore {
			p.HighestScore = s.TotalScore
		}
		if err := tx.SavePlayer(p); err != nil {
			return err
		}
	}

	if err := tx.SaveMatch(m); err != nil {
		return err
	}

	e.notify(m.ID, network.MsgTypeMatchFinished, MatchFinishedEvent{
		MatchCode: m.Code,
		WinnerID:  m.WinnerID,
		PrizePool: m.PrizePool,
	})
	if winner != nil {
		logger.Log.Infof("Match %s finished, winner player %d takes %s",
			m.Code, winner.PlayerID, m.PrizePool)
	} else {
		logger.Log.Warnf("Match %s finished with no eligible winner", m.Code)
	}
	return nil
}

// Finish 管理入口：直接结算一个进行中的对局
func (e *Engine) Finish(code string) (*models.Match, error) {
	var m *models.Match
	err := e.WithMatch(code, func() error {
		var err error
		m, err = e.db.MatchByCode(code)
		if err != nil {
			return err
		}
		seats, err := e.db.SeatsForMatch(m.ID)
		if err != nil {
			return err
		}
		return e.db.Atomic(func(tx persistence.Database) error {
			return e.finish(tx, m, seats)
		})
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Cancel 取消对局并逐席退款，每笔退款独立入账
func (e *Engine) Cancel(code string, reason string) error {
	return e.WithMatch(code, func() error {
		m, err := e.db.MatchByCode(code)
		if err != nil {
			return err
		}
		if err := state.Transition(m, models.MatchCancelled); err != nil {
			return err
		}

		seats, err := e.db.SeatsForMatch(m.ID)
		if err != nil {
			return err
		}

		err = e.db.Atomic(func(tx persistence.Database) error {
			now := time.Now()
			m.FinishedAt = &now
			m.CurrentTurnPlayerID = nil
			if err := tx.SaveMatch(m); err != nil {
				return err
			}
			for _, s := range seats {
				if _, err := e.ledger.In(tx).Credit(s.PlayerID, &m.ID, models.TxRefund,
					m.StakeAmount, fmt.Sprintf("Refund for match %s: %s", m.Code, reason)); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		e.notify(m.ID, network.MsgTypeMatchCancelled, MatchCancelledEvent{
			MatchCode: m.Code,
			Reason:    reason,
		})
		logger.Log.Infof("Match %s cancelled (%s), %d stakes refunded", m.Code, reason, len(seats))
		return nil
	})
}

// Deactivate 玩家弃局：席位退出轮转但保留已得分数。
// 如果弃局的是当前行动玩家，立即轮转。
func (e *Engine) Deactivate(code string, playerID uint) error {
	return e.WithMatch(code, func() error {
		m, err := e.db.MatchByCode(code)
		if err != nil {
			return err
		}
		if m.Status != models.MatchInProgress {
			return ErrNotInProgress
		}
		seat, err := e.db.SeatForPlayer(m.ID, playerID)
		if err != nil {
			return err
		}
		seat.Active = false
		return e.db.Atomic(func(tx persistence.Database) error {
			if err := tx.SaveSeat(seat); err != nil {
				return err
			}
			if m.CurrentTurnPlayerID != nil && *m.CurrentTurnPlayerID == playerID {
				return e.AdvanceAfterTurn(tx, m)
			}
			return nil
		})
	})
}

// ExpireIdleMatches 取消闲置超时的等待中对局，定时器定期调用
func (e *Engine) ExpireIdleMatches(ttl time.Duration) int {
	stale, err := e.db.StaleWaitingMatches(time.Now().Add(-ttl))
	if err != nil {
		logger.Log.Errorf("Failed to list stale matches: %v", err)
		return 0
	}

	expired := 0
	for _, m := range stale {
		if err := e.Cancel(m.Code, "expired while waiting for players"); err != nil {
			logger.Log.Errorf("Failed to expire match %s: %v", m.Code, err)
			continue
		}
		expired++
	}
	return expired
}

// Available 可加入对局列表：等待中且有空位
func (e *Engine) Available() ([]models.MatchSummary, error) {
	waiting, err := e.db.WaitingMatches()
	if err != nil {
		return nil, err
	}

	summaries := make([]models.MatchSummary, 0, len(waiting))
	for _, m := range waiting {
		seats, err := e.db.SeatsForMatch(m.ID)
		if err != nil {
			return nil, err
		}
		if len(seats) >= m.MaxSeats {
			continue
		}
		summaries = append(summaries, models.MatchSummary{
			Code:        m.Code,
			Status:      m.Status,
			StakeAmount: m.StakeAmount,
			PrizePool:   m.PrizePool,
			MaxSeats:    m.MaxSeats,
			SeatCount:   len(seats),
		})
	}
	return summaries, nil
}

// ByCode 查询对局及其席位
func (e *Engine) ByCode(code string) (*models.Match, []*models.Seat, error) {
	m, err := e.db.MatchByCode(code)
	if err != nil {
		return nil, nil, err
	}
	seats, err := e.db.SeatsForMatch(m.ID)
	if err != nil {
		return nil, nil, err
	}
	return m, seats, nil
}

// HistoryForPlayer 玩家参与过的对局
func (e *Engine) HistoryForPlayer(playerID uint) ([]*models.Match, error) {
	return e.db.MatchesForPlayer(playerID)
}

func (e *Engine) notify(matchID uint, msgID uint16, v any) {
	if e.broadcaster == nil {
		return
	}
	if err := e.broadcaster.BroadcastToMatch(matchID, msgID, v); err != nil {
		logger.Log.Warnf("Broadcast failed for match %d: %v", matchID, err)
	}
}

func activeSeats(seats []*models.Seat) []*models.Seat {
	active := make([]*models.Seat, 0, len(seats))
	for _, s := range seats {
		if s.Active {
			active = append(active, s)
		}
	}
	return active
}

func firstActive(seats []*models.Seat) *models.Seat {
	for _, s := range seats {
		if s.Active {
			return s
		}
	}
	return nil
}

// winnerSeat 在座玩家中总分最高者胜，平分时先入座者胜；
// 无在座玩家时退回全部席位比较
func winnerSeat(seats []*models.Seat) *models.Seat {
	candidates := activeSeats(seats)
	if len(candidates) == 0 {
		candidates = seats
	}

	var winner *models.Seat
	for _, s := range candidates {
		if winner == nil ||
			s.TotalScore > winner.TotalScore ||
			(s.TotalScore == winner.TotalScore && s.JoinOrder < winner.JoinOrder) {
			winner = s
		}
	}
	return winner
}
