// persistence/memory.go
package persistence

import (
	"sync"
	"time"

	"github.com/wfunc/yahtzee/models"
)

// Memory 内存实现，用于测试和本地开发。
// Atomic不提供回滚，引擎层的校验都在写入之前完成，测试足够用。
type Memory struct {
	mu           sync.Mutex
	players      map[uint]*models.Player
	matches      map[uint]*models.Match
	seats        map[uint]*models.Seat
	turns        map[uint]*models.Turn
	transactions map[uint]*models.Transaction
	nextID       uint
}

// NewMemory 创建内存数据库
func NewMemory() *Memory {
	return &Memory{
		players:      make(map[uint]*models.Player),
		matches:      make(map[uint]*models.Match),
		seats:        make(map[uint]*models.Seat),
		turns:        make(map[uint]*models.Turn),
		transactions: make(map[uint]*models.Transaction),
		nextID:       1,
	}
}

func (m *Memory) allocateID() uint {
	id := m.nextID
	m.nextID++
	return id
}

func (m *Memory) Atomic(fn func(tx Database) error) error {
	return fn(m)
}

func clonePlayer(p *models.Player) *models.Player {
	cp := *p
	return &cp
}

func cloneMatch(match *models.Match) *models.Match {
	cp := *match
	return &cp
}

func cloneSeat(s *models.Seat) *models.Seat {
	cp := *s
	return &cp
}

func cloneTurn(t *models.Turn) *models.Turn {
	cp := *t
	cp.Rolls = append([]string(nil), t.Rolls...)
	cp.KeepMasks = append([]string(nil), t.KeepMasks...)
	return &cp
}

func cloneTransaction(t *models.Transaction) *models.Transaction {
	cp := *t
	return &cp
}

// --- 玩家 ---

func (m *Memory) CreatePlayer(p *models.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.allocateID()
	p.CreatedAt = time.Now()
	m.players[p.ID] = clonePlayer(p)
	return nil
}

func (m *Memory) SavePlayer(p *models.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[p.ID] = clonePlayer(p)
	return nil
}

func (m *Memory) PlayerByID(id uint) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, exists := m.players[id]
	if !exists {
		return nil, ErrRecordNotFound
	}
	return clonePlayer(p), nil
}

func (m *Memory) PlayerByUsername(username string) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.players {
		if p.Username == username {
			return clonePlayer(p), nil
		}
	}
	return nil, ErrRecordNotFound
}

// --- 对局 ---

func (m *Memory) CreateMatch(match *models.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	match.ID = m.allocateID()
	match.CreatedAt = time.Now()
	m.matches[match.ID] = cloneMatch(match)
	return nil
}

func (m *Memory) SaveMatch(match *models.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches[match.ID] = cloneMatch(match)
	return nil
}

func (m *Memory) MatchByCode(code string) (*models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, match := range m.matches {
		if match.Code == code {
			return cloneMatch(match), nil
		}
	}
	return nil, ErrRecordNotFound
}

func (m *Memory) WaitingMatches() ([]*models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Match
	for _, match := range m.matches {
		if match.Status == models.MatchWaiting {
			result = append(result, cloneMatch(match))
		}
	}
	return result, nil
}

func (m *Memory) StaleWaitingMatches(olderThan time.Time) ([]*models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Match
	for _, match := range m.matches {
		if match.Status == models.MatchWaiting && match.CreatedAt.Before(olderThan) {
			result = append(result, cloneMatch(match))
		}
	}
	return result, nil
}

func (m *Memory) MatchesForPlayer(playerID uint) ([]*models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Match
	for _, seat := range m.seats {
		if seat.PlayerID != playerID {
			continue
		}
		if match, exists := m.matches[seat.MatchID]; exists {
			result = append(result, cloneMatch(match))
		}
	}
	return result, nil
}

func (m *Memory) PlayerHasActiveMatch(playerID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, seat := range m.seats {
		if seat.PlayerID != playerID {
			continue
		}
		match, exists := m.matches[seat.MatchID]
		if exists && !match.Status.IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

// --- 席位 ---

func (m *Memory) CreateSeat(s *models.Seat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.allocateID()
	s.CreatedAt = time.Now()
	m.seats[s.ID] = cloneSeat(s)
	return nil
}

func (m *Memory) SaveSeat(s *models.Seat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seats[s.ID] = cloneSeat(s)
	return nil
}

func (m *Memory) SeatsForMatch(matchID uint) ([]*models.Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Seat
	for _, seat := range m.seats {
		if seat.MatchID == matchID {
			result = append(result, cloneSeat(seat))
		}
	}
	sortSeats(result)
	return result, nil
}

func sortSeats(seats []*models.Seat) {
	for i := 1; i < len(seats); i++ {
		for j := i; j > 0 && seats[j].JoinOrder < seats[j-1].JoinOrder; j-- {
			seats[j], seats[j-1] = seats[j-1], seats[j]
		}
	}
}

func (m *Memory) SeatForPlayer(matchID, playerID uint) (*models.Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, seat := range m.seats {
		if seat.MatchID == matchID && seat.PlayerID == playerID {
			return cloneSeat(seat), nil
		}
	}
	return nil, ErrRecordNotFound
}

// --- 回合 ---

func (m *Memory) CreateTurn(t *models.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.allocateID()
	t.CreatedAt = time.Now()
	m.turns[t.ID] = cloneTurn(t)
	return nil
}

func (m *Memory) SaveTurn(t *models.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns[t.ID] = cloneTurn(t)
	return nil
}

func (m *Memory) TurnByID(id uint) (*models.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, exists := m.turns[id]
	if !exists {
		return nil, ErrRecordNotFound
	}
	return cloneTurn(t), nil
}

func (m *Memory) OpenTurnForPlayer(matchID, playerID uint) (*models.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.turns {
		if t.MatchID == matchID && t.PlayerID == playerID && !t.Completed {
			return cloneTurn(t), nil
		}
	}
	return nil, ErrRecordNotFound
}

func (m *Memory) CompletedTurnsForMatch(matchID uint) ([]*models.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Turn
	for _, t := range m.turns {
		if t.MatchID == matchID && t.Completed {
			result = append(result, cloneTurn(t))
		}
	}
	return result, nil
}

func (m *Memory) CompletedTurnsForPlayer(matchID, playerID uint) ([]*models.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Turn
	for _, t := range m.turns {
		if t.MatchID == matchID && t.PlayerID == playerID && t.Completed {
			result = append(result, cloneTurn(t))
		}
	}
	return result, nil
}

// --- 交易 ---

func (m *Memory) CreateTransaction(t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.allocateID()
	t.CreatedAt = time.Now()
	m.transactions[t.ID] = cloneTransaction(t)
	return nil
}

func (m *Memory) TransactionsForPlayer(playerID uint) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Transaction
	for _, t := range m.transactions {
		if t.PlayerID == playerID {
			result = append(result, cloneTransaction(t))
		}
	}
	sortTransactions(result)
	return result, nil
}

func (m *Memory) TransactionsForMatch(matchID uint) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Transaction
	for _, t := range m.transactions {
		if t.MatchID != nil && *t.MatchID == matchID {
			result = append(result, cloneTransaction(t))
		}
	}
	sortTransactions(result)
	return result, nil
}

func sortTransactions(txs []*models.Transaction) {
	for i := 1; i < len(txs); i++ {
		for j := i; j > 0 && txs[j].ID < txs[j-1].ID; j-- {
			txs[j], txs[j-1] = txs[j-1], txs[j]
		}
	}
}

func (m *Memory) Close() error {
	return nil
}

// 确保两个实现都满足Database接口
var _ Database = (*Memory)(nil)
var _ Database = (*GormPostgreSQL)(nil)
