// persistence/interface.go
package persistence

import (
	"errors"
	"time"

	"github.com/wfunc/yahtzee/models"
)

// Database 数据库接口。Atomic返回的Database绑定同一个事务，
// 引擎层用它把多步写入合并为全有或全无的提交。
type Database interface {
	Atomic(fn func(tx Database) error) error

	CreatePlayer(p *models.Player) error
	SavePlayer(p *models.Player) error
	PlayerByID(id uint) (*models.Player, error)
	PlayerByUsername(username string) (*models.Player, error)

	CreateMatch(m *models.Match) error
	SaveMatch(m *models.Match) error
	MatchByCode(code string) (*models.Match, error)
	WaitingMatches() ([]*models.Match, error)
	StaleWaitingMatches(olderThan time.Time) ([]*models.Match, error)
	MatchesForPlayer(playerID uint) ([]*models.Match, error)
	PlayerHasActiveMatch(playerID uint) (bool, error)

	CreateSeat(s *models.Seat) error
	SaveSeat(s *models.Seat) error
	SeatsForMatch(matchID uint) ([]*models.Seat, error)
	SeatForPlayer(matchID, playerID uint) (*models.Seat, error)

	CreateTurn(t *models.Turn) error
	SaveTurn(t *models.Turn) error
	TurnByID(id uint) (*models.Turn, error)
	OpenTurnForPlayer(matchID, playerID uint) (*models.Turn, error)
	CompletedTurnsForMatch(matchID uint) ([]*models.Turn, error)
	CompletedTurnsForPlayer(matchID, playerID uint) ([]*models.Turn, error)

	CreateTransaction(t *models.Transaction) error
	TransactionsForPlayer(playerID uint) ([]*models.Transaction, error)
	TransactionsForMatch(matchID uint) ([]*models.Transaction, error)

	Close() error
}

// 错误定义
var ErrRecordNotFound = errors.New("record not found")
