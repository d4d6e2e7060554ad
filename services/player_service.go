// services/player_service.go
package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/wfunc/yahtzee/ledger"
	"github.com/wfunc/yahtzee/logger"
	"github.com/wfunc/yahtzee/models"
	"github.com/wfunc/yahtzee/persistence"
)

// 错误定义
var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPlayerInactive     = errors.New("player account is deactivated")
)

type PlayerService struct {
	db              persistence.Database
	ledger          *ledger.Ledger
	startingBalance decimal.Decimal
}

func NewPlayerService(db persistence.Database, led *ledger.Ledger, startingBalance decimal.Decimal) *PlayerService {
	return &PlayerService{
		db:              db,
		ledger:          led,
		startingBalance: startingBalance,
	}
}

// Register 注册新玩家，起始余额以欢迎奖励入账
func (s *PlayerService) Register(username, email, password string) (*models.Player, error) {
	if _, err := s.db.PlayerByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, persistence.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	player := &models.Player{
		Username: username,
		Email:    email,
		Password: string(hashed),
		Balance:  decimal.Zero,
		Active:   true,
	}

	err = s.db.Atomic(func(tx persistence.Database) error {
		if err := tx.CreatePlayer(player); err != nil {
			return err
		}
		if s.startingBalance.GreaterThan(decimal.Zero) {
			_, err := s.ledger.In(tx).Credit(player.ID, nil, models.TxDeposit,
				s.startingBalance, "Welcome bonus - initial deposit")
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Credit更新的是事务内的副本，重新读取拿到入账后的余额
	player, err = s.db.PlayerByID(player.ID)
	if err != nil {
		return nil, err
	}

	logger.Log.Infof("Player %s registered with starting balance %s", username, s.startingBalance)
	return player, nil
}

// Authenticate 用户名密码登录，成功更新最近登录时间
func (s *PlayerService) Authenticate(username, password string) (*models.Player, error) {
	player, err := s.db.PlayerByUsername(username)
	if err != nil {
		if errors.Is(err, persistence.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !player.Active {
		return nil, ErrPlayerInactive
	}
	if bcrypt.CompareHashAndPassword([]byte(player.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	player.LastLogin = &now
	if err := s.db.SavePlayer(player); err != nil {
		return nil, err
	}
	return player, nil
}

// Deposit 充值
func (s *PlayerService) Deposit(playerID uint, amount decimal.Decimal) (*models.Transaction, error) {
	return s.ledger.Credit(playerID, nil, models.TxDeposit, amount, "Deposit")
}

// Withdraw 提现，余额不足拒绝
func (s *PlayerService) Withdraw(playerID uint, amount decimal.Decimal) (*models.Transaction, error) {
	return s.ledger.Debit(playerID, nil, models.TxWithdrawal, amount, "Withdrawal")
}

// Transactions 账单
func (s *PlayerService) Transactions(playerID uint) ([]*models.Transaction, error) {
	return s.db.TransactionsForPlayer(playerID)
}

// Profile 玩家档案
func (s *PlayerService) Profile(playerID uint) (*models.Player, error) {
	return s.db.PlayerByID(playerID)
}

// Deactivate 停用账号，停用后不能登录和入座
func (s *PlayerService) Deactivate(playerID uint) error {
	player, err := s.db.PlayerByID(playerID)
	if err != nil {
		return err
	}
	player.Active = false
	return s.db.SavePlayer(player)
}

// Reactivate 恢复账号
func (s *PlayerService) Reactivate(playerID uint) error {
	player, err := s.db.PlayerByID(playerID)
	if err != nil {
		return err
	}
	player.Active = true
	return s.db.SavePlayer(player)
}

// RecordActivity 更新最近活跃时间
func (s *PlayerService) RecordActivity(playerID uint) {
	player, err := s.db.PlayerByID(playerID)
	if err != nil {
		return
	}
	now := time.Now()
	player.LastActivity = &now
	if err := s.db.SavePlayer(player); err != nil {
		logger.Log.Warnf("Failed to record activity for player %d: %v", playerID, err)
	}
}
