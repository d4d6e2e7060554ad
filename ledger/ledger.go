// ledger/ledger.go
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/wfunc/yahtzee/logger"
	"github.com/wfunc/yahtzee/models"
	"github.com/wfunc/yahtzee/persistence"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("transaction amount must be positive")
	// ErrBalanceMismatch 余额与交易流水不一致，属于数据完整性错误，不可自动修复
	ErrBalanceMismatch = errors.New("balance does not match transaction history")
)

// lockTable 玩家级互斥锁表。同一个玩家的余额变更串行执行，
// 不同玩家互不阻塞。
type lockTable struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[uint]*sync.Mutex)}
}

func (t *lockTable) forPlayer(playerID uint) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, exists := t.locks[playerID]
	if !exists {
		lock = &sync.Mutex{}
		t.locks[playerID] = lock
	}
	return lock
}

// Ledger 账本。余额变更只能通过Debit/Credit发生，
// 每次变更在同一个事务里更新余额并追加一条交易记录。
type Ledger struct {
	db    persistence.Database
	locks *lockTable
}

// New 创建账本
func New(db persistence.Database) *Ledger {
	return &Ledger{db: db, locks: newLockTable()}
}

// In 返回绑定到事务tx的账本视图，锁表共享。
// 调用方在外层Atomic里用它把账本写入并入同一次提交。
func (l *Ledger) In(tx persistence.Database) *Ledger {
	return &Ledger{db: tx, locks: l.locks}
}

// Debit 扣款。余额不足返回ErrInsufficientFunds，任何失败都不产生部分写入。
func (l *Ledger) Debit(playerID uint, matchID *uint, txType models.TransactionType,
	amount decimal.Decimal, description string) (*models.Transaction, error) {

	if txType.IsCredit() {
		return nil, fmt.Errorf("transaction type %s is not a debit", txType)
	}
	return l.apply(playerID, matchID, txType, amount, description)
}

// Credit 入账。金额必须为正。
func (l *Ledger) Credit(playerID uint, matchID *uint, txType models.TransactionType,
	amount decimal.Decimal, description string) (*models.Transaction, error) {

	if !txType.IsCredit() {
		return nil, fmt.Errorf("transaction type %s is not a credit", txType)
	}
	return l.apply(playerID, matchID, txType, amount, description)
}

func (l *Ledger) apply(playerID uint, matchID *uint, txType models.TransactionType,
	amount decimal.Decimal, description string) (*models.Transaction, error) {

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	lock := l.locks.forPlayer(playerID)
	lock.Lock()
	defer lock.Unlock()

	var transaction *models.Transaction
	err := l.db.Atomic(func(tx persistence.Database) error {
		player, err := tx.PlayerByID(playerID)
		if err != nil {
			return err
		}

		if txType.IsCredit() {
			player.Balance = player.Balance.Add(amount)
		} else {
			if !player.HasEnoughBalance(amount) {
				return ErrInsufficientFunds
			}
			player.Balance = player.Balance.Sub(amount)
		}

		if err := tx.SavePlayer(player); err != nil {
			return err
		}

		transaction = &models.Transaction{
			PlayerID:     playerID,
			MatchID:      matchID,
			Type:         txType,
			Amount:       amount,
			BalanceAfter: player.Balance,
			Description:  description,
		}
		return tx.CreateTransaction(transaction)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Infof("Ledger %s: player %d amount %s (balance after: %s)",
		txType, playerID, amount, transaction.BalanceAfter)
	return transaction, nil
}

// Reconcile 用完整交易历史重算余额并与存储值比对。
// 只做校验不做修正：不一致说明数据已损坏，记录错误日志并返回ErrBalanceMismatch。
func (l *Ledger) Reconcile(playerID uint) (bool, error) {
	lock := l.locks.forPlayer(playerID)
	lock.Lock()
	defer lock.Unlock()

	player, err := l.db.PlayerByID(playerID)
	if err != nil {
		return false, err
	}

	transactions, err := l.db.TransactionsForPlayer(playerID)
	if err != nil {
		return false, err
	}

	computed := decimal.Zero
	for _, t := range transactions {
		computed = computed.Add(t.SignedAmount())
	}

	if !computed.Equal(player.Balance) {
		logger.Log.Errorf("Balance mismatch for player %d: stored=%s computed=%s over %d transactions",
			playerID, player.Balance, computed, len(transactions))
		return false, ErrBalanceMismatch
	}
	return true, nil
}

// Balance 当前余额
func (l *Ledger) Balance(playerID uint) (decimal.Decimal, error) {
	player, err := l.db.PlayerByID(playerID)
	if err != nil {
		return decimal.Zero, err
	}
	return player.Balance, nil
}
