package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/wfunc/yahtzee/logger"
	"github.com/wfunc/yahtzee/models"
	"github.com/wfunc/yahtzee/persistence"
)

func init() {
	logger.InitDevelopment()
}

func newTestPlayer(t *testing.T, db persistence.Database, balance string) *models.Player {
	t.Helper()
	player := &models.Player{
		Username: "player_" + balance,
		Email:    "player_" + balance + "@example.com",
		Password: "hashed",
		Balance:  decimal.RequireFromString(balance),
		Active:   true,
	}
	if err := db.CreatePlayer(player); err != nil {
		t.Fatalf("Failed to create test player: %v", err)
	}
	// 初始余额也要入账，否则对账必然失败
	tx := &models.Transaction{
		PlayerID:     player.ID,
		Type:         models.TxDeposit,
		Amount:       player.Balance,
		BalanceAfter: player.Balance,
		Description:  "initial deposit",
	}
	if err := db.CreateTransaction(tx); err != nil {
		t.Fatalf("Failed to create initial transaction: %v", err)
	}
	return player
}

func TestDebit_LowersBalanceAndJournals(t *testing.T) {
	db := persistence.NewMemory()
	led := New(db)
	player := newTestPlayer(t, db, "1000.00")

	transaction, err := led.Debit(player.ID, nil, models.TxWithdrawal,
		decimal.RequireFromString("250.00"), "withdrawal")
	if err != nil {
		t.Fatalf("Debit returned error: %v", err)
	}

	if !transaction.BalanceAfter.Equal(decimal.RequireFromString("750.00")) {
		t.Errorf("Expected balance after 750.00, got %s", transaction.BalanceAfter)
	}

	balance, err := led.Balance(player.ID)
	if err != nil {
		t.Fatalf("Balance returned error: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("750.00")) {
		t.Errorf("Expected stored balance 750.00, got %s", balance)
	}
}

func TestDebit_InsufficientFunds(t *testing.T) {
	db := persistence.NewMemory()
	led := New(db)
	player := newTestPlayer(t, db, "50.00")

	_, err := led.Debit(player.ID, nil, models.TxBet,
		decimal.RequireFromString("100.00"), "stake")
	if err != ErrInsufficientFunds {
		t.Fatalf("Expected ErrInsufficientFunds, got: %v", err)
	}

	// 失败的扣款不能留下任何痕迹
	balance, _ := led.Balance(player.ID)
	if !balance.Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("Failed debit must not change balance, got %s", balance)
	}
	transactions, _ := db.TransactionsForPlayer(player.ID)
	if len(transactions) != 1 {
		t.Errorf("Failed debit must not journal, got %d transactions", len(transactions))
	}
}

func TestCredit_InvalidAmount(t *testing.T) {
	db := persistence.NewMemory()
	led := New(db)
	player := newTestPlayer(t, db, "100.00")

	if _, err := led.Credit(player.ID, nil, models.TxDeposit, decimal.Zero, "zero"); err != ErrInvalidAmount {
		t.Errorf("Expected ErrInvalidAmount for zero amount, got: %v", err)
	}
	if _, err := led.Credit(player.ID, nil, models.TxDeposit,
		decimal.RequireFromString("-5.00"), "negative"); err != ErrInvalidAmount {
		t.Errorf("Expected ErrInvalidAmount for negative amount, got: %v", err)
	}
}

func TestDebit_RejectsCreditType(t *testing.T) {
	db := persistence.NewMemory()
	led := New(db)
	player := newTestPlayer(t, db, "100.00")

	if _, err := led.Debit(player.ID, nil, models.TxWin,
		decimal.RequireFromString("10.00"), "wrong direction"); err == nil {
		t.Error("Debit should reject credit transaction types")
	}
	if _, err := led.Credit(player.ID, nil, models.TxBet,
		decimal.RequireFromString("10.00"), "wrong direction"); err == nil {
		t.Error("Credit should reject debit transaction types")
	}
}

func TestReconcile_HoldsAfterEveryOperation(t *testing.T) {
	db := persistence.NewMemory()
	led := New(db)
	player := newTestPlayer(t, db, "1000.00")

	operations := []struct {
		credit bool
		txType models.TransactionType
		amount string
	}{
		{false, models.TxBet, "100.00"},
		{true, models.TxWin, "200.00"},
		{false, models.TxWithdrawal, "300.00"},
		{true, models.TxDeposit, "50.00"},
		{true, models.TxRefund, "100.00"},
		{false, models.TxPenalty, "25.00"},
	}

	for _, op := range operations {
		amount := decimal.RequireFromString(op.amount)
		var err error
		if op.credit {
			_, err = led.Credit(player.ID, nil, op.txType, amount, "test")
		} else {
			_, err = led.Debit(player.ID, nil, op.txType, amount, "test")
		}
		if err != nil {
			t.Fatalf("Operation %s %s failed: %v", op.txType, op.amount, err)
		}

		consistent, err := led.Reconcile(player.ID)
		if err != nil {
			t.Fatalf("Reconcile returned error: %v", err)
		}
		if !consistent {
			t.Fatalf("Reconciliation failed after %s %s", op.txType, op.amount)
		}
	}

	balance, _ := led.Balance(player.ID)
	if !balance.Equal(decimal.RequireFromString("925.00")) {
		t.Errorf("Expected final balance 925.00, got %s", balance)
	}
}

func TestReconcile_DetectsCorruption(t *testing.T) {
	db := persistence.NewMemory()
	led := New(db)
	player := newTestPlayer(t, db, "1000.00")

	// 绕过账本直接篡改余额
	player.Balance = decimal.RequireFromString("9999.00")
	if err := db.SavePlayer(player); err != nil {
		t.Fatalf("Failed to corrupt player: %v", err)
	}

	consistent, err := led.Reconcile(player.ID)
	if !errors.Is(err, ErrBalanceMismatch) {
		t.Fatalf("Expected ErrBalanceMismatch, got: %v", err)
	}
	if consistent {
		t.Error("Reconcile should detect a corrupted balance")
	}
}

func TestLedger_ConcurrentDebits(t *testing.T) {
	db := persistence.NewMemory()
	led := New(db)
	player := newTestPlayer(t, db, "100.00")

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			_, err := led.Debit(player.ID, nil, models.TxBet,
				decimal.RequireFromString("10.00"), "concurrent stake")
			done <- err
		}()
	}

	failures := 0
	for i := 0; i < 10; i++ {
		if err := <-done; err != nil {
			failures++
		}
	}
	if failures != 0 {
		t.Errorf("Expected all 10 debits of 10.00 from 100.00 to succeed, %d failed", failures)
	}

	balance, _ := led.Balance(player.ID)
	if !balance.Equal(decimal.Zero) {
		t.Errorf("Expected balance 0 after concurrent debits, got %s", balance)
	}

	consistent, _ := led.Reconcile(player.ID)
	if !consistent {
		t.Error("Reconciliation must hold after concurrent debits")
	}
}
