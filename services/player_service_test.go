package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/wfunc/yahtzee/ledger"
	"github.com/wfunc/yahtzee/logger"
	"github.com/wfunc/yahtzee/persistence"
)

func init() {
	logger.InitDevelopment()
}

func newService() (*PlayerService, *ledger.Ledger, persistence.Database) {
	db := persistence.NewMemory()
	led := ledger.New(db)
	return NewPlayerService(db, led, decimal.RequireFromString("1000.00")), led, db
}

func TestRegister_CreditsWelcomeBonus(t *testing.T) {
	svc, led, db := newService()

	player, err := svc.Register("alice", "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if !player.Balance.Equal(decimal.RequireFromString("1000.00")) {
		t.Errorf("Expected starting balance 1000.00, got %s", player.Balance)
	}
	if player.Password == "secret123" {
		t.Error("Password must be stored hashed")
	}

	transactions, _ := db.TransactionsForPlayer(player.ID)
	if len(transactions) != 1 {
		t.Fatalf("Expected 1 welcome bonus transaction, got %d", len(transactions))
	}
	if transactions[0].Description != "Welcome bonus - initial deposit" {
		t.Errorf("Unexpected description: %s", transactions[0].Description)
	}

	consistent, err := led.Reconcile(player.ID)
	if err != nil || !consistent {
		t.Errorf("Reconciliation failed after registration: %v", err)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _, _ := newService()

	if _, err := svc.Register("alice", "alice@example.com", "secret123"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if _, err := svc.Register("alice", "other@example.com", "secret456"); err != ErrUsernameTaken {
		t.Errorf("Expected ErrUsernameTaken, got: %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _, _ := newService()
	registered, _ := svc.Register("alice", "alice@example.com", "secret123")

	player, err := svc.Authenticate("alice", "secret123")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if player.ID != registered.ID {
		t.Error("Authenticate returned the wrong player")
	}
	if player.LastLogin == nil {
		t.Error("Expected LastLogin to be set")
	}

	if _, err := svc.Authenticate("alice", "wrong"); err != ErrInvalidCredentials {
		t.Errorf("Expected ErrInvalidCredentials for bad password, got: %v", err)
	}
	if _, err := svc.Authenticate("nobody", "secret123"); err != ErrInvalidCredentials {
		t.Errorf("Expected ErrInvalidCredentials for unknown user, got: %v", err)
	}
}

func TestAuthenticate_DeactivatedPlayer(t *testing.T) {
	svc, _, _ := newService()
	player, _ := svc.Register("alice", "alice@example.com", "secret123")

	if err := svc.Deactivate(player.ID); err != nil {
		t.Fatalf("Deactivate returned error: %v", err)
	}
	if _, err := svc.Authenticate("alice", "secret123"); err != ErrPlayerInactive {
		t.Errorf("Expected ErrPlayerInactive, got: %v", err)
	}

	if err := svc.Reactivate(player.ID); err != nil {
		t.Fatalf("Reactivate returned error: %v", err)
	}
	if _, err := svc.Authenticate("alice", "secret123"); err != nil {
		t.Errorf("Expected login after reactivation, got: %v", err)
	}
}

func TestDepositAndWithdraw(t *testing.T) {
	svc, led, _ := newService()
	player, _ := svc.Register("alice", "alice@example.com", "secret123")

	if _, err := svc.Deposit(player.ID, decimal.RequireFromString("500.00")); err != nil {
		t.Fatalf("Deposit returned error: %v", err)
	}
	if _, err := svc.Withdraw(player.ID, decimal.RequireFromString("200.00")); err != nil {
		t.Fatalf("Withdraw returned error: %v", err)
	}

	balance, _ := led.Balance(player.ID)
	if !balance.Equal(decimal.RequireFromString("1300.00")) {
		t.Errorf("Expected balance 1300.00, got %s", balance)
	}

	if _, err := svc.Withdraw(player.ID, decimal.RequireFromString("9999.00")); err != ledger.ErrInsufficientFunds {
		t.Errorf("Expected ErrInsufficientFunds, got: %v", err)
	}

	consistent, _ := led.Reconcile(player.ID)
	if !consistent {
		t.Error("Reconciliation failed after wallet operations")
	}
}
