package round

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/wfunc/yahtzee/dice"
	"github.com/wfunc/yahtzee/ledger"
	"github.com/wfunc/yahtzee/logger"
	"github.com/wfunc/yahtzee/match"
	"github.com/wfunc/yahtzee/models"
	"github.com/wfunc/yahtzee/persistence"
)

func init() {
	logger.InitDevelopment()
}

type fixture struct {
	db     persistence.Database
	ledger *ledger.Ledger
	match  *match.Engine
	engine *Engine
	alice  *models.Player
	bob    *models.Player
}

// newFixture seats alice and bob in a started 2-player match with stake 100.
func newFixture(t *testing.T, seed int64) (*fixture, *models.Match) {
	t.Helper()
	db := persistence.NewMemory()
	led := ledger.New(db)
	matchEngine := match.New(db, led, nil)

	f := &fixture{
		db:     db,
		ledger: led,
		match:  matchEngine,
		engine: New(db, dice.NewSeededRoller(seed), matchEngine, nil),
	}
	f.alice = f.addPlayer(t, "alice", "1000.00")
	f.bob = f.addPlayer(t, "bob", "1000.00")

	m, err := f.match.Create(f.alice.ID, decimal.RequireFromString("100.00"), 2)
	if err != nil {
		t.Fatalf("Failed to create match: %v", err)
	}
	if _, err := f.match.Join(m.Code, f.bob.ID); err != nil {
		t.Fatalf("Failed to join match: %v", err)
	}
	m, err = f.match.Start(m.Code)
	if err != nil {
		t.Fatalf("Failed to start match: %v", err)
	}
	return f, m
}

func (f *fixture) addPlayer(t *testing.T, username, balance string) *models.Player {
	t.Helper()
	p := &models.Player{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
		Balance:  decimal.RequireFromString(balance),
		Active:   true,
	}
	if err := f.db.CreatePlayer(p); err != nil {
		t.Fatalf("Failed to create player %s: %v", username, err)
	}
	tx := &models.Transaction{
		PlayerID:     p.ID,
		Type:         models.TxDeposit,
		Amount:       p.Balance,
		BalanceAfter: p.Balance,
		Description:  "initial deposit",
	}
	if err := f.db.CreateTransaction(tx); err != nil {
		t.Fatalf("Failed to journal initial deposit: %v", err)
	}
	return p
}

func TestStartTurn_CreatesOpenTurn(t *testing.T) {
	f, m := newFixture(t, 1)

	turn, err := f.engine.StartTurn(m.Code, f.alice.ID)
	if err != nil {
		t.Fatalf("StartTurn returned error: %v", err)
	}
	if turn.RoundNumber != 1 {
		t.Errorf("Expected round 1, got %d", turn.RoundNumber)
	}
	if turn.RollCount() != 0 {
		t.Errorf("New turn must have zero rolls, got %d", turn.RollCount())
	}
	if turn.Completed {
		t.Error("New turn must not be completed")
	}
}

func TestStartTurn_Rejections(t *testing.T) {
	f, m := newFixture(t, 1)

	if _, err := f.engine.StartTurn(m.Code, f.bob.ID); err != ErrNotYourTurn {
		t.Errorf("Expected ErrNotYourTurn for bob, got: %v", err)
	}

	if _, err := f.engine.StartTurn(m.Code, f.alice.ID); err != nil {
		t.Fatalf("StartTurn returned error: %v", err)
	}
	if _, err := f.engine.StartTurn(m.Code, f.alice.ID); err != ErrTurnAlreadyOpen {
		t.Errorf("Expected ErrTurnAlreadyOpen, got: %v", err)
	}
}

func TestStartTurn_NotInProgress(t *testing.T) {
	f, m := newFixture(t, 1)
	if err := f.match.Cancel(m.Code, "test"); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}

	if _, err := f.engine.StartTurn(m.Code, f.alice.ID); err != match.ErrNotInProgress {
		t.Errorf("Expected ErrNotInProgress, got: %v", err)
	}
}

func TestRoll_KeepMaskSemantics(t *testing.T) {
	f, m := newFixture(t, 42)
	f.engine.StartTurn(m.Code, f.alice.ID)

	// 第1掷不允许带保留模式
	if _, err := f.engine.Roll(m.Code, f.alice.ID, "11111"); err != ErrKeepMaskNotAllowed {
		t.Fatalf("Expected ErrKeepMaskNotAllowed on first roll, got: %v", err)
	}

	turn, err := f.engine.Roll(m.Code, f.alice.ID, "")
	if err != nil {
		t.Fatalf("First roll returned error: %v", err)
	}
	if turn.RollCount() != 1 {
		t.Fatalf("Expected 1 roll, got %d", turn.RollCount())
	}

	// 第2掷必须带保留模式
	if _, err := f.engine.Roll(m.Code, f.alice.ID, ""); err != ErrKeepMaskRequired {
		t.Fatalf("Expected ErrKeepMaskRequired on reroll, got: %v", err)
	}

	first := turn.Rolls[0]
	turn, err = f.engine.Roll(m.Code, f.alice.ID, "11010")
	if err != nil {
		t.Fatalf("Second roll returned error: %v", err)
	}
	second := turn.Rolls[1]

	// 保留位点数不变
	for i, kept := range "11010" {
		if kept == '1' && first[i] != second[i] {
			t.Errorf("Kept die %d changed from %c to %c", i, first[i], second[i])
		}
	}
	if len(turn.KeepMasks) != 1 || turn.KeepMasks[0] != "11010" {
		t.Errorf("Expected keep mask recorded, got %v", turn.KeepMasks)
	}

	turn, err = f.engine.Roll(m.Code, f.alice.ID, "00000")
	if err != nil {
		t.Fatalf("Third roll returned error: %v", err)
	}
	if CanRollAgain(turn) {
		t.Error("No rolls should remain after the third")
	}
	if _, err := f.engine.Roll(m.Code, f.alice.ID, "00000"); err != ErrMaxRollsReached {
		t.Errorf("Expected ErrMaxRollsReached, got: %v", err)
	}
}

func TestComplete_ScoresFinalRoll(t *testing.T) {
	f, m := newFixture(t, 7)
	f.engine.StartTurn(m.Code, f.alice.ID)

	// 未掷骰不能结算
	if _, err := f.engine.Complete(m.Code, f.alice.ID, models.Chance); err != ErrNoRolls {
		t.Fatalf("Expected ErrNoRolls, got: %v", err)
	}

	turn, _ := f.engine.Roll(m.Code, f.alice.ID, "")
	faces, err := dice.ParseFaces(turn.Rolls[0])
	if err != nil {
		t.Fatalf("Failed to parse roll: %v", err)
	}
	expected := 0
	for _, face := range faces {
		expected += face
	}

	turn, err = f.engine.Complete(m.Code, f.alice.ID, models.Chance)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if !turn.Completed {
		t.Error("Turn must be marked completed")
	}
	if turn.Score != expected {
		t.Errorf("Expected CHANCE score %d, got %d", expected, turn.Score)
	}
	if turn.SelectedCategory == nil || *turn.SelectedCategory != models.Chance {
		t.Error("Expected CHANCE recorded as selected category")
	}

	seat, _ := f.db.SeatForPlayer(m.ID, f.alice.ID)
	if seat.TotalScore != expected {
		t.Errorf("Expected seat total %d, got %d", expected, seat.TotalScore)
	}

	// 结算后轮到bob
	updated, _ := f.db.MatchByCode(m.Code)
	if updated.CurrentTurnPlayerID == nil || *updated.CurrentTurnPlayerID != f.bob.ID {
		t.Error("Expected turn to pass to bob after completion")
	}

	// alice本轮已结算，不能再操作
	if _, err := f.engine.Complete(m.Code, f.alice.ID, models.Ones); err != ErrNotYourTurn {
		t.Errorf("Expected ErrNotYourTurn after rotation, got: %v", err)
	}
}

func TestComplete_CategoryReuseForbidden(t *testing.T) {
	f, m := newFixture(t, 11)

	// 第1轮：双方都用CHANCE
	f.engine.StartTurn(m.Code, f.alice.ID)
	f.engine.Roll(m.Code, f.alice.ID, "")
	if _, err := f.engine.Complete(m.Code, f.alice.ID, models.Chance); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	f.engine.StartTurn(m.Code, f.bob.ID)
	f.engine.Roll(m.Code, f.bob.ID, "")
	if _, err := f.engine.Complete(m.Code, f.bob.ID, models.Chance); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	// 第2轮：alice复用CHANCE被拒，换别的类别通过
	f.engine.StartTurn(m.Code, f.alice.ID)
	f.engine.Roll(m.Code, f.alice.ID, "")
	if _, err := f.engine.Complete(m.Code, f.alice.ID, models.Chance); err != ErrCategoryUnavailable {
		t.Fatalf("Expected ErrCategoryUnavailable, got: %v", err)
	}
	if _, err := f.engine.Complete(m.Code, f.alice.ID, models.Ones); err != nil {
		t.Fatalf("Complete with fresh category returned error: %v", err)
	}
}

func TestSuggestions_ForOpenTurn(t *testing.T) {
	f, m := newFixture(t, 3)
	f.engine.StartTurn(m.Code, f.alice.ID)
	f.engine.Roll(m.Code, f.alice.ID, "")

	suggested, best, err := f.engine.Suggestions(m.Code, f.alice.ID)
	if err != nil {
		t.Fatalf("Suggestions returned error: %v", err)
	}
	if len(suggested) == 0 {
		t.Fatal("Expected at least one suggestion (CHANCE always scores)")
	}
	if best != suggested[0] {
		t.Errorf("Best category %s should be the top suggestion %s", best, suggested[0])
	}
}

// TestFullMatch plays a complete 2-player match through the engines and
// checks payout, stats and money conservation at the end.
func TestFullMatch(t *testing.T) {
	f, m := newFixture(t, 99)

	updated, _ := f.db.MatchByCode(m.Code)
	if !updated.PrizePool.Equal(decimal.RequireFromString("200.00")) {
		t.Fatalf("Expected prize pool 200.00, got %s", updated.PrizePool)
	}

	for round := 1; round <= models.MaxRounds; round++ {
		category := models.Categories[round-1]
		for _, p := range []*models.Player{f.alice, f.bob} {
			if _, err := f.engine.StartTurn(m.Code, p.ID); err != nil {
				t.Fatalf("StartTurn round %d player %s: %v", round, p.Username, err)
			}
			if _, err := f.engine.Roll(m.Code, p.ID, ""); err != nil {
				t.Fatalf("Roll round %d player %s: %v", round, p.Username, err)
			}
			if _, err := f.engine.Roll(m.Code, p.ID, "11111"); err != nil {
				t.Fatalf("Reroll round %d player %s: %v", round, p.Username, err)
			}
			if _, err := f.engine.Complete(m.Code, p.ID, category); err != nil {
				t.Fatalf("Complete round %d player %s: %v", round, p.Username, err)
			}
		}
	}

	final, _ := f.db.MatchByCode(m.Code)
	if final.Status != models.MatchFinished {
		t.Fatalf("Expected FINISHED after 13 rounds, got %s", final.Status)
	}
	if final.WinnerID == nil {
		t.Fatal("Expected a winner")
	}

	// 胜者净赚100，败者净亏100，系统内资金守恒
	aliceBalance, _ := f.ledger.Balance(f.alice.ID)
	bobBalance, _ := f.ledger.Balance(f.bob.ID)
	total := aliceBalance.Add(bobBalance)
	if !total.Equal(decimal.RequireFromString("2000.00")) {
		t.Errorf("Money must be conserved, total %s", total)
	}

	winnerBalance := aliceBalance
	loserBalance := bobBalance
	if *final.WinnerID == f.bob.ID {
		winnerBalance, loserBalance = bobBalance, aliceBalance
	}
	if !winnerBalance.Equal(decimal.RequireFromString("1100.00")) {
		t.Errorf("Expected winner balance 1100.00, got %s", winnerBalance)
	}
	if !loserBalance.Equal(decimal.RequireFromString("900.00")) {
		t.Errorf("Expected loser balance 900.00, got %s", loserBalance)
	}

	winner, _ := f.db.PlayerByID(*final.WinnerID)
	if winner.GamesWon != 1 || winner.GamesPlayed != 1 {
		t.Errorf("Winner stats wrong: played=%d won=%d", winner.GamesPlayed, winner.GamesWon)
	}

	// 记分卡：每人13个已结算回合，类别互不重复
	scorecard, err := f.engine.Scorecard(m.Code)
	if err != nil {
		t.Fatalf("Scorecard returned error: %v", err)
	}
	if len(scorecard) != 2*models.MaxRounds {
		t.Errorf("Expected %d completed turns, got %d", 2*models.MaxRounds, len(scorecard))
	}

	for _, id := range []uint{f.alice.ID, f.bob.ID} {
		consistent, err := f.ledger.Reconcile(id)
		if err != nil || !consistent {
			t.Errorf("Reconciliation failed for player %d: %v", id, err)
		}
	}
}
