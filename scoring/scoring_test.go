package scoring

import (
	"testing"

	"github.com/wfunc/yahtzee/models"
)

func TestScore_UpperSection(t *testing.T) {
	cases := []struct {
		dice     [5]int
		category models.Category
		want     int
	}{
		{[5]int{1, 1, 2, 3, 1}, models.Ones, 3},
		{[5]int{2, 2, 2, 2, 2}, models.Twos, 10},
		{[5]int{4, 5, 6, 4, 4}, models.Fours, 12},
		{[5]int{6, 6, 1, 2, 3}, models.Sixes, 12},
		{[5]int{2, 3, 4, 5, 6}, models.Ones, 0},
	}

	for _, c := range cases {
		got, err := Score(c.dice, c.category)
		if err != nil {
			t.Fatalf("Score(%v, %s) returned error: %v", c.dice, c.category, err)
		}
		if got != c.want {
			t.Errorf("Score(%v, %s) = %d, want %d", c.dice, c.category, got, c.want)
		}
	}
}

func TestScore_LowerSection(t *testing.T) {
	cases := []struct {
		dice     [5]int
		category models.Category
		want     int
	}{
		{[5]int{3, 3, 3, 4, 5}, models.ThreeOfAKind, 18},
		{[5]int{3, 3, 4, 4, 5}, models.ThreeOfAKind, 0},
		{[5]int{2, 2, 2, 2, 6}, models.FourOfAKind, 14},
		{[5]int{2, 2, 2, 5, 6}, models.FourOfAKind, 0},
		{[5]int{3, 3, 3, 4, 4}, models.FullHouse, 25},
		{[5]int{3, 3, 3, 3, 4}, models.FullHouse, 0},
		{[5]int{5, 5, 5, 5, 5}, models.FullHouse, 0},
		{[5]int{1, 2, 3, 4, 6}, models.SmallStraight, 30},
		{[5]int{2, 3, 4, 5, 5}, models.SmallStraight, 30},
		{[5]int{3, 4, 5, 6, 6}, models.SmallStraight, 30},
		{[5]int{1, 2, 3, 5, 6}, models.SmallStraight, 0},
		{[5]int{1, 2, 3, 4, 5}, models.LargeStraight, 40},
		{[5]int{2, 3, 4, 5, 6}, models.LargeStraight, 40},
		{[5]int{1, 2, 3, 4, 6}, models.LargeStraight, 0},
		{[5]int{1, 1, 2, 3, 4}, models.LargeStraight, 0},
		{[5]int{6, 6, 6, 6, 6}, models.Yahtzee, 50},
		{[5]int{6, 6, 6, 6, 5}, models.Yahtzee, 0},
		{[5]int{1, 1, 2, 2, 3}, models.Chance, 9},
	}

	for _, c := range cases {
		got, err := Score(c.dice, c.category)
		if err != nil {
			t.Fatalf("Score(%v, %s) returned error: %v", c.dice, c.category, err)
		}
		if got != c.want {
			t.Errorf("Score(%v, %s) = %d, want %d", c.dice, c.category, got, c.want)
		}
	}
}

func TestScore_InvalidDice(t *testing.T) {
	if _, err := Score([5]int{0, 1, 2, 3, 4}, models.Chance); err == nil {
		t.Error("Score should reject die face 0")
	}
	if _, err := Score([5]int{1, 2, 3, 4, 7}, models.Chance); err == nil {
		t.Error("Score should reject die face 7")
	}
}

func TestScore_Deterministic(t *testing.T) {
	dice := [5]int{3, 3, 3, 4, 4}
	first, err := Score(dice, models.FullHouse)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Score(dice, models.FullHouse)
		if err != nil {
			t.Fatalf("Score returned error: %v", err)
		}
		if again != first {
			t.Fatalf("Score is not deterministic: got %d then %d", first, again)
		}
	}
}

func TestSuggestCategories_OrderedByScore(t *testing.T) {
	// 55566: full house 25, three of a kind 27, fives 15, sixes 12, chance 27
	suggestions, err := SuggestCategories([5]int{5, 5, 5, 6, 6})
	if err != nil {
		t.Fatalf("SuggestCategories returned error: %v", err)
	}

	if len(suggestions) == 0 {
		t.Fatal("Expected at least one suggestion")
	}

	// THREE_OF_A_KIND和CHANCE并列27分，按声明顺序THREE_OF_A_KIND在前
	if suggestions[0] != models.ThreeOfAKind {
		t.Errorf("Expected THREE_OF_A_KIND first, got %s", suggestions[0])
	}
	if suggestions[1] != models.Chance {
		t.Errorf("Expected CHANCE second, got %s", suggestions[1])
	}

	prev := 1 << 30
	for _, category := range suggestions {
		score, _ := Score([5]int{5, 5, 5, 6, 6}, category)
		if score > prev {
			t.Errorf("Suggestions not in descending score order at %s", category)
		}
		prev = score
	}
}

func TestBestCategory(t *testing.T) {
	best, err := BestCategory([5]int{6, 6, 6, 6, 6})
	if err != nil {
		t.Fatalf("BestCategory returned error: %v", err)
	}
	if best != models.Yahtzee {
		t.Errorf("Expected YAHTZEE, got %s", best)
	}
}

func TestBestCategory_DefaultsToChance(t *testing.T) {
	// 构造一个没有类别能得分的组合是不可能的（CHANCE总是正分），
	// 但接口契约要求空建议时回落到CHANCE
	suggestions, err := SuggestCategories([5]int{1, 1, 2, 3, 5})
	if err != nil {
		t.Fatalf("SuggestCategories returned error: %v", err)
	}
	found := false
	for _, c := range suggestions {
		if c == models.Chance {
			found = true
		}
	}
	if !found {
		t.Error("CHANCE should always appear among suggestions")
	}
}

func TestIsYahtzee(t *testing.T) {
	if !IsYahtzee([5]int{4, 4, 4, 4, 4}) {
		t.Error("44444 should be a yahtzee")
	}
	if IsYahtzee([5]int{4, 4, 4, 4, 5}) {
		t.Error("44445 should not be a yahtzee")
	}
}
