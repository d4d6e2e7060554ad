// scoring/scoring.go
package scoring

import (
	"fmt"
	"sort"

	"github.com/wfunc/yahtzee/models"
)

// 计分引擎：纯函数，无状态。同样的骰子和类别永远得到同样的分数。

const (
	fullHouseScore     = 25
	smallStraightScore = 30
	largeStraightScore = 40
	yahtzeeScore       = 50
)

// Score 计算5个骰子在指定类别下的得分
func Score(dice [5]int, category models.Category) (int, error) {
	for _, die := range dice {
		if die < 1 || die > 6 {
			return 0, fmt.Errorf("dice values must be between 1 and 6, got %d", die)
		}
	}

	switch category {
	case models.Ones, models.Twos, models.Threes, models.Fours, models.Fives, models.Sixes:
		return countDice(dice, category.FaceValue()) * category.FaceValue(), nil
	case models.ThreeOfAKind:
		return ofAKind(dice, 3), nil
	case models.FourOfAKind:
		return ofAKind(dice, 4), nil
	case models.FullHouse:
		return fullHouse(dice), nil
	case models.SmallStraight:
		return smallStraight(dice), nil
	case models.LargeStraight:
		return largeStraight(dice), nil
	case models.Yahtzee:
		return yahtzee(dice), nil
	case models.Chance:
		return sumDice(dice), nil
	}

	return 0, fmt.Errorf("unknown category: %s", category)
}

// SuggestCategories 按得分降序返回所有能得分的类别，平分按类别声明顺序
func SuggestCategories(dice [5]int) ([]models.Category, error) {
	type scored struct {
		category models.Category
		score    int
	}

	var suggestions []scored
	for _, category := range models.Categories {
		score, err := Score(dice, category)
		if err != nil {
			return nil, err
		}
		if score > 0 {
			suggestions = append(suggestions, scored{category, score})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].score > suggestions[j].score
	})

	result := make([]models.Category, 0, len(suggestions))
	for _, s := range suggestions {
		result = append(result, s.category)
	}
	return result, nil
}

// BestCategory 得分最高的类别，全部为0时返回CHANCE
func BestCategory(dice [5]int) (models.Category, error) {
	suggestions, err := SuggestCategories(dice)
	if err != nil {
		return "", err
	}
	if len(suggestions) == 0 {
		return models.Chance, nil
	}
	return suggestions[0], nil
}

// IsYahtzee 五个骰子点数全部相同
func IsYahtzee(dice [5]int) bool {
	return yahtzee(dice) > 0
}

func countDice(dice [5]int, value int) int {
	count := 0
	for _, die := range dice {
		if die == value {
			count++
		}
	}
	return count
}

func sumDice(dice [5]int) int {
	sum := 0
	for _, die := range dice {
		sum += die
	}
	return sum
}

func faceCounts(dice [5]int) map[int]int {
	counts := make(map[int]int)
	for _, die := range dice {
		counts[die]++
	}
	return counts
}

func ofAKind(dice [5]int, n int) int {
	for _, count := range faceCounts(dice) {
		if count >= n {
			return sumDice(dice)
		}
	}
	return 0
}

func fullHouse(dice [5]int) int {
	hasThree := false
	hasTwo := false
	for _, count := range faceCounts(dice) {
		switch count {
		case 3:
			hasThree = true
		case 2:
			hasTwo = true
		}
	}
	if hasThree && hasTwo {
		return fullHouseScore
	}
	return 0
}

// runLength 从start开始的最长连续点数序列长度
func runLength(present map[int]bool, start int) int {
	length := 0
	for face := start; face <= 6 && present[face]; face++ {
		length++
	}
	return length
}

func smallStraight(dice [5]int) int {
	present := make(map[int]bool)
	for _, die := range dice {
		present[die] = true
	}
	for start := 1; start <= 3; start++ {
		if runLength(present, start) >= 4 {
			return smallStraightScore
		}
	}
	return 0
}

func largeStraight(dice [5]int) int {
	present := make(map[int]bool)
	for _, die := range dice {
		present[die] = true
	}
	// 5个互不相同的点数构成连续序列：{1..5}或{2..6}
	if len(present) != 5 {
		return 0
	}
	for start := 1; start <= 2; start++ {
		if runLength(present, start) >= 5 {
			return largeStraightScore
		}
	}
	return 0
}

func yahtzee(dice [5]int) int {
	for _, die := range dice {
		if die != dice[0] {
			return 0
		}
	}
	return yahtzeeScore
}
