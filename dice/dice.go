// dice/dice.go
package dice

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Roller 掷骰器。随机源可注入，测试时用固定种子保证可重现。
type Roller struct {
	rng *rand.Rand
	mu  sync.Mutex
}

// NewRoller 创建以当前时间为种子的掷骰器
func NewRoller() *Roller {
	return NewSeededRoller(time.Now().UnixNano())
}

// NewSeededRoller 创建固定种子的掷骰器
func NewSeededRoller(seed int64) *Roller {
	return &Roller{rng: rand.New(rand.NewSource(seed))}
}

// RollAll 掷出5个全新骰子
func (r *Roller) RollAll() [5]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var faces [5]int
	for i := range faces {
		faces[i] = r.rng.Intn(6) + 1
	}
	return faces
}

// Reroll 按保留模式重掷：keep[i]为true的位置沿用上一次的点数，其余重新掷出
func (r *Roller) Reroll(previous [5]int, keep [5]bool) [5]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var faces [5]int
	for i := range faces {
		if keep[i] {
			faces[i] = previous[i]
		} else {
			faces[i] = r.rng.Intn(6) + 1
		}
	}
	return faces
}

// --- 字符串编码 ---
// 骰子序列存储为5位数字字符串（如"13462"），保留模式存储为5位01字符串（如"01101"）。

// FacesToString 编码骰子点数
func FacesToString(faces [5]int) string {
	buf := make([]byte, 5)
	for i, face := range faces {
		buf[i] = byte('0' + face)
	}
	return string(buf)
}

// ParseFaces 解析骰子点数字符串
func ParseFaces(s string) ([5]int, error) {
	var faces [5]int
	if len(s) != 5 {
		return faces, fmt.Errorf("dice string must be exactly 5 characters, got %q", s)
	}
	for i := 0; i < 5; i++ {
		face := int(s[i] - '0')
		if face < 1 || face > 6 {
			return faces, fmt.Errorf("dice values must be between 1 and 6, got %q", s)
		}
		faces[i] = face
	}
	return faces, nil
}

// MaskToString 编码保留模式
func MaskToString(keep [5]bool) string {
	buf := make([]byte, 5)
	for i, k := range keep {
		if k {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf)
}

// ParseMask 解析保留模式字符串
func ParseMask(s string) ([5]bool, error) {
	var keep [5]bool
	if len(s) != 5 {
		return keep, fmt.Errorf("keep mask must be exactly 5 characters, got %q", s)
	}
	for i := 0; i < 5; i++ {
		switch s[i] {
		case '1':
			keep[i] = true
		case '0':
			keep[i] = false
		default:
			return keep, fmt.Errorf("keep mask must contain only 0 and 1, got %q", s)
		}
	}
	return keep, nil
}
