package counting

import (
	"math"

	"BlackjackTrainer/internal/game/table"
)

// SystemName 持久化在 settings 里的名字
type SystemName string

const (
	HiLo    SystemName = "Hi-Lo"
	KO      SystemName = "KO"
	OmegaII SystemName = "Omega II"
)

// System 一套固定的点数 -> 计数值映射
type System struct {
	Name        SystemName `json:"name"`
	Balanced    bool       `json:"isBalanced"`
	Description string     `json:"description"`
	values      map[table.Rank]int
}

// Value 单张牌的计数值
func (s System) Value(r table.Rank) int {
	return s.values[r]
}

func tagRanks(v int, ranks ...table.Rank) map[table.Rank]int {
	m := make(map[table.Rank]int, len(ranks))
	for _, r := range ranks {
		m[r] = v
	}
	return m
}

func merge(ms ...map[table.Rank]int) map[table.Rank]int {
	out := make(map[table.Rank]int)
	for _, m := range ms {
		for r, v := range m {
			out[r] = v
		}
	}
	return out
}

var (
	HiLoSystem = System{
		Name:        HiLo,
		Balanced:    true,
		Description: "Most popular card counting system. +1 for low cards (2-6), 0 for neutral (7-9), -1 for high cards (10-A)",
		values: merge(
			tagRanks(1, table.Two, table.Three, table.Four, table.Five, table.Six),
			tagRanks(-1, table.Ten, table.Jack, table.Queen, table.King, table.Ace),
		),
	}

	// KO 不平衡系统，真数只是为了界面统一按同一公式算
	KOSystem = System{
		Name:        KO,
		Balanced:    false,
		Description: "Unbalanced system. Similar to Hi-Lo but 7s are +1. No need to convert to true count.",
		values: merge(
			tagRanks(1, table.Two, table.Three, table.Four, table.Five, table.Six, table.Seven),
			tagRanks(-1, table.Ten, table.Jack, table.Queen, table.King, table.Ace),
		),
	}

	OmegaIISystem = System{
		Name:        OmegaII,
		Balanced:    true,
		Description: "Advanced multi-level system for experienced counters. More accurate but requires more practice.",
		values: merge(
			tagRanks(1, table.Two, table.Three, table.Seven),
			tagRanks(2, table.Four, table.Five, table.Six),
			tagRanks(-1, table.Nine),
			tagRanks(-2, table.Ten, table.Jack, table.Queen, table.King),
		),
	}
)

// Systems 全部内置系统
func Systems() []System {
	return []System{HiLoSystem, KOSystem, OmegaIISystem}
}

// Lookup 按名字查找
func Lookup(name SystemName) (System, bool) {
	for _, s := range Systems() {
		if s.Name == name {
			return s, true
		}
	}
	return System{}, false
}

// Get 未知名字回退到 Hi-Lo
func Get(name SystemName) System {
	if s, ok := Lookup(name); ok {
		return s
	}
	return HiLoSystem
}

// RunningCount 自上次洗牌以来所有发出的牌（庄家和玩家）
func RunningCount(cards []table.Card, sys System) int {
	count := 0
	for _, c := range cards {
		count += sys.Value(c.Rank)
	}
	return count
}

// TrueCount 保留一位小数；剩余副数 <= 0 时为 0
func TrueCount(runningCount int, remainingDecks float64) float64 {
	if remainingDecks <= 0 {
		return 0
	}
	return math.Round(float64(runningCount)/remainingDecks*10) / 10
}

// BetRecommendation 下注倍数建议
type BetRecommendation struct {
	Multiplier int    `json:"multiplier"`
	Label      string `json:"label"`
}

func RecommendBet(trueCount float64) BetRecommendation {
	switch {
	case trueCount >= 5:
		return BetRecommendation{8, "Very Favorable - Max Bet"}
	case trueCount >= 4:
		return BetRecommendation{6, "Very Favorable"}
	case trueCount >= 3:
		return BetRecommendation{4, "Favorable"}
	case trueCount >= 2:
		return BetRecommendation{2, "Slightly Favorable"}
	case trueCount >= 1:
		return BetRecommendation{1, "Neutral"}
	case trueCount >= 0:
		return BetRecommendation{1, "Slightly Unfavorable"}
	default:
		return BetRecommendation{1, "Unfavorable - Minimum Bet"}
	}
}

// Level 界面配色用的五档
type Level string

const (
	VeryNegative Level = "very-negative"
	Negative     Level = "negative"
	Neutral      Level = "neutral"
	Positive     Level = "positive"
	VeryPositive Level = "very-positive"
)

// LevelOf 阈值不对称（<=-2 与 >=3），与界面配色保持一致
func LevelOf(trueCount float64) Level {
	switch {
	case trueCount <= -2:
		return VeryNegative
	case trueCount < 0:
		return Negative
	case trueCount >= 3:
		return VeryPositive
	case trueCount >= 1:
		return Positive
	default:
		return Neutral
	}
}
