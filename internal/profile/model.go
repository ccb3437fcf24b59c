package profile

import "BlackjackTrainer/internal/game/counting"

// DefaultBankroll 首次运行的资金
const DefaultBankroll int64 = 10000

// Settings 持久化的设置记录
type Settings struct {
	CountingSystem    counting.SystemName `json:"countingSystem"`
	ShowCount         bool                `json:"showCount"`
	ShowStrategyHints bool                `json:"showStrategyHints"`
}

func DefaultSettings() Settings {
	return Settings{
		CountingSystem:    counting.HiLo,
		ShowCount:         true,
		ShowStrategyHints: true,
	}
}

// Valid 计数系统必须是内置的三种之一
func (s Settings) Valid() bool {
	_, ok := counting.Lookup(s.CountingSystem)
	return ok
}

// SettingsPatch 部分更新
type SettingsPatch struct {
	CountingSystem    *counting.SystemName `json:"countingSystem,omitempty"`
	ShowCount         *bool                `json:"showCount,omitempty"`
	ShowStrategyHints *bool                `json:"showStrategyHints,omitempty"`
}

func (s Settings) Apply(p SettingsPatch) Settings {
	if p.CountingSystem != nil {
		s.CountingSystem = *p.CountingSystem
	}
	if p.ShowCount != nil {
		s.ShowCount = *p.ShowCount
	}
	if p.ShowStrategyHints != nil {
		s.ShowStrategyHints = *p.ShowStrategyHints
	}
	return s
}

// Stats 会话统计（持久化）
type Stats struct {
	HandsPlayed int   `json:"handsPlayed"`
	Wins        int   `json:"wins"`
	Losses      int   `json:"losses"`
	Pushes      int   `json:"pushes"`
	Blackjacks  int   `json:"blackjacks"`
	TotalProfit int64 `json:"totalProfit"`
}

// Add 合并一局的增量
func (s Stats) Add(d Stats) Stats {
	s.HandsPlayed += d.HandsPlayed
	s.Wins += d.Wins
	s.Losses += d.Losses
	s.Pushes += d.Pushes
	s.Blackjacks += d.Blackjacks
	s.TotalProfit += d.TotalProfit
	return s
}

// WinRate 百分比
func (s Stats) WinRate() float64 {
	if s.HandsPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.HandsPlayed) * 100
}

func (s Stats) BlackjackRate() float64 {
	if s.HandsPlayed == 0 {
		return 0
	}
	return float64(s.Blackjacks) / float64(s.HandsPlayed) * 100
}

func (s Stats) valid() bool {
	return s.HandsPlayed >= 0 && s.Wins >= 0 && s.Losses >= 0 && s.Pushes >= 0 && s.Blackjacks >= 0
}
