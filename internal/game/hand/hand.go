// Package hand evaluates blackjack hands. Every function is pure: a Hand is
// derived from its cards and the active rules and is replaced, never patched,
// when a card is added.
package hand

import (
	"fmt"

	"BlackjackTrainer/internal/game/table"
)

const (
	Blackjack = 21
	// 庄家停牌点
	DealerStand = 17
)

// Hand 由牌序列推导出的只读结果
type Hand struct {
	Cards     []table.Card `json:"cards"`
	Value     int          `json:"value"`
	Soft      bool         `json:"isSoft"`
	Blackjack bool         `json:"isBlackjack"`
	Busted    bool         `json:"isBusted"`
	CanSplit  bool         `json:"canSplit"`
	CanDouble bool         `json:"canDouble"`
}

// Empty 空手牌
func Empty() Hand {
	return Hand{Cards: []table.Card{}}
}

// CalculateValue A 先按 11 计，爆牌时逐张改为 1。
// 返回不超过 21 的最大点数；全部按 1 仍爆则返回最小点数。
func CalculateValue(cards []table.Card) (value int, soft bool) {
	aces := 0
	for _, c := range cards {
		if c.Rank == table.Ace {
			aces++
		}
		value += c.Rank.Points()
	}
	for value > Blackjack && aces > 0 {
		value -= 10
		aces--
	}
	return value, aces > 0 && value <= Blackjack
}

// IsBlackjack 仅限前两张 A + 10 点牌
func IsBlackjack(cards []table.Card) bool {
	if len(cards) != 2 {
		return false
	}
	a, b := cards[0].Rank, cards[1].Rank
	return (a == table.Ace && b.IsTenValue()) || (b == table.Ace && a.IsTenValue())
}

func IsBust(value int) bool {
	return value > Blackjack
}

// CanSplit 两张且点数字面相同。K+Q 虽然都是 10 点也不能分。
// 分牌次数上限由引擎根据当前手数判断。
func CanSplit(cards []table.Card, _ table.Rules) bool {
	return len(cards) == 2 && cards[0].Rank == cards[1].Rank
}

// CanDouble 任意前两张都可以加倍，不限点数
func CanDouble(cards []table.Card, _ table.Rules) bool {
	return len(cards) == 2
}

// Evaluate 每次加牌后都要完整重算
func Evaluate(cards []table.Card, rules table.Rules) Hand {
	own := make([]table.Card, len(cards))
	copy(own, cards)

	value, soft := CalculateValue(own)
	return Hand{
		Cards:     own,
		Value:     value,
		Soft:      soft,
		Blackjack: IsBlackjack(own),
		Busted:    IsBust(value),
		CanSplit:  CanSplit(own, rules),
		CanDouble: CanDouble(own, rules),
	}
}

// Add 返回加入一张牌后的新手牌，原 Hand 不变
func (h Hand) Add(c table.Card, rules table.Rules) Hand {
	cards := make([]table.Card, 0, len(h.Cards)+1)
	cards = append(cards, h.Cards...)
	cards = append(cards, c)
	return Evaluate(cards, rules)
}

// ShouldDealerHit 16 及以下要牌；H17 规则下软 17 也要牌
func ShouldDealerHit(h Hand, hitsSoft17 bool) bool {
	if h.Busted {
		return false
	}
	if h.Value < DealerStand {
		return true
	}
	return h.Value == DealerStand && h.Soft && hitsSoft17
}

// Outcome 玩家视角的比牌结果
type Outcome int

const (
	Push Outcome = iota
	PlayerWins
	DealerWins
)

// Compare 比较一手玩家牌和庄家牌
func Compare(player, dealer Hand) Outcome {
	switch {
	case player.Busted:
		return DealerWins
	case dealer.Busted:
		return PlayerWins
	case player.Blackjack && dealer.Blackjack:
		return Push
	case player.Blackjack:
		return PlayerWins
	case dealer.Blackjack:
		return DealerWins
	case player.Value > dealer.Value:
		return PlayerWins
	case dealer.Value > player.Value:
		return DealerWins
	default:
		return Push
	}
}

// ValueString "Blackjack!" / "Bust (23)" / "Soft 17" / "17"
func (h Hand) ValueString() string {
	switch {
	case h.Blackjack:
		return "Blackjack!"
	case h.Busted:
		return fmt.Sprintf("Bust (%d)", h.Value)
	case h.Soft:
		return fmt.Sprintf("Soft %d", h.Value)
	default:
		return fmt.Sprintf("%d", h.Value)
	}
}

// Describe 带可选操作提示的描述
func (h Hand) Describe() string {
	if len(h.Cards) == 0 {
		return "Empty hand"
	}
	v := h.ValueString()
	if h.CanSplit {
		return v + " (Can split)"
	}
	if h.CanDouble {
		return v + " (Can double)"
	}
	return v
}
