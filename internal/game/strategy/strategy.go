// Package strategy looks up basic-strategy decisions. Table cells hold a
// shorthand code that is resolved against the live rule flags at lookup time.
package strategy

import (
	"fmt"

	"BlackjackTrainer/internal/game/hand"
	"BlackjackTrainer/internal/game/table"
)

// Action 玩家动作
type Action string

const (
	Hit       Action = "hit"
	Stand     Action = "stand"
	Double    Action = "double"
	Split     Action = "split"
	Surrender Action = "surrender"
)

// Actions 全部动作，统计准确率时用
var Actions = []Action{Hit, Stand, Double, Split, Surrender}

// code 表格里的简写
type code uint8

const (
	codeH code = iota
	codeS
	codeD
	codeDs
	codeP
	codePh
	codeRh
	codeRs
)

var codeNames = map[code]string{
	codeH: "H", codeS: "S", codeD: "D", codeDs: "Ds",
	codeP: "P", codePh: "Ph", codeRh: "Rh", codeRs: "Rs",
}

func (c code) String() string {
	return codeNames[c]
}

func parseCode(s string) (code, bool) {
	for c, name := range codeNames {
		if name == s {
			return c, true
		}
	}
	return 0, false
}

// flags 查表时的实时规则
type flags struct {
	canDouble        bool
	canSurrender     bool
	doubleAfterSplit bool
	pair             bool
}

func (c code) resolve(f flags) Action {
	switch c {
	case codeS:
		return Stand
	case codeD:
		if f.canDouble {
			return Double
		}
		return Hit
	case codeDs:
		if f.canDouble {
			return Double
		}
		return Stand
	case codeP:
		return Split
	case codePh:
		if f.pair && f.doubleAfterSplit {
			return Split
		}
		return Hit
	case codeRh:
		if f.canSurrender {
			return Surrender
		}
		return Hit
	case codeRs:
		if f.canSurrender {
			return Surrender
		}
		return Stand
	default:
		return Hit
	}
}

// Decision 建议动作 + 说明
type Decision struct {
	Action      Action `json:"action"`
	Explanation string `json:"explanation,omitempty"`
}

// Decide 查表顺序: 对子 -> 软牌 -> 硬牌(封顶 21) -> 默认要牌。
// h.CanSplit / h.CanDouble 应该是当前局面下真实可用的值。
// Rh/Rs 在开启晚投降时给出投降。
func Decide(h hand.Hand, up table.Card, rules table.Rules) Decision {
	return decide(h, up, rules, rules.LateSurrender)
}

// DecideLive 同 Decide，但只有 canSurrender 为真时才会建议投降
// （已经要过牌或者是分牌后的手传 false）。
func DecideLive(h hand.Hand, up table.Card, rules table.Rules, canSurrender bool) Decision {
	return decide(h, up, rules, rules.LateSurrender && canSurrender)
}

func decide(h hand.Hand, up table.Card, rules table.Rules, surrender bool) Decision {
	col, ok := column(up.Rank)
	if !ok {
		return Decision{Action: Hit, Explanation: "Hit to improve your hand"}
	}
	f := flags{
		canDouble:        h.CanDouble,
		canSurrender:     surrender,
		doubleAfterSplit: rules.DoubleAfterSplit,
	}
	dealer := up.Rank.Normalize()

	if h.CanSplit && len(h.Cards) == 2 {
		if r, ok := pairTable[h.Cards[0].Rank.Normalize()]; ok {
			f.pair = true
			a := r[col].resolve(f)
			return Decision{Action: a, Explanation: explain(a, h, dealer, true)}
		}
	}

	if h.Soft {
		if r, ok := softTable[h.Value]; ok {
			a := r[col].resolve(f)
			return Decision{Action: a, Explanation: explain(a, h, dealer, false)}
		}
	}

	if r, ok := hardTable[min(h.Value, hand.Blackjack)]; ok {
		a := r[col].resolve(f)
		return Decision{Action: a, Explanation: explain(a, h, dealer, false)}
	}

	return Decision{Action: Hit, Explanation: "Hit to improve your hand"}
}

// IsCorrect 玩家动作是否符合基本策略
func IsCorrect(a Action, h hand.Hand, up table.Card, rules table.Rules) bool {
	return Decide(h, up, rules).Action == a
}

func explain(a Action, h hand.Hand, dealer table.Rank, pair bool) string {
	desc := fmt.Sprintf("hard %d", h.Value)
	switch {
	case pair:
		desc = fmt.Sprintf("pair of %ss", h.Cards[0].Rank)
	case h.Soft:
		desc = fmt.Sprintf("soft %d", h.Value)
	}

	switch a {
	case Hit:
		return fmt.Sprintf("Hit with %s vs dealer %s", desc, dealer)
	case Stand:
		return fmt.Sprintf("Stand with %s vs dealer %s", desc, dealer)
	case Double:
		return fmt.Sprintf("Double down with %s vs dealer %s", desc, dealer)
	case Split:
		return fmt.Sprintf("Split %s vs dealer %s", desc, dealer)
	case Surrender:
		return fmt.Sprintf("Surrender %s vs dealer %s", desc, dealer)
	}
	return ""
}
