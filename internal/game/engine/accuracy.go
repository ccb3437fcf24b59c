package engine

import (
	"time"

	"BlackjackTrainer/internal/game/hand"
	"BlackjackTrainer/internal/game/strategy"
	"BlackjackTrainer/internal/game/table"
)

// DecisionRecord 一次玩家决策的评分
type DecisionRecord struct {
	PlayerHand    hand.Hand       `json:"playerHand"`
	DealerCard    table.Card      `json:"dealerCard"`
	UserAction    strategy.Action `json:"userAction"`
	CorrectAction strategy.Action `json:"correctAction"`
	WasCorrect    bool            `json:"wasCorrect"`
	At            time.Time       `json:"timestamp"`
}

type Tally struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Percent 没有样本时为 0
func (t Tally) Percent() float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Correct) / float64(t.Total) * 100
}

func (t Tally) add(ok bool) Tally {
	t.Total++
	if ok {
		t.Correct++
	}
	return t
}

// Accuracy 本会话的基本策略正确率，按建议动作分类。不持久化。
type Accuracy struct {
	Overall  Tally                     `json:"overall"`
	ByAction map[strategy.Action]Tally `json:"byAction"`
	Last     *DecisionRecord           `json:"lastDecision,omitempty"`
}

func newAccuracy() Accuracy {
	by := make(map[strategy.Action]Tally, len(strategy.Actions))
	for _, a := range strategy.Actions {
		by[a] = Tally{}
	}
	return Accuracy{ByAction: by}
}

func (a *Accuracy) record(r DecisionRecord) {
	a.Overall = a.Overall.add(r.WasCorrect)
	a.ByAction[r.CorrectAction] = a.ByAction[r.CorrectAction].add(r.WasCorrect)
	a.Last = &r
}

func (a Accuracy) clone() Accuracy {
	out := Accuracy{Overall: a.Overall, ByAction: make(map[strategy.Action]Tally, len(a.ByAction))}
	for k, v := range a.ByAction {
		out.ByAction[k] = v
	}
	if a.Last != nil {
		last := *a.Last
		out.Last = &last
	}
	return out
}
