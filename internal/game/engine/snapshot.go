package engine

import (
	"BlackjackTrainer/internal/game/counting"
	"BlackjackTrainer/internal/game/hand"
	"BlackjackTrainer/internal/game/strategy"
	"BlackjackTrainer/internal/game/table"
	"BlackjackTrainer/internal/profile"
)

// Snapshot 一局的只读视图，可以直接序列化给前端
type Snapshot struct {
	Phase            Phase        `json:"phase"`
	Result           Result       `json:"result"`
	HandResults      []Result     `json:"handResults"`
	DealerHand       hand.Hand    `json:"dealerHand"`
	DealerUpCard     *table.Card  `json:"dealerUpCard,omitempty"`
	PlayerHands      []PlayerHand `json:"playerHands"`
	HandDescriptions []string     `json:"handDescriptions"`
	CurrentHandIndex int          `json:"currentHandIndex"`
	LastDelta        int64        `json:"lastDelta"`

	RunningCount      int                        `json:"runningCount"`
	TrueCount         float64                    `json:"trueCount"`
	RemainingDecks    float64                    `json:"remainingDecks"`
	Penetration       float64                    `json:"penetration"`
	CountLevel        counting.Level             `json:"countLevel"`
	BetRecommendation counting.BetRecommendation `json:"betRecommendation"`
	RecommendedBet    int64                      `json:"recommendedBet"`
	StrategyHint      *strategy.Decision         `json:"currentStrategyHint,omitempty"`

	Bankroll      int64            `json:"bankroll"`
	CurrentBet    int64            `json:"currentBet"`
	Stats         profile.Stats    `json:"stats"`
	WinRate       float64          `json:"winRate"`
	BlackjackRate float64          `json:"blackjackRate"`
	Settings      profile.Settings `json:"settings"`
	Rules         table.Rules      `json:"rules"`
	Accuracy      Accuracy         `json:"strategyAccuracy"`
}

// Snapshot 拷贝当前状态；返回值与 Engine 之后的变化无关
func (e *Engine) Snapshot() Snapshot {
	rec := counting.RecommendBet(e.trueCount)
	s := Snapshot{
		Phase:            e.phase,
		Result:           e.result,
		HandResults:      append([]Result(nil), e.results...),
		DealerHand:       e.dealer,
		PlayerHands:      append([]PlayerHand(nil), e.hands...),
		CurrentHandIndex: e.current,
		LastDelta:        e.delta,

		RunningCount:      e.runningCount,
		TrueCount:         e.trueCount,
		CountLevel:        counting.LevelOf(e.trueCount),
		BetRecommendation: rec,
		RecommendedBet:    min(MinBet*int64(rec.Multiplier), e.bankroll),

		Bankroll:      e.bankroll,
		CurrentBet:    e.bet,
		Stats:         e.stats,
		WinRate:       e.stats.WinRate(),
		BlackjackRate: e.stats.BlackjackRate(),
		Settings:      e.settings,
		Rules:         e.rules,
		Accuracy:      e.accuracy.clone(),
	}
	s.HandDescriptions = e.describeHands()
	if e.shoe != nil {
		s.RemainingDecks = e.shoe.RemainingDecks()
		s.Penetration = e.shoe.Penetration()
	}
	if len(e.dealer.Cards) > 0 {
		up := e.dealer.Cards[0]
		s.DealerUpCard = &up
	}
	if e.hint != nil {
		h := *e.hint
		s.StrategyHint = &h
	}
	return s
}

// describeHands 当前行动的手带上可分/可加倍提示，其它手只给点数
func (e *Engine) describeHands() []string {
	out := make([]string, len(e.hands))
	for i, ph := range e.hands {
		if e.phase == PhasePlayerTurn && i == e.current {
			out[i] = e.liveHand().Describe()
			continue
		}
		h := ph.Hand
		h.CanSplit, h.CanDouble = false, false
		out[i] = h.Describe()
	}
	return out
}

// CurrentHand 当前行动的手；没有手牌时 ok 为 false
func (s Snapshot) CurrentHand() (PlayerHand, bool) {
	if s.CurrentHandIndex < 0 || s.CurrentHandIndex >= len(s.PlayerHands) {
		return PlayerHand{}, false
	}
	return s.PlayerHands[s.CurrentHandIndex], true
}
