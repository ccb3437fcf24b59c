// Package engine runs one blackjack round at a time for a single player.
//
// An Engine is owned by exactly one caller and is not safe for concurrent
// use; the session manager serializes commands. Every command is
// synchronous, returns nothing and is a no-op when it is not legal in the
// current phase. The resulting state is read back through Snapshot.
package engine

import (
	"context"
	"math"
	"time"

	"BlackjackTrainer/internal/game/counting"
	"BlackjackTrainer/internal/game/hand"
	"BlackjackTrainer/internal/game/shoe"
	"BlackjackTrainer/internal/game/strategy"
	"BlackjackTrainer/internal/game/table"
	"BlackjackTrainer/internal/profile"
	"BlackjackTrainer/internal/storage"

	"github.com/charmbracelet/log"
)

// ---------------------
//     PHASE / RESULT
// ---------------------

type Phase string

const (
	PhaseBetting    Phase = "betting"
	PhaseDealing    Phase = "dealing"
	PhasePlayerTurn Phase = "player-turn"
	PhaseDealerTurn Phase = "dealer-turn"
	PhaseResult     Phase = "result"
)

type Result string

const (
	ResultNone      Result = ""
	ResultWin       Result = "win"
	ResultLoss      Result = "loss"
	ResultPush      Result = "push"
	ResultBlackjack Result = "blackjack"
	ResultSurrender Result = "surrender"
)

const (
	MinBet     int64 = 10
	DefaultBet int64 = 10

	persistTimeout = 2 * time.Second
	// 开局发的牌数
	roundCards = 4
)

// PlayerHand 玩家的一个座位：手牌 + 该手的注码
type PlayerHand struct {
	hand.Hand
	Bet       int64 `json:"bet"`
	Doubled   bool  `json:"doubled"`
	FromSplit bool  `json:"fromSplit"`
}

// Persister 三条持久化记录；profile.Store 实现了它
type Persister interface {
	LoadSettings(ctx context.Context) profile.Settings
	SaveSettings(ctx context.Context, s profile.Settings) error
	LoadStats(ctx context.Context) profile.Stats
	SaveStats(ctx context.Context, s profile.Stats) error
	LoadBankroll(ctx context.Context) int64
	SaveBankroll(ctx context.Context, amount int64) error
}

type Options struct {
	Rules  table.Rules
	Store  Persister
	Logger *log.Logger
	// Seed 为 0 时取当前时间
	Seed int64
}

// ---------------------
//       ENGINE
// ---------------------

type Engine struct {
	rules  table.Rules
	store  Persister
	logger *log.Logger
	seed   int64

	shoe  *shoe.Shoe
	dealt []table.Card

	phase   Phase
	dealer  hand.Hand
	hands   []PlayerHand
	current int
	result  Result
	results []Result
	delta   int64

	runningCount int
	trueCount    float64
	hint         *strategy.Decision

	bet      int64
	bankroll int64
	stats    profile.Stats
	settings profile.Settings
	accuracy Accuracy
}

// New 读取持久化记录后以 opts.Rules 初始化。规则不合法时退回默认规则。
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	store := opts.Store
	if store == nil {
		store = profile.NewStore(storage.NewMemoryKV(), "local", logger)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &Engine{
		store:    store,
		logger:   logger,
		seed:     seed,
		bet:      DefaultBet,
		accuracy: newAccuracy(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	e.settings = store.LoadSettings(ctx)
	e.stats = store.LoadStats(ctx)
	e.bankroll = store.LoadBankroll(ctx)

	rules := opts.Rules
	if err := rules.Validate(); err != nil {
		logger.Warn("rejecting configured rules, using defaults", "err", err)
		rules = table.DefaultRules()
	}
	e.Initialize(rules)
	return e
}

// Initialize 重建牌靴，清空手牌、计数和已发牌记录，回到下注阶段
func (e *Engine) Initialize(rules table.Rules) {
	if err := rules.Validate(); err != nil {
		e.logger.Warn("initialize ignored", "err", err)
		return
	}
	if e.shoe == nil {
		s, err := shoe.New(rules.NumDecks, rules.Penetration, e.seed)
		if err != nil {
			e.logger.Error("cannot build shoe", "err", err)
			return
		}
		e.shoe = s
	} else if err := e.shoe.Reset(rules.NumDecks, rules.Penetration); err != nil {
		e.logger.Error("cannot rebuild shoe", "err", err)
		return
	}
	e.rules = rules
	e.dealt = nil
	e.clearRound()
	e.recount()
	e.phase = PhaseBetting
}

func (e *Engine) clearRound() {
	e.dealer = hand.Empty()
	e.hands = []PlayerHand{{Hand: hand.Empty()}}
	e.current = 0
	e.result = ResultNone
	e.results = nil
	e.delta = 0
	e.hint = nil
}

// StartNewRound 必要时先洗牌，按 玩家-庄家-玩家-庄家 发 4 张，再检查天然 21 点
func (e *Engine) StartNewRound() {
	if e.shoe == nil || !e.between() {
		return
	}
	if e.bet < MinBet || e.bet > e.bankroll {
		e.logger.Warn("cannot start round", "bet", e.bet, "bankroll", e.bankroll)
		return
	}
	// 到了切牌位置，或者剩的牌不够开一局
	if e.shoe.NeedsReshuffle() || e.shoe.Remaining() < roundCards {
		e.shoe.Shuffle()
		e.dealt = nil
		e.recount()
		e.logger.Info("shoe reshuffled", "decks", e.shoe.NumDecks())
	}

	cards, ok := e.draw(roundCards)
	if !ok {
		return
	}
	e.phase = PhaseDealing
	e.clearRound()
	e.hands = []PlayerHand{{
		Hand: hand.Evaluate([]table.Card{cards[0], cards[2]}, e.rules),
		Bet:  e.bet,
	}}
	e.dealer = hand.Evaluate([]table.Card{cards[1], cards[3]}, e.rules)
	e.record(cards...)

	e.phase = PhasePlayerTurn
	e.refreshHint()

	player := e.hands[0].Blackjack
	switch {
	case player && e.dealer.Blackjack:
		e.settle([]Result{ResultPush})
	case player:
		e.settle([]Result{ResultBlackjack})
	case e.dealer.Blackjack:
		e.settle([]Result{ResultLoss})
	}
}

func (e *Engine) Hit() {
	if e.phase != PhasePlayerTurn {
		return
	}
	cards, ok := e.draw(1)
	if !ok {
		return
	}
	e.grade(strategy.Hit)
	e.hitCurrent(cards[0])
	if e.hands[e.current].Busted {
		e.advance()
		return
	}
	e.refreshHint()
}

func (e *Engine) Stand() {
	if e.phase != PhasePlayerTurn {
		return
	}
	e.grade(strategy.Stand)
	e.advance()
}

// Double 加倍、补一张、强制停牌，一次完成
func (e *Engine) Double() {
	if e.phase != PhasePlayerTurn || !e.canDouble() {
		return
	}
	cards, ok := e.draw(1)
	if !ok {
		return
	}
	e.grade(strategy.Double)
	ph := &e.hands[e.current]
	ph.Bet *= 2
	ph.Doubled = true
	e.hitCurrent(cards[0])
	e.advance()
}

// Split 拆成两手，各补一张；第二手插在第一手之后，当前索引不变
func (e *Engine) Split() {
	if e.phase != PhasePlayerTurn || !e.canSplit() {
		return
	}
	cards, ok := e.draw(2)
	if !ok {
		return
	}
	e.grade(strategy.Split)

	ph := e.hands[e.current]
	first := PlayerHand{
		Hand:      hand.Evaluate([]table.Card{ph.Cards[0], cards[0]}, e.rules),
		Bet:       ph.Bet,
		FromSplit: true,
	}
	second := PlayerHand{
		Hand:      hand.Evaluate([]table.Card{ph.Cards[1], cards[1]}, e.rules),
		Bet:       ph.Bet,
		FromSplit: true,
	}

	hands := make([]PlayerHand, 0, len(e.hands)+1)
	hands = append(hands, e.hands[:e.current]...)
	hands = append(hands, first, second)
	hands = append(hands, e.hands[e.current+1:]...)
	e.hands = hands
	e.record(cards...)
	e.refreshHint()
}

// Surrender 只在首个决策点可用，输掉一半注码，庄家不补牌
func (e *Engine) Surrender() {
	if e.phase != PhasePlayerTurn || !e.canSurrender() {
		return
	}
	e.grade(strategy.Surrender)
	e.settle([]Result{ResultSurrender})
}

// ResetGame 用当前规则重新初始化
func (e *Engine) ResetGame() {
	e.Initialize(e.rules)
}

// UpdateRules 合并规则并重新初始化，进行中的一局直接作废
func (e *Engine) UpdateRules(p table.RulesPatch) {
	next := e.rules.Apply(p)
	if err := next.Validate(); err != nil {
		e.logger.Warn("rules patch rejected", "err", err)
		return
	}
	if e.phase == PhasePlayerTurn {
		e.logger.Info("rules changed mid-round, round discarded")
	}
	e.Initialize(next)
}

func (e *Engine) UpdateSettings(p profile.SettingsPatch) {
	next := e.settings.Apply(p)
	if !next.Valid() {
		e.logger.Warn("settings patch rejected", "countingSystem", next.CountingSystem)
		return
	}
	e.settings = next
	e.persist("settings", func(ctx context.Context) error {
		return e.store.SaveSettings(ctx, e.settings)
	})
	e.recount()
	e.refreshHint()
}

func (e *Engine) ResetStats() {
	e.stats = profile.Stats{}
	e.persist("stats", func(ctx context.Context) error {
		return e.store.SaveStats(ctx, e.stats)
	})
}

// SetBet 只在两局之间生效，截断到 [MinBet, bankroll]
func (e *Engine) SetBet(amount int64) {
	if !e.between() {
		return
	}
	e.bet = min(max(amount, MinBet), e.bankroll)
}

func (e *Engine) ResetBankroll() {
	e.bankroll = profile.DefaultBankroll
	e.persist("bankroll", func(ctx context.Context) error {
		return e.store.SaveBankroll(ctx, e.bankroll)
	})
}

// ---------------------
//      INTERNALS
// ---------------------

func (e *Engine) between() bool {
	return e.phase == PhaseBetting || e.phase == PhaseResult
}

// draw 先检查余量再发牌；不够时记录错误，调用方放弃本次转换
func (e *Engine) draw(n int) ([]table.Card, bool) {
	cards, err := e.shoe.DealN(n)
	if err != nil {
		e.logger.Error("shoe exhausted, command aborted", "need", n, "remaining", e.shoe.Remaining(), "err", err)
		return nil, false
	}
	return cards, true
}

func (e *Engine) record(cards ...table.Card) {
	e.dealt = append(e.dealt, cards...)
	e.recount()
}

func (e *Engine) recount() {
	sys := counting.Get(e.settings.CountingSystem)
	e.runningCount = counting.RunningCount(e.dealt, sys)
	e.trueCount = counting.TrueCount(e.runningCount, e.shoe.RemainingDecks())
}

func (e *Engine) hitCurrent(c table.Card) {
	ph := &e.hands[e.current]
	ph.Hand = ph.Hand.Add(c, e.rules)
	e.record(c)
}

// advance 当前手结束：还有下一手就切过去，否则轮到庄家
func (e *Engine) advance() {
	if e.current < len(e.hands)-1 {
		e.current++
		e.refreshHint()
		return
	}
	e.phase = PhaseDealerTurn
	e.hint = nil
	e.dealerPlay()
}

func (e *Engine) staked() int64 {
	var total int64
	for _, ph := range e.hands {
		total += ph.Bet
	}
	return total
}

func (e *Engine) canSplit() bool {
	ph := e.hands[e.current]
	if !ph.CanSplit || len(e.hands) >= e.rules.MaxSplitHands {
		return false
	}
	if len(e.hands) > 1 && !e.rules.Resplit {
		return false
	}
	return e.staked()+ph.Bet <= e.bankroll
}

func (e *Engine) canDouble() bool {
	ph := e.hands[e.current]
	if !ph.CanDouble {
		return false
	}
	if ph.FromSplit && !e.rules.DoubleAfterSplit {
		return false
	}
	return e.staked()+ph.Bet <= e.bankroll
}

func (e *Engine) canSurrender() bool {
	if !e.rules.SurrenderAllowed() || len(e.hands) != 1 {
		return false
	}
	ph := e.hands[0]
	return len(ph.Cards) == 2 && !ph.FromSplit
}

// liveHand 当前手，CanSplit/CanDouble 换成此刻真实可用的值
func (e *Engine) liveHand() hand.Hand {
	h := e.hands[e.current].Hand
	h.CanSplit = e.canSplit()
	h.CanDouble = e.canDouble()
	return h
}

// decide 查表，投降只在此刻真的能投降时才算
func (e *Engine) decide(live hand.Hand) strategy.Decision {
	return strategy.DecideLive(live, e.upCard(), e.rules, e.canSurrender())
}

func (e *Engine) upCard() table.Card {
	return e.dealer.Cards[0]
}

func (e *Engine) refreshHint() {
	e.hint = nil
	if e.phase != PhasePlayerTurn || !e.settings.ShowStrategyHints {
		return
	}
	if e.hands[e.current].Busted {
		return
	}
	d := e.decide(e.liveHand())
	e.hint = &d
}

// grade 在动作生效前对照基本策略打分
func (e *Engine) grade(a strategy.Action) {
	live := e.liveHand()
	d := e.decide(live)
	e.accuracy.record(DecisionRecord{
		PlayerHand:    live,
		DealerCard:    e.upCard(),
		UserAction:    a,
		CorrectAction: d.Action,
		WasCorrect:    a == d.Action,
		At:            time.Now(),
	})
}

func (e *Engine) dealerPlay() {
	allBusted := true
	for _, ph := range e.hands {
		if !ph.Busted {
			allBusted = false
			break
		}
	}
	if !allBusted {
		for hand.ShouldDealerHit(e.dealer, e.rules.DealerHitsSoft17) {
			c, err := e.shoe.Deal()
			if err != nil {
				e.logger.Error("shoe exhausted during dealer play", "dealer", e.dealer.Value, "err", err)
				break
			}
			e.dealer = e.dealer.Add(c, e.rules)
			e.dealt = append(e.dealt, c)
		}
		e.recount()
	}

	single := len(e.hands) == 1
	results := make([]Result, len(e.hands))
	for i, ph := range e.hands {
		results[i] = e.judge(ph, single)
	}
	e.settle(results)
}

// judge 单手结果；分牌后的 A+10 只算普通赢
func (e *Engine) judge(ph PlayerHand, single bool) Result {
	if ph.Busted {
		return ResultLoss
	}
	if single && ph.Blackjack && !e.dealer.Blackjack {
		return ResultBlackjack
	}
	switch hand.Compare(ph.Hand, e.dealer) {
	case hand.PlayerWins:
		return ResultWin
	case hand.DealerWins:
		return ResultLoss
	default:
		return ResultPush
	}
}

// settle 先算完所有手的结果，再一次性更新统计和资金，最后落盘
func (e *Engine) settle(results []Result) {
	var d profile.Stats
	for i, r := range results {
		bet := e.hands[i].Bet
		d.HandsPlayed++
		switch r {
		case ResultBlackjack:
			d.TotalProfit += int64(math.Round(float64(bet) * e.rules.BlackjackPayout))
			d.Blackjacks++
		case ResultWin:
			d.TotalProfit += bet
			d.Wins++
		case ResultLoss:
			d.TotalProfit -= bet
			d.Losses++
		case ResultSurrender:
			d.TotalProfit -= bet / 2
			d.Losses++
		case ResultPush:
			d.Pushes++
		}
	}

	e.stats = e.stats.Add(d)
	e.bankroll += d.TotalProfit
	e.delta = d.TotalProfit
	e.results = results
	e.result = results[0]
	e.phase = PhaseResult
	e.hint = nil

	e.logger.Debug("round settled", "results", results, "delta", d.TotalProfit, "bankroll", e.bankroll)

	e.persist("stats", func(ctx context.Context) error {
		return e.store.SaveStats(ctx, e.stats)
	})
	e.persist("bankroll", func(ctx context.Context) error {
		return e.store.SaveBankroll(ctx, e.bankroll)
	})
}

// persist 写失败只记日志
func (e *Engine) persist(record string, save func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := save(ctx); err != nil {
		e.logger.Error("persist failed", "record", record, "err", err)
	}
}
