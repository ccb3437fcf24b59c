package shoe

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"BlackjackTrainer/internal/game/table"
)

const CardsPerDeck = 52

// 剩余副数下限，防止真数除零爆炸
const minRemainingDecks = 0.5

var (
	ErrEmpty        = errors.New("shoe is empty")
	ErrInvalidDecks = errors.New("numDecks must be positive")
)

// Shoe 多副牌发牌器：只负责建牌、洗牌、发牌与渗透率（无规则判断）
//
// cards 始终包含全部 numDecks*52 张牌，next 之前是已发出的，之后是待发的，
// 所以 dealt + remaining == total 恒成立。
type Shoe struct {
	cards       []table.Card
	next        int
	numDecks    int
	penetration float64
	rnd         *rand.Rand
}

func New(numDecks int, penetration float64, seed int64) (*Shoe, error) {
	s := &Shoe{rnd: rand.New(rand.NewSource(seed))}
	if err := s.Reset(numDecks, penetration); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset 按新参数重建并洗牌（规则变更时用）
func (s *Shoe) Reset(numDecks int, penetration float64) error {
	if numDecks <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidDecks, numDecks)
	}
	s.numDecks = numDecks
	s.penetration = penetration
	s.cards = makeCards(numDecks)
	s.Shuffle()
	return nil
}

func makeCards(numDecks int) []table.Card {
	cards := make([]table.Card, 0, numDecks*CardsPerDeck)
	for d := 0; d < numDecks; d++ {
		for _, suit := range table.Suits {
			for _, rank := range table.Ranks {
				cards = append(cards, table.NewCard(d, suit, rank))
			}
		}
	}
	return cards
}

// Shuffle Fisher-Yates，已发出的牌全部收回
func (s *Shoe) Shuffle() {
	for i := len(s.cards) - 1; i > 0; i-- {
		j := s.rnd.Intn(i + 1)
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	}
	s.next = 0
}

// Deal 发一张牌；牌发完返回 ErrEmpty
func (s *Shoe) Deal() (table.Card, error) {
	if s.next >= len(s.cards) {
		return table.Card{}, ErrEmpty
	}
	c := s.cards[s.next]
	s.next++
	return c, nil
}

// DealN 要么发出 n 张，要么一张不发
func (s *Shoe) DealN(n int) ([]table.Card, error) {
	if s.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrEmpty, n, s.Remaining())
	}
	out := make([]table.Card, n)
	for i := range out {
		out[i], _ = s.Deal()
	}
	return out, nil
}

func (s *Shoe) Total() int {
	return len(s.cards)
}

func (s *Shoe) Dealt() int {
	return s.next
}

func (s *Shoe) Remaining() int {
	return len(s.cards) - s.next
}

func (s *Shoe) NumDecks() int {
	return s.numDecks
}

// RemainingDecks 剩余副数，最少 0.5
func (s *Shoe) RemainingDecks() float64 {
	return math.Max(minRemainingDecks, float64(s.Remaining())/CardsPerDeck)
}

// Penetration 已发比例 (0-1)
func (s *Shoe) Penetration() float64 {
	if len(s.cards) == 0 {
		return 0
	}
	return float64(s.next) / float64(len(s.cards))
}

func (s *Shoe) NeedsReshuffle() bool {
	return s.Penetration() >= s.penetration
}

// Stack 把指定牌按顺序移到待发区最前面（练习/测试用的“做牌”）。
// 只在待发区内交换位置，牌的总数和已发数不变。
func (s *Shoe) Stack(top ...table.Card) error {
	for i, want := range top {
		pos := s.next + i
		if pos >= len(s.cards) {
			return fmt.Errorf("%w: cannot stack %d cards", ErrEmpty, len(top))
		}
		found := -1
		for j := pos; j < len(s.cards); j++ {
			if s.cards[j].Same(want) {
				found = j
				break
			}
		}
		if found < 0 {
			return fmt.Errorf("card %s not left in shoe", want)
		}
		s.cards[pos], s.cards[found] = s.cards[found], s.cards[pos]
	}
	return nil
}
