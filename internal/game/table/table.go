package table

import (
	"fmt"
	"strings"
)

// Suit 花色 (0-3)
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// Suits 按建牌顺序排列
var Suits = []Suit{Clubs, Diamonds, Hearts, Spades}

func (s Suit) String() string {
	switch s {
	case Clubs:
		return "♣"
	case Diamonds:
		return "♦"
	case Hearts:
		return "♥"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// Name 用于 Card.ID 与 JSON
func (s Suit) Name() string {
	switch s {
	case Clubs:
		return "clubs"
	case Diamonds:
		return "diamonds"
	case Hearts:
		return "hearts"
	case Spades:
		return "spades"
	default:
		return "unknown"
	}
}

func (s Suit) MarshalText() ([]byte, error) {
	return []byte(s.Name()), nil
}

// Rank 点数 (2-14, Ace = 14)
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// Ranks 按建牌顺序排列
var Ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

func (r Rank) String() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	}
	if r >= Two && r <= Ten {
		return fmt.Sprintf("%d", int(r))
	}
	return "?"
}

func (r Rank) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// IsFace J/Q/K
func (r Rank) IsFace() bool {
	return r >= Jack && r <= King
}

// IsTenValue 10/J/Q/K
func (r Rank) IsTenValue() bool {
	return r >= Ten && r <= King
}

// Normalize 把 J/Q/K 折算成 10，查策略表用
func (r Rank) Normalize() Rank {
	if r.IsFace() {
		return Ten
	}
	return r
}

// Points blackjack 点数，A 按 11 计，软硬由 hand 包处理
func (r Rank) Points() int {
	switch {
	case r == Ace:
		return 11
	case r.IsTenValue():
		return 10
	default:
		return int(r)
	}
}

// Card 一旦创建不再修改；ID 只用于前端 key
type Card struct {
	Suit Suit   `json:"suit"`
	Rank Rank   `json:"rank"`
	ID   string `json:"id"`
}

// NewCard 创建第 deck 副牌中的一张
func NewCard(deck int, s Suit, r Rank) Card {
	return Card{Suit: s, Rank: r, ID: fmt.Sprintf("%d-%s-%s", deck, s.Name(), r)}
}

func (c Card) String() string {
	return fmtCard(c)
}

// Same 比较牌面（忽略 ID）
func (c Card) Same(o Card) bool {
	return c.Suit == o.Suit && c.Rank == o.Rank
}

func fmtCard(c Card) string {
	return c.Rank.String() + c.Suit.String()
}

// ParseCard 解析 "A♠" / "As" / "10h" / "Td" 形式
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	runes := []rune(s)
	suitPart := string(runes[len(runes)-1])
	rankPart := strings.ToUpper(string(runes[:len(runes)-1]))

	var suit Suit
	switch strings.ToLower(suitPart) {
	case "c", "♣":
		suit = Clubs
	case "d", "♦":
		suit = Diamonds
	case "h", "♥":
		suit = Hearts
	case "s", "♠":
		suit = Spades
	default:
		return Card{}, fmt.Errorf("invalid suit in card %q", s)
	}

	var rank Rank
	switch rankPart {
	case "A":
		rank = Ace
	case "K":
		rank = King
	case "Q":
		rank = Queen
	case "J":
		rank = Jack
	case "T", "10":
		rank = Ten
	default:
		if len(rankPart) != 1 || rankPart[0] < '2' || rankPart[0] > '9' {
			return Card{}, fmt.Errorf("invalid rank in card %q", s)
		}
		rank = Rank(rankPart[0] - '0')
	}
	return NewCard(0, suit, rank), nil
}

// MustParseCards 测试用: MustParseCards("A♠", "K♦")
func MustParseCards(ss ...string) []Card {
	out := make([]Card, 0, len(ss))
	for _, s := range ss {
		c, err := ParseCard(s)
		if err != nil {
			panic(err)
		}
		out = append(out, c)
	}
	return out
}
