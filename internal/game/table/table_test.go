package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardStringAndID(t *testing.T) {
	c := NewCard(2, Spades, Ace)
	assert.Equal(t, "A♠", c.String())
	assert.Equal(t, "2-spades-A", c.ID)

	ten := NewCard(0, Hearts, Ten)
	assert.Equal(t, "10♥", ten.String())
}

func TestParseCard(t *testing.T) {
	tests := []struct {
		in      string
		want    Card
		wantErr bool
	}{
		{in: "A♠", want: Card{Suit: Spades, Rank: Ace}},
		{in: "as", want: Card{Suit: Spades, Rank: Ace}},
		{in: "10h", want: Card{Suit: Hearts, Rank: Ten}},
		{in: "Td", want: Card{Suit: Diamonds, Rank: Ten}},
		{in: "7♣", want: Card{Suit: Clubs, Rank: Seven}},
		{in: "1s", wantErr: true},
		{in: "Kx", wantErr: true},
		{in: "K", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCard(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Same(tt.want), "got %s want %s", got, tt.want)
		})
	}

	assert.Panics(t, func() { MustParseCards("A♠", "bogus") })
}

func TestRankHelpers(t *testing.T) {
	assert.Equal(t, Ten, King.Normalize())
	assert.Equal(t, Nine, Nine.Normalize())
	assert.Equal(t, 11, Ace.Points())
	assert.Equal(t, 10, Queen.Points())
	assert.Equal(t, 7, Seven.Points())
	assert.True(t, Ten.IsTenValue())
	assert.False(t, Ten.IsFace())
	assert.Len(t, Ranks, 13)
	assert.Len(t, Suits, 4)
}

func TestRulesValidate(t *testing.T) {
	assert.NoError(t, DefaultRules().Validate())

	r := DefaultRules()
	r.NumDecks = 0
	assert.ErrorIs(t, r.Validate(), ErrInvalidRules)

	r = DefaultRules()
	r.MaxSplitHands = 5
	assert.ErrorIs(t, r.Validate(), ErrInvalidRules)

	r = DefaultRules()
	r.Penetration = 1.2
	assert.ErrorIs(t, r.Validate(), ErrInvalidRules)
}

func TestRulesApply(t *testing.T) {
	decks := 1
	late := true
	r := DefaultRules().Apply(RulesPatch{NumDecks: &decks, LateSurrender: &late})

	assert.Equal(t, 1, r.NumDecks)
	assert.True(t, r.LateSurrender)
	assert.True(t, r.SurrenderAllowed())
	// 未指定字段不变
	assert.Equal(t, 0.75, r.Penetration)
	assert.Equal(t, 2, r.MaxSplitHands)
}
