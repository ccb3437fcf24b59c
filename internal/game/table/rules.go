package table

import (
	"errors"
	"fmt"
)

var ErrInvalidRules = errors.New("invalid rules")

// Rules 一局内不可变；修改会触发整桌重新初始化
type Rules struct {
	NumDecks    int     `json:"numDecks" mapstructure:"num_decks"`
	Penetration float64 `json:"penetration" mapstructure:"penetration"` // 0.75 = 发出 75% 后洗牌

	DealerHitsSoft17 bool `json:"dealerHitsSoft17" mapstructure:"dealer_hits_soft17"`

	DoubleAfterSplit bool `json:"doubleAfterSplit" mapstructure:"double_after_split"`
	Resplit          bool `json:"resplit" mapstructure:"resplit"`
	MaxSplitHands    int  `json:"maxSplitHands" mapstructure:"max_split_hands"`
	EarlySurrender   bool `json:"earlySurrender" mapstructure:"early_surrender"`
	LateSurrender    bool `json:"lateSurrender" mapstructure:"late_surrender"`

	BlackjackPayout float64 `json:"blackjackPayout" mapstructure:"blackjack_payout"` // 1.5 = 3:2, 1.2 = 6:5
	InsurancePayout float64 `json:"insurancePayout" mapstructure:"insurance_payout"`
}

// DefaultRules 六副牌 H17 DAS
func DefaultRules() Rules {
	return Rules{
		NumDecks:         6,
		Penetration:      0.75,
		DealerHitsSoft17: true,
		DoubleAfterSplit: true,
		Resplit:          false,
		MaxSplitHands:    2,
		EarlySurrender:   false,
		LateSurrender:    false,
		BlackjackPayout:  1.5,
		InsurancePayout:  2,
	}
}

func (r Rules) Validate() error {
	switch {
	case r.NumDecks <= 0 || r.NumDecks > 8:
		return fmt.Errorf("%w: numDecks %d not in 1..8", ErrInvalidRules, r.NumDecks)
	case r.Penetration <= 0 || r.Penetration > 1:
		return fmt.Errorf("%w: penetration %.2f not in (0,1]", ErrInvalidRules, r.Penetration)
	case r.MaxSplitHands < 2 || r.MaxSplitHands > 4:
		return fmt.Errorf("%w: maxSplitHands %d not in 2..4", ErrInvalidRules, r.MaxSplitHands)
	case r.BlackjackPayout <= 0:
		return fmt.Errorf("%w: blackjackPayout must be positive", ErrInvalidRules)
	case r.InsurancePayout < 0:
		return fmt.Errorf("%w: insurancePayout must not be negative", ErrInvalidRules)
	}
	return nil
}

// SurrenderAllowed early 或 late 任一开启
func (r Rules) SurrenderAllowed() bool {
	return r.EarlySurrender || r.LateSurrender
}

// RulesPatch 部分更新，nil 字段保持原值
type RulesPatch struct {
	NumDecks         *int     `json:"numDecks,omitempty"`
	Penetration      *float64 `json:"penetration,omitempty"`
	DealerHitsSoft17 *bool    `json:"dealerHitsSoft17,omitempty"`
	DoubleAfterSplit *bool    `json:"doubleAfterSplit,omitempty"`
	Resplit          *bool    `json:"resplit,omitempty"`
	MaxSplitHands    *int     `json:"maxSplitHands,omitempty"`
	EarlySurrender   *bool    `json:"earlySurrender,omitempty"`
	LateSurrender    *bool    `json:"lateSurrender,omitempty"`
	BlackjackPayout  *float64 `json:"blackjackPayout,omitempty"`
	InsurancePayout  *float64 `json:"insurancePayout,omitempty"`
}

func (r Rules) Apply(p RulesPatch) Rules {
	if p.NumDecks != nil {
		r.NumDecks = *p.NumDecks
	}
	if p.Penetration != nil {
		r.Penetration = *p.Penetration
	}
	if p.DealerHitsSoft17 != nil {
		r.DealerHitsSoft17 = *p.DealerHitsSoft17
	}
	if p.DoubleAfterSplit != nil {
		r.DoubleAfterSplit = *p.DoubleAfterSplit
	}
	if p.Resplit != nil {
		r.Resplit = *p.Resplit
	}
	if p.MaxSplitHands != nil {
		r.MaxSplitHands = *p.MaxSplitHands
	}
	if p.EarlySurrender != nil {
		r.EarlySurrender = *p.EarlySurrender
	}
	if p.LateSurrender != nil {
		r.LateSurrender = *p.LateSurrender
	}
	if p.BlackjackPayout != nil {
		r.BlackjackPayout = *p.BlackjackPayout
	}
	if p.InsurancePayout != nil {
		r.InsurancePayout = *p.InsurancePayout
	}
	return r
}
