package manager

import (
	"encoding/json"
	"errors"
	"fmt"

	"BlackjackTrainer/internal/game/engine"
	"BlackjackTrainer/internal/game/table"
	"BlackjackTrainer/internal/profile"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadPayload     = errors.New("bad command payload")
)

// 命令名，HTTP 路径和 WebSocket event 共用
const (
	CmdNewRound      = "new-round"
	CmdHit           = "hit"
	CmdStand         = "stand"
	CmdDouble        = "double"
	CmdSplit         = "split"
	CmdSurrender     = "surrender"
	CmdReset         = "reset"
	CmdRules         = "rules"
	CmdSettings      = "settings"
	CmdResetStats    = "reset-stats"
	CmdBet           = "bet"
	CmdResetBankroll = "reset-bankroll"
)

type Command struct {
	Name     string
	Amount   int64
	Rules    *table.RulesPatch
	Settings *profile.SettingsPatch
}

type betPayload struct {
	Amount *int64 `json:"amount"`
}

// ParseCommand 按命令名解码 payload；不带参数的命令忽略 payload
func ParseCommand(name string, data []byte) (Command, error) {
	cmd := Command{Name: name}
	switch name {
	case CmdNewRound, CmdHit, CmdStand, CmdDouble, CmdSplit, CmdSurrender,
		CmdReset, CmdResetStats, CmdResetBankroll:
		return cmd, nil

	case CmdBet:
		var p betPayload
		if err := decode(data, &p); err != nil {
			return cmd, err
		}
		if p.Amount == nil {
			return cmd, fmt.Errorf("%w: amount required", ErrBadPayload)
		}
		cmd.Amount = *p.Amount
		return cmd, nil

	case CmdRules:
		var p table.RulesPatch
		if err := decode(data, &p); err != nil {
			return cmd, err
		}
		cmd.Rules = &p
		return cmd, nil

	case CmdSettings:
		var p profile.SettingsPatch
		if err := decode(data, &p); err != nil {
			return cmd, err
		}
		cmd.Settings = &p
		return cmd, nil
	}
	return cmd, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

func decode(data []byte, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return fmt.Errorf("%w: empty", ErrBadPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}

// apply 把命令交给引擎；调用方持有会话锁
func apply(e *engine.Engine, cmd Command) error {
	switch cmd.Name {
	case CmdNewRound:
		e.StartNewRound()
	case CmdHit:
		e.Hit()
	case CmdStand:
		e.Stand()
	case CmdDouble:
		e.Double()
	case CmdSplit:
		e.Split()
	case CmdSurrender:
		e.Surrender()
	case CmdReset:
		e.ResetGame()
	case CmdRules:
		if cmd.Rules == nil {
			return fmt.Errorf("%w: rules patch required", ErrBadPayload)
		}
		e.UpdateRules(*cmd.Rules)
	case CmdSettings:
		if cmd.Settings == nil {
			return fmt.Errorf("%w: settings patch required", ErrBadPayload)
		}
		e.UpdateSettings(*cmd.Settings)
	case CmdResetStats:
		e.ResetStats()
	case CmdBet:
		e.SetBet(cmd.Amount)
	case CmdResetBankroll:
		e.ResetBankroll()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
	}
	return nil
}
