package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"BlackjackTrainer/internal/storage"

	"github.com/charmbracelet/log"
)

// key 约定：
//
//	bj:{profile}:settings  -> JSON Settings
//	bj:{profile}:stats     -> JSON Stats
//	bj:{profile}:bankroll  -> 十进制整数
func settingsKey(id string) string { return fmt.Sprintf("bj:%s:settings", id) }
func statsKey(id string) string    { return fmt.Sprintf("bj:%s:stats", id) }
func bankrollKey(id string) string { return fmt.Sprintf("bj:%s:bankroll", id) }

// Store 三条独立记录的读写。读失败一律回退默认值，绝不向上传错误。
type Store struct {
	kv     storage.KV
	id     string
	logger *log.Logger
}

func NewStore(kv storage.KV, profileID string, logger *log.Logger) *Store {
	return &Store{kv: kv, id: profileID, logger: logger}
}

// load 读一条记录；缺失返回 false，其它错误打 warn 后也返回 false
func (s *Store) load(ctx context.Context, key string) (string, bool) {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", false
	}
	if err != nil {
		s.logger.Warn("profile read failed, using default", "key", key, "err", err)
		return "", false
	}
	return raw, true
}

func (s *Store) LoadSettings(ctx context.Context) Settings {
	raw, ok := s.load(ctx, settingsKey(s.id))
	if !ok {
		return DefaultSettings()
	}
	var st Settings
	if err := json.Unmarshal([]byte(raw), &st); err != nil || !st.Valid() {
		s.logger.Warn("malformed settings record, using default", "profile", s.id, "err", err)
		return DefaultSettings()
	}
	return st
}

func (s *Store) SaveSettings(ctx context.Context, st Settings) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, settingsKey(s.id), string(data))
}

func (s *Store) LoadStats(ctx context.Context) Stats {
	raw, ok := s.load(ctx, statsKey(s.id))
	if !ok {
		return Stats{}
	}
	var st Stats
	if err := json.Unmarshal([]byte(raw), &st); err != nil || !st.valid() {
		s.logger.Warn("malformed stats record, using default", "profile", s.id, "err", err)
		return Stats{}
	}
	return st
}

func (s *Store) SaveStats(ctx context.Context, st Stats) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, statsKey(s.id), string(data))
}

func (s *Store) LoadBankroll(ctx context.Context) int64 {
	raw, ok := s.load(ctx, bankrollKey(s.id))
	if !ok {
		return DefaultBankroll
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		s.logger.Warn("malformed bankroll record, using default", "profile", s.id, "err", err)
		return DefaultBankroll
	}
	return n
}

func (s *Store) SaveBankroll(ctx context.Context, amount int64) error {
	return s.kv.Set(ctx, bankrollKey(s.id), strconv.FormatInt(amount, 10))
}
