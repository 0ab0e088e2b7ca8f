// Package redis holds the Redis-backed LedgerStore.
//
// Layout:
//   - ZSET  trivia:board            member {userID}, score = period score
//   - HASH  trivia:user:{userID}    nickname, last_score, last_tier,
//     movie_session, daily_session (sessions as JSON blobs)
//
// The ZSET is the single source of truth for the score: ZINCRBY gives
// IncrementScore its per-user linearizability, and rank queries read the
// same structure, so the leaderboard can never drift from the ledger.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"movie-trivia-bot/internal/domain"
)

const (
	boardKey      = "trivia:board"
	userKeyPrefix = "trivia:user:"
)

const (
	fieldNickname     = "nickname"
	fieldLastScore    = "last_score"
	fieldLastTier     = "last_tier"
	fieldMovieSession = "movie_session"
	fieldDailySession = "daily_session"
)

// resetScript atomically snapshots one user's score into last_score and
// zeroes the board entry. A racing increment lands entirely before or
// entirely after the snapshot. The tier is written afterwards from the
// returned score so the threshold logic lives only in domain.TierFor.
var resetScript = redis.NewScript(`
local score = redis.call('ZSCORE', KEYS[1], ARGV[1])
if not score then score = '0' end
redis.call('ZADD', KEYS[1], 0, ARGV[1])
redis.call('HSET', KEYS[2], 'last_score', score)
return score
`)

// swapSessionScript is the movie-lane progression step: replace (or delete)
// the stored session only while it still carries the expected token at the
// expected ordinal. Concurrent duplicates of one answer event therefore
// resolve to a single successful swap.
var swapSessionScript = redis.NewScript(`
local raw = redis.call('HGET', KEYS[1], ARGV[1])
if not raw then return 0 end
local session = cjson.decode(raw)
if session.token ~= ARGV[2] or session.index ~= tonumber(ARGV[3]) then return 0 end
if ARGV[4] == '' then
  redis.call('HDEL', KEYS[1], ARGV[1])
else
  redis.call('HSET', KEYS[1], ARGV[1], ARGV[4])
end
return 1
`)

// LedgerStore is the Redis implementation of app.LedgerStore.
type LedgerStore struct {
	client *redis.Client
}

func NewLedgerStore(client *redis.Client) *LedgerStore {
	return &LedgerStore{client: client}
}

func userKey(userID string) string {
	return userKeyPrefix + userID
}

func (s *LedgerStore) Get(ctx context.Context, userID string) (domain.UserRecord, error) {
	pipe := s.client.Pipeline()
	scoreCmd := pipe.ZScore(ctx, boardKey, userID)
	hashCmd := pipe.HGetAll(ctx, userKey(userID))
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return domain.UserRecord{}, fmt.Errorf("read user %s: %w", userID, err)
	}

	score, err := scoreCmd.Result()
	missingScore := err == redis.Nil
	if err != nil && !missingScore {
		return domain.UserRecord{}, fmt.Errorf("read score %s: %w", userID, err)
	}
	fields := hashCmd.Val()
	if missingScore && len(fields) == 0 {
		return domain.UserRecord{}, domain.ErrUserNotFound
	}

	record := domain.UserRecord{UserID: userID, Score: int(score)}
	applyFields(&record, fields)
	return record, nil
}

func (s *LedgerStore) SetNickname(ctx context.Context, userID, nickname string) error {
	pipe := s.client.Pipeline()
	pipe.ZAddNX(ctx, boardKey, redis.Z{Score: 0, Member: userID})
	pipe.HSet(ctx, userKey(userID), fieldNickname, nickname)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *LedgerStore) SaveMovieSession(ctx context.Context, userID string, session domain.QuizSession) error {
	return s.saveSession(ctx, userID, fieldMovieSession, session)
}

func (s *LedgerStore) SaveDailySession(ctx context.Context, userID string, session domain.DailySession) error {
	return s.saveSession(ctx, userID, fieldDailySession, session)
}

func (s *LedgerStore) saveSession(ctx context.Context, userID, field string, session any) error {
	blob, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	pipe := s.client.Pipeline()
	pipe.ZAddNX(ctx, boardKey, redis.Z{Score: 0, Member: userID})
	pipe.HSet(ctx, userKey(userID), field, blob)
	_, err = pipe.Exec(ctx)
	return err
}

// SwapMovieSession runs the conditional progression script. A nil next
// clears the slot.
func (s *LedgerStore) SwapMovieSession(ctx context.Context, userID, token string, index int, next *domain.QuizSession) (bool, error) {
	blob := ""
	if next != nil {
		data, err := json.Marshal(next)
		if err != nil {
			return false, fmt.Errorf("marshal session: %w", err)
		}
		blob = string(data)
	}
	swapped, err := swapSessionScript.Run(ctx, s.client,
		[]string{userKey(userID)}, fieldMovieSession, token, index, blob).Int()
	if err != nil {
		return false, fmt.Errorf("swap session %s: %w", userID, err)
	}
	return swapped == 1, nil
}

// ClearSession removes the slot; the HDEL reply count reports whether a
// live session was claimed.
func (s *LedgerStore) ClearSession(ctx context.Context, userID string, kind domain.SessionKind) (bool, error) {
	field := fieldMovieSession
	if kind == domain.KindDailyQuiz {
		field = fieldDailySession
	}
	removed, err := s.client.HDel(ctx, userKey(userID), field).Result()
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

func (s *LedgerStore) IncrementScore(ctx context.Context, userID string, delta int) (int, error) {
	score, err := s.client.ZIncrBy(ctx, boardKey, float64(delta), userID).Result()
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", userID, err)
	}
	return int(score), nil
}

func (s *LedgerStore) RankTop(ctx context.Context, n int) ([]domain.UserRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	// Ties share a score; ZREVRANGE orders equal scores by member, which is
	// stable within one query.
	members, err := s.client.ZRevRangeWithScores(ctx, boardKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("rank top: %w", err)
	}
	return s.hydrate(ctx, members)
}

func (s *LedgerStore) AllUsers(ctx context.Context) ([]domain.UserRecord, error) {
	members, err := s.client.ZRangeWithScores(ctx, boardKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("all users: %w", err)
	}
	return s.hydrate(ctx, members)
}

// hydrate joins board members with their user hashes in one round trip.
func (s *LedgerStore) hydrate(ctx context.Context, members []redis.Z) ([]domain.UserRecord, error) {
	if len(members) == 0 {
		return nil, nil
	}
	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(members))
	for i, member := range members {
		cmds[i] = pipe.HGetAll(ctx, userKey(member.Member.(string)))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("hydrate users: %w", err)
	}

	records := make([]domain.UserRecord, 0, len(members))
	for i, member := range members {
		record := domain.UserRecord{
			UserID: member.Member.(string),
			Score:  int(member.Score),
		}
		applyFields(&record, cmds[i].Val())
		records = append(records, record)
	}
	return records, nil
}

// BatchResetAll runs the snapshot script once per user. Any store error
// aborts the run; the job is retried on its next scheduled trigger.
func (s *LedgerStore) BatchResetAll(ctx context.Context, tierFor func(int) domain.Tier) ([]domain.ResetSnapshot, error) {
	members, err := s.client.ZRange(ctx, boardKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list board: %w", err)
	}

	snapshots := make([]domain.ResetSnapshot, 0, len(members))
	for _, userID := range members {
		raw, err := resetScript.Run(ctx, s.client, []string{boardKey, userKey(userID)}, userID).Result()
		if err != nil {
			return nil, fmt.Errorf("reset %s: %w", userID, err)
		}
		score, err := scriptScore(raw)
		if err != nil {
			return nil, fmt.Errorf("reset %s: %w", userID, err)
		}

		tier := tierFor(score)
		nickname, err := s.client.HGet(ctx, userKey(userID), fieldNickname).Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("reset %s: %w", userID, err)
		}
		if err := s.client.HSet(ctx, userKey(userID), fieldLastTier, string(tier)).Err(); err != nil {
			return nil, fmt.Errorf("reset %s: %w", userID, err)
		}

		snapshots = append(snapshots, domain.ResetSnapshot{
			UserID:   userID,
			Nickname: nickname,
			Score:    score,
			Tier:     tier,
		})
	}
	return snapshots, nil
}

func applyFields(record *domain.UserRecord, fields map[string]string) {
	record.Nickname = fields[fieldNickname]
	if raw := fields[fieldLastScore]; raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			record.LastScore = int(v)
		}
	}
	if raw := fields[fieldLastTier]; raw != "" {
		record.LastTier = domain.Tier(raw)
	}
	if blob := fields[fieldMovieSession]; blob != "" {
		var session domain.QuizSession
		if err := json.Unmarshal([]byte(blob), &session); err == nil {
			record.MovieSession = &session
		}
	}
	if blob := fields[fieldDailySession]; blob != "" {
		var session domain.DailySession
		if err := json.Unmarshal([]byte(blob), &session); err == nil {
			record.DailySession = &session
		}
	}
}

// scriptScore normalizes the Lua return value, which can surface as a
// string or an integer depending on the server.
func scriptScore(raw any) (int, error) {
	switch v := raw.(type) {
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("parse script score %q: %w", v, err)
		}
		return int(f), nil
	case int64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("unexpected script score type %T", raw)
	}
}
