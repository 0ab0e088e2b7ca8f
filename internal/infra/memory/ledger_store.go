// Package memory holds the in-memory LedgerStore used in tests and
// single-process deployments without Redis.
package memory

import (
	"context"
	"sort"
	"sync"

	"movie-trivia-bot/internal/domain"
)

// LedgerStore is an in-memory implementation of app.LedgerStore. A single
// mutex serializes record access, which makes every operation, including
// IncrementScore and the reset snapshot, linearizable per user.
type LedgerStore struct {
	mu    sync.Mutex
	users map[string]*entry
	seq   int
}

type entry struct {
	record domain.UserRecord
	seq    int // insertion order, used as the deterministic rank tie-break
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{users: make(map[string]*entry)}
}

// getOrCreateLocked implicitly creates the record on first touch.
func (s *LedgerStore) getOrCreateLocked(userID string) *entry {
	if e, ok := s.users[userID]; ok {
		return e
	}
	e := &entry{record: domain.UserRecord{UserID: userID, LastTier: domain.TierFor(0)}, seq: s.seq}
	s.seq++
	s.users[userID] = e
	return e
}

func (s *LedgerStore) Get(_ context.Context, userID string) (domain.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.users[userID]
	if !ok {
		return domain.UserRecord{}, domain.ErrUserNotFound
	}
	return cloneRecord(e.record), nil
}

func (s *LedgerStore) SetNickname(_ context.Context, userID, nickname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreateLocked(userID).record.Nickname = nickname
	return nil
}

func (s *LedgerStore) SaveMovieSession(_ context.Context, userID string, session domain.QuizSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := session
	copied.Questions = append([]domain.Question(nil), session.Questions...)
	s.getOrCreateLocked(userID).record.MovieSession = &copied
	return nil
}

func (s *LedgerStore) SaveDailySession(_ context.Context, userID string, session domain.DailySession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := session
	s.getOrCreateLocked(userID).record.DailySession = &copied
	return nil
}

// SwapMovieSession advances the movie slot only while it still holds the
// token at the expected ordinal. The single mutex makes the compare and the
// write one step, so concurrent duplicates of an answer event resolve to
// exactly one true return.
func (s *LedgerStore) SwapMovieSession(_ context.Context, userID, token string, index int, next *domain.QuizSession) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.users[userID]
	if !ok || e.record.MovieSession == nil {
		return false, nil
	}
	current := e.record.MovieSession
	if current.Token != token || current.Index != index {
		return false, nil
	}
	if next == nil {
		e.record.MovieSession = nil
		return true, nil
	}
	copied := *next
	copied.Questions = append([]domain.Question(nil), next.Questions...)
	e.record.MovieSession = &copied
	return true, nil
}

// ClearSession removes the named slot and reports whether it held a live
// session. Concurrent clears for the same slot see true exactly once.
func (s *LedgerStore) ClearSession(_ context.Context, userID string, kind domain.SessionKind) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.users[userID]
	if !ok {
		return false, nil
	}
	switch kind {
	case domain.KindMovieQuiz:
		removed := e.record.MovieSession != nil
		e.record.MovieSession = nil
		return removed, nil
	case domain.KindDailyQuiz:
		removed := e.record.DailySession != nil
		e.record.DailySession = nil
		return removed, nil
	}
	return false, nil
}

func (s *LedgerStore) IncrementScore(_ context.Context, userID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.getOrCreateLocked(userID)
	e.record.Score += delta
	return e.record.Score, nil
}

func (s *LedgerStore) RankTop(_ context.Context, n int) ([]domain.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ranked := make([]*entry, 0, len(s.users))
	for _, e := range s.users {
		ranked = append(ranked, e)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].record.Score != ranked[j].record.Score {
			return ranked[i].record.Score > ranked[j].record.Score
		}
		return ranked[i].seq < ranked[j].seq
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	records := make([]domain.UserRecord, 0, len(ranked))
	for _, e := range ranked {
		records = append(records, cloneRecord(e.record))
	}
	return records, nil
}

func (s *LedgerStore) AllUsers(_ context.Context) ([]domain.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ordered := make([]*entry, 0, len(s.users))
	for _, e := range s.users {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })
	records := make([]domain.UserRecord, 0, len(ordered))
	for _, e := range ordered {
		records = append(records, cloneRecord(e.record))
	}
	return records, nil
}

// BatchResetAll snapshots and zeroes every user under the store lock, so the
// tier always reflects the pre-reset score and no concurrent increment is
// half-applied.
func (s *LedgerStore) BatchResetAll(_ context.Context, tierFor func(int) domain.Tier) ([]domain.ResetSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ordered := make([]*entry, 0, len(s.users))
	for _, e := range s.users {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })

	snapshots := make([]domain.ResetSnapshot, 0, len(ordered))
	for _, e := range ordered {
		tier := tierFor(e.record.Score)
		snapshots = append(snapshots, domain.ResetSnapshot{
			UserID:   e.record.UserID,
			Nickname: e.record.Nickname,
			Score:    e.record.Score,
			Tier:     tier,
		})
		e.record.LastScore = e.record.Score
		e.record.LastTier = tier
		e.record.Score = 0
	}
	return snapshots, nil
}

func cloneRecord(rec domain.UserRecord) domain.UserRecord {
	out := rec
	if rec.MovieSession != nil {
		sess := *rec.MovieSession
		sess.Questions = append([]domain.Question(nil), rec.MovieSession.Questions...)
		out.MovieSession = &sess
	}
	if rec.DailySession != nil {
		sess := *rec.DailySession
		out.DailySession = &sess
	}
	return out
}
