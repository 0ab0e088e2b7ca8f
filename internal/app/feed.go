package app

import (
	"sync"

	"movie-trivia-bot/internal/domain"
)

// LeaderboardFeed fans leaderboard snapshots out to live subscribers (the
// /ws endpoint). Slow subscribers have their stale snapshot dropped rather
// than blocking the publisher.
type LeaderboardFeed struct {
	mu          sync.Mutex
	subscribers map[chan []domain.LeaderboardEntry]struct{}
	last        []domain.LeaderboardEntry
}

func NewLeaderboardFeed() *LeaderboardFeed {
	return &LeaderboardFeed{
		subscribers: make(map[chan []domain.LeaderboardEntry]struct{}),
	}
}

// Subscribe registers a listener and immediately delivers the last snapshot,
// if any. The caller must invoke the returned cancel function to avoid leaks.
func (f *LeaderboardFeed) Subscribe() (<-chan []domain.LeaderboardEntry, func()) {
	ch := make(chan []domain.LeaderboardEntry, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	if f.last != nil {
		ch <- f.last
	}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a snapshot to every subscriber.
func (f *LeaderboardFeed) Publish(entries []domain.LeaderboardEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = entries
	for ch := range f.subscribers {
		select {
		case ch <- entries:
		default:
			// Drop the stale snapshot so the newest one always fits.
			select {
			case <-ch:
			default:
			}
			ch <- entries
		}
	}
}
