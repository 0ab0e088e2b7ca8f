package domain

import "errors"

var (
	// ErrMovieNotFound is returned when the metadata lookup has no match for a query.
	ErrMovieNotFound = errors.New("movie not found")
	// ErrNoQuiz is returned when a movie has no usable quiz signals.
	ErrNoQuiz = errors.New("no quiz available for this movie")
	// ErrNoSession is returned when a user answers without holding a session.
	ErrNoSession = errors.New("no active quiz session")
	// ErrStaleEvent marks an answer event that no longer matches stored state;
	// callers drop it without scoring.
	ErrStaleEvent = errors.New("stale or duplicate quiz event")
	// ErrUserNotFound is returned when a ledger read finds no record.
	ErrUserNotFound = errors.New("user not found")
)
