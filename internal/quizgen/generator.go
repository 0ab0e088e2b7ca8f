// Package quizgen builds multiple-choice questions from movie metadata.
// Generation is pure given a rand source: one question per available signal
// (genre, cast, synopsis), at most three in total.
package quizgen

import (
	"fmt"
	"math/rand"
	"strings"

	"movie-trivia-bot/internal/domain"
)

// genreDistractors is the fixed pool mixed in with the real genre.
var genreDistractors = []string{"Comedy", "Romance", "Sci-Fi", "Horror"}

// clozeVocabulary is the fixed option set for the synopsis question. The
// answer is always "conflict"; this mirrors the product behaviour and is not
// meant to be a strong signal.
var clozeVocabulary = []string{"plot", "conflict", "resolution", "twist"}

const clozeAnswer = "conflict"

// minCastSize is the billing depth required before a cast question is emitted.
const minCastSize = 3

// Generate returns 0-3 questions for the movie. Option order is randomized
// once here; the answer index tracks the shuffle. The question order itself
// is shuffled too, so the lineup is not always genre, cast, synopsis.
// An empty result means no quiz can be built for this movie.
func Generate(movie domain.MovieDetail, rnd *rand.Rand) []domain.Question {
	var questions []domain.Question

	if len(movie.Genres) > 0 {
		questions = append(questions, genreQuestion(movie))
	}
	if len(movie.Cast) >= minCastSize {
		questions = append(questions, castQuestion(movie))
	}
	if strings.TrimSpace(movie.Overview) != "" {
		questions = append(questions, clozeQuestion(movie))
	}

	for i := range questions {
		shuffleOptions(&questions[i], rnd)
	}
	rnd.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	return questions
}

// genreQuestion asks for the movie's primary genre against fixed distractors.
// A distractor equal to the real genre is skipped so options stay distinct.
func genreQuestion(movie domain.MovieDetail) domain.Question {
	correct := movie.Genres[0]
	options := []string{correct}
	for _, d := range genreDistractors {
		if len(options) == 4 {
			break
		}
		if !strings.EqualFold(d, correct) {
			options = append(options, d)
		}
	}
	return domain.Question{
		Prompt:  fmt.Sprintf("What's a genre of %q?", movie.Title),
		Options: options,
		Answer:  0,
	}
}

// castQuestion lists the top four billed names; the top-billed slot is the
// correct one before shuffling.
func castQuestion(movie domain.MovieDetail) domain.Question {
	top := movie.Cast
	if len(top) > 4 {
		top = top[:4]
	}
	options := make([]string, len(top))
	copy(options, top)
	return domain.Question{
		Prompt:  fmt.Sprintf("Who stars in %q?", movie.Title),
		Options: options,
		Answer:  0,
	}
}

// clozeQuestion quotes a slice of the synopsis and asks for the missing word.
func clozeQuestion(movie domain.MovieDetail) domain.Question {
	words := strings.Fields(movie.Overview)
	hi := 10
	if hi > len(words) {
		hi = len(words)
	}
	lo := 3
	if lo > hi {
		lo = 0
	}
	sample := strings.Join(words[lo:hi], " ")

	options := make([]string, len(clozeVocabulary))
	copy(options, clozeVocabulary)
	answer := 0
	for i, w := range options {
		if w == clozeAnswer {
			answer = i
		}
	}
	return domain.Question{
		Prompt:  fmt.Sprintf("Complete this: “…%s ___.”", sample),
		Options: options,
		Answer:  answer,
	}
}

// shuffleOptions randomizes option order in place and keeps Answer pointing
// at the correct text.
func shuffleOptions(q *domain.Question, rnd *rand.Rand) {
	correct := q.Options[q.Answer]
	rnd.Shuffle(len(q.Options), func(i, j int) {
		q.Options[i], q.Options[j] = q.Options[j], q.Options[i]
	})
	for i, opt := range q.Options {
		if opt == correct {
			q.Answer = i
			return
		}
	}
}
