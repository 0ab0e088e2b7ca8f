package telegram

import (
	"strconv"
	"strings"
)

// Callback payload grammar. Payloads carry only opaque session references
// and the user's raw selection; the correct answer stays server-side.
//
//	board                      show the leaderboard
//	quiz:<movieID>             start a movie quiz
//	mq:<token>:<index>:<sel>   movie-quiz answer
//	dq:<token>:<sel>           daily-quiz answer
//	mood_* / genre_*           discovery shortcuts
//	vote_*                     acknowledged, no state change
const (
	payloadBoard      = "board"
	quizPrefix        = "quiz:"
	movieAnswerPrefix = "mq:"
	dailyAnswerPrefix = "dq:"
	votePrefix        = "vote_"
)

// genreShortcuts maps mood/genre callback keys to TMDB genre ids.
var genreShortcuts = map[string]int{
	"mood_comedy":    35,
	"mood_thriller":  53,
	"mood_drama":     18,
	"genre_comedy":   35,
	"genre_thriller": 53,
	"genre_drama":    18,
}

type movieAnswerEvent struct {
	Token    string
	Index    int
	Selected int
}

type dailyAnswerEvent struct {
	Token    string
	Selected int
}

// parseQuizStart extracts the movie id from a quiz:<id> payload.
func parseQuizStart(data string) (int64, bool) {
	raw, ok := strings.CutPrefix(data, quizPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseMovieAnswer extracts a movie-quiz answer event. Malformed payloads
// return ok=false and are ignored by the caller.
func parseMovieAnswer(data string) (movieAnswerEvent, bool) {
	raw, ok := strings.CutPrefix(data, movieAnswerPrefix)
	if !ok {
		return movieAnswerEvent{}, false
	}
	parts := strings.Split(raw, ":")
	if len(parts) != 3 || parts[0] == "" {
		return movieAnswerEvent{}, false
	}
	index, err := strconv.Atoi(parts[1])
	if err != nil || index < 0 {
		return movieAnswerEvent{}, false
	}
	selected, err := strconv.Atoi(parts[2])
	if err != nil || selected < 0 {
		return movieAnswerEvent{}, false
	}
	return movieAnswerEvent{Token: parts[0], Index: index, Selected: selected}, true
}

// parseDailyAnswer extracts a daily-quiz answer event.
func parseDailyAnswer(data string) (dailyAnswerEvent, bool) {
	raw, ok := strings.CutPrefix(data, dailyAnswerPrefix)
	if !ok {
		return dailyAnswerEvent{}, false
	}
	parts := strings.Split(raw, ":")
	if len(parts) != 2 || parts[0] == "" {
		return dailyAnswerEvent{}, false
	}
	selected, err := strconv.Atoi(parts[1])
	if err != nil || selected < 0 {
		return dailyAnswerEvent{}, false
	}
	return dailyAnswerEvent{Token: parts[0], Selected: selected}, true
}

func movieAnswerPayload(token string, index, selected int) string {
	return movieAnswerPrefix + token + ":" + strconv.Itoa(index) + ":" + strconv.Itoa(selected)
}

func dailyAnswerPayload(token string, selected int) string {
	return dailyAnswerPrefix + token + ":" + strconv.Itoa(selected)
}
