package telegram

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseQuizStart(t *testing.T) {
	id, ok := parseQuizStart("quiz:603")
	require.True(t, ok)
	require.Equal(t, int64(603), id)

	for _, data := range []string{"quiz:", "quiz:abc", "quiz:-5", "quiz:0", "mq:1:0:0"} {
		_, ok := parseQuizStart(data)
		require.False(t, ok, "payload %q should be rejected", data)
	}
}

func TestParseMovieAnswerRoundTrip(t *testing.T) {
	event, ok := parseMovieAnswer(movieAnswerPayload("01HTOKEN", 2, 1))
	require.True(t, ok)
	require.Equal(t, movieAnswerEvent{Token: "01HTOKEN", Index: 2, Selected: 1}, event)
}

func TestParseMovieAnswerMalformed(t *testing.T) {
	for _, data := range []string{
		"mq:",
		"mq:token",
		"mq:token:1",
		"mq::1:0",
		"mq:token:x:0",
		"mq:token:1:x",
		"mq:token:-1:0",
		"mq:token:0:-1",
		"mq:token:1:0:extra",
	} {
		_, ok := parseMovieAnswer(data)
		require.False(t, ok, "payload %q should be rejected", data)
	}
}

func TestParseDailyAnswerRoundTrip(t *testing.T) {
	event, ok := parseDailyAnswer(dailyAnswerPayload("01HTOKEN", 3))
	require.True(t, ok)
	require.Equal(t, dailyAnswerEvent{Token: "01HTOKEN", Selected: 3}, event)
}

func TestParseDailyAnswerMalformed(t *testing.T) {
	for _, data := range []string{"dq:", "dq:token", "dq::1", "dq:token:x", "dq:token:-1", "dq:token:1:2"} {
		_, ok := parseDailyAnswer(data)
		require.False(t, ok, "payload %q should be rejected", data)
	}
}

func TestGenreShortcutsCoverMoods(t *testing.T) {
	require.Equal(t, 35, genreShortcuts["mood_comedy"])
	require.Equal(t, 53, genreShortcuts["genre_thriller"])
	require.Equal(t, 18, genreShortcuts["mood_drama"])
}
