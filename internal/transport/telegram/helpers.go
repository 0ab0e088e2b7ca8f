package telegram

import (
	"fmt"
	"net/url"
	"strings"

	"movie-trivia-bot/internal/domain"
)

// trailerURL links to a YouTube trailer search for the title.
func trailerURL(title string) string {
	return "https://www.youtube.com/results?search_query=" + url.QueryEscape(title+" trailer")
}

// downloadURL links to a web search for legal download options.
func downloadURL(title string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(title+" movie download")
}

// formatBoard renders leaderboard entries one per line. Users without a
// nickname show up as Anonymous.
func formatBoard(entries []domain.LeaderboardEntry) string {
	if len(entries) == 0 {
		return "Nobody has scored yet. Search a movie to get on the board!"
	}
	var b strings.Builder
	for _, e := range entries {
		name := e.Nickname
		if name == "" {
			name = "Anonymous"
		}
		fmt.Fprintf(&b, "%d. %s - %d pts %s\n", e.Rank, name, e.Score, e.Tier.Medal())
	}
	return strings.TrimRight(b.String(), "\n")
}
