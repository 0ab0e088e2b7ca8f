package http

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"movie-trivia-bot/internal/app"
	"movie-trivia-bot/internal/domain"
)

// WSHandler streams live leaderboard snapshots to websocket clients. The
// stream is one-way; inbound frames are read only to detect disconnects.
type WSHandler struct {
	feed     *app.LeaderboardFeed
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(feed *app.LeaderboardFeed, log *zap.Logger) *WSHandler {
	return &WSHandler{
		feed: feed,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type boardMessage struct {
	Type    string                    `json:"type"`
	Entries []domain.LeaderboardEntry `json:"entries"`
}

// ServeWS upgrades the request and forwards every published snapshot until
// the client hangs up.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates, cancel := h.feed.Subscribe()
	defer cancel()

	readerGone := make(chan struct{})
	go func() {
		defer close(readerGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case entries, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(boardMessage{Type: "leaderboard", Entries: entries}); err != nil {
				h.log.Debug("ws write failed", zap.Error(err))
				return
			}
		case <-readerGone:
			return
		}
	}
}
