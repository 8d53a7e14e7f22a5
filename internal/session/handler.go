package session

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  16384,
	WriteBufferSize: 16384,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades GET /ws/asr to a WebSocket and runs the session to
// completion, grounded on the teacher's ws.Handler.ServeHTTP.
func Handler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", "error", err)
			return
		}
		sess := New(conn, deps)
		slog.Info("session started", "session_id", sess.id)
		sess.Run(r.Context())
		slog.Info("session ended", "session_id", sess.id)
	}
}
