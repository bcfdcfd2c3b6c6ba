package socket

import (
	"log"

	socketio "github.com/googollee/go-socket.io"
)

// NewSocketServer initializes and returns a new Socket.IO server. Viewers
// join a per-match room and receive telemetry, score and lifecycle events
// for that match only.
func NewSocketServer() *socketio.Server {
	server := socketio.NewServer(nil)

	server.OnConnect("/", func(c socketio.Conn) error {
		log.Println("✅ Socket connected:", c.ID())
		return nil
	})

	server.OnEvent("/", "join", func(c socketio.Conn, data map[string]string) {
		matchID := data["matchId"]
		if matchID == "" {
			log.Println("❌ Invalid matchId in join request")
			return
		}
		log.Printf("👥 Viewer %s joined match %s", c.ID(), matchID)
		c.Join(MatchRoom(matchID))
	})

	server.OnEvent("/", "leave", func(c socketio.Conn, data map[string]string) {
		if matchID := data["matchId"]; matchID != "" {
			c.Leave(MatchRoom(matchID))
		}
	})

	server.OnDisconnect("/", func(c socketio.Conn, reason string) {
		log.Println("❌ Socket disconnected:", c.ID(), reason)
	})

	return server
}

// MatchRoom names the room for one match.
func MatchRoom(matchID string) string {
	return "match-" + matchID
}

// Emitter adapts the Socket.IO server to the services' emitter interface.
type Emitter struct {
	Server *socketio.Server
}

// EmitToMatch broadcasts an event to every subscriber of a match.
func (e *Emitter) EmitToMatch(matchID, event string, payload interface{}) {
	e.Server.BroadcastToRoom("/", MatchRoom(matchID), event, payload)
}
