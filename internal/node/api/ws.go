package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/05nelsonm/zap-desktop/api/types"
)

// WSNotifier pushes notifications to every renderer connection as JSON text
// frames. Delivery is fire and forget: a slow or dead connection is dropped,
// never waited on.
type WSNotifier struct {
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewWSNotifier() *WSNotifier {
	return &WSNotifier{
		upgrader: websocket.Upgrader{
			// The renderer loads from file://, so there is no origin
			// to check against.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: map[*websocket.Conn]struct{}{},
	}
}

func (n *WSNotifier) Pattern() string {
	return "/v1/events"
}

func (n *WSNotifier) Method() string {
	return http.MethodGet
}

func (n *WSNotifier) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := n.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("unable to upgrade events connection")
		return
	}

	n.mu.Lock()
	n.conns[conn] = struct{}{}
	n.mu.Unlock()
	log.Info().Msgf("Renderer connected to event stream from %s", conn.RemoteAddr())

	// Inbound frames are not part of the protocol; the read loop only
	// exists to notice the peer going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				n.drop(conn)
				return
			}
		}
	}()
}

// Notify implements the controller's Notifier.
func (n *WSNotifier) Notify(notification types.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for conn := range n.conns {
		if err := conn.WriteJSON(notification); err != nil {
			log.Warn().Err(err).Msg("dropping dead event stream connection")
			delete(n.conns, conn)
			_ = conn.Close()
		}
	}
}

func (n *WSNotifier) drop(conn *websocket.Conn) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.conns[conn]; ok {
		delete(n.conns, conn)
		_ = conn.Close()
	}
}

// Close tears down all renderer connections.
func (n *WSNotifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for conn := range n.conns {
		_ = conn.Close()
	}
	n.conns = map[*websocket.Conn]struct{}{}
}
