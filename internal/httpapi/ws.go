package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"worldweaver/internal/spatial"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type mapMessage struct {
	Type      string             `json:"type"`
	Storylets []spatial.MapEntry `json:"storylets"`
}

// mapHub fans map layout changes out to websocket subscribers. Writes to a
// single connection are serialized through its subscriber lock.
type mapHub struct {
	mu   sync.Mutex
	subs map[*mapSubscriber]struct{}
}

type mapSubscriber struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newMapHub() *mapHub {
	return &mapHub{subs: make(map[*mapSubscriber]struct{})}
}

func (h *mapHub) add(sub *mapSubscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[sub] = struct{}{}
}

func (h *mapHub) remove(sub *mapSubscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, sub)
}

func (h *mapHub) broadcast(entries []spatial.MapEntry) {
	data, err := json.Marshal(mapMessage{Type: "map", Storylets: entries})
	if err != nil {
		log.Printf("failed to marshal map broadcast: %v", err)
		return
	}

	h.mu.Lock()
	subs := make([]*mapSubscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if err := sub.write(data); err != nil {
			h.remove(sub)
			sub.conn.Close()
		}
	}
}

func (s *mapSubscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Server) handleMapStream(w http.ResponseWriter, r *http.Request) {
	entries, err := s.game.Map(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("map stream upgrade failed: %v", err)
		return
	}

	sub := &mapSubscriber{conn: conn}

	initial, err := json.Marshal(mapMessage{Type: "map", Storylets: entries})
	if err != nil {
		log.Printf("failed to marshal initial map: %v", err)
		conn.Close()
		return
	}

	// Register before the initial write so a concurrent broadcast is never
	// lost; the subscriber lock keeps the frames ordered.
	s.hub.add(sub)
	if err := sub.write(initial); err != nil {
		s.hub.remove(sub)
		conn.Close()
		return
	}

	// Reads are discarded; the read loop only detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.remove(sub)
			conn.Close()
			return
		}
	}
}
