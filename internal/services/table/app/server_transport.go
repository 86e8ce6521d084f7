package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/louisbranch/duskroll/internal/platform/timeouts"
	"github.com/louisbranch/duskroll/internal/table"
	"golang.org/x/net/websocket"
)

type wsFrame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type wsErrorEnvelope struct {
	Error wsError `json:"error"`
}

type wsError struct {
	Code      string `json:"code"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type wsPeer struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	encoder *json.Encoder
}

func newWSPeer(conn *websocket.Conn) *wsPeer {
	return &wsPeer{conn: conn, encoder: json.NewEncoder(conn)}
}

func (p *wsPeer) writeFrame(frame wsFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		_ = p.conn.SetWriteDeadline(time.Now().Add(timeouts.FrameWrite))
	}
	return p.encoder.Encode(frame)
}

// peerHub tracks every open connection and delivers coordinator notices.
type peerHub struct {
	mu    sync.RWMutex
	peers map[table.ConnectionID]*wsPeer
}

func newPeerHub() *peerHub {
	return &peerHub{peers: make(map[table.ConnectionID]*wsPeer)}
}

func (h *peerHub) add(conn table.ConnectionID, peer *wsPeer) {
	h.mu.Lock()
	h.peers[conn] = peer
	h.mu.Unlock()
}

func (h *peerHub) remove(conn table.ConnectionID) {
	h.mu.Lock()
	delete(h.peers, conn)
	h.mu.Unlock()
}

func (h *peerHub) resolve(notice table.Notice) []*wsPeer {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if notice.Broadcast {
		peers := make([]*wsPeer, 0, len(h.peers))
		for _, peer := range h.peers {
			peers = append(peers, peer)
		}
		return peers
	}
	peers := make([]*wsPeer, 0, len(notice.Targets))
	for _, conn := range notice.Targets {
		if peer, ok := h.peers[conn]; ok {
			peers = append(peers, peer)
		}
	}
	return peers
}

// Notify implements table.Notifier. Write failures are dropped; the failing
// connection's read loop ends and runs the disconnect cleanup.
func (h *peerHub) Notify(notices []table.Notice) {
	for _, notice := range notices {
		frame := wsFrame{Type: string(notice.Event), Payload: mustJSON(notice.Payload)}
		for _, peer := range h.resolve(notice) {
			if err := peer.writeFrame(frame); err != nil {
				log.Printf("table: deliver %s failed: %v", notice.Event, err)
			}
		}
	}
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("table: marshal websocket frame payload: %v", err)
		return nil
	}
	return b
}

func (h *peerHub) closeAll() {
	h.mu.RLock()
	peers := make([]*wsPeer, 0, len(h.peers))
	for _, peer := range h.peers {
		peers = append(peers, peer)
	}
	h.mu.RUnlock()

	for _, peer := range peers {
		if peer.conn != nil {
			_ = peer.conn.Close()
		}
	}
}
