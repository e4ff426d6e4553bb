package server

import (
	"bufio"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
)

// heartbeatInterval keeps idle SSE connections from being reaped by proxies
// and lets dead clients surface as write errors.
const heartbeatInterval = 30 * time.Second

// LiveReloadHub fans successful-build notifications out to connected
// browsers over SSE. Each event carries a token (the output tree hash); the
// client script reloads when the token changes.
type LiveReloadHub struct {
	mu        sync.RWMutex
	nextID    int
	clients   map[int]*reloadClient
	rec       metrics.Recorder
	closed    bool
	lastToken string
}

type reloadClient struct {
	id   int
	ch   chan string
	done chan struct{}
}

// NewLiveReloadHub creates a hub. A nil recorder disables client metrics.
func NewLiveReloadHub(rec metrics.Recorder) *LiveReloadHub {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &LiveReloadHub{clients: map[int]*reloadClient{}, rec: rec}
}

// ServeHTTP implements the SSE endpoint at /livereload.
func (h *LiveReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &reloadClient{ch: make(chan string, 8), done: make(chan struct{})}
	h.mu.Lock()
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	current := h.lastToken
	count := len(h.clients)
	h.mu.Unlock()
	h.rec.SetReloadClients(count)

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(": connected\n\n"); err != nil {
		h.removeClient(client.id)
		return
	}
	// Send the current token so the client can establish its baseline.
	if current != "" {
		if _, err := bw.WriteString("data: {\"token\":\"" + current + "\"}\n\n"); err != nil {
			h.removeClient(client.id)
			return
		}
	}
	if err := bw.Flush(); err == nil {
		flusher.Flush()
	}

	hb := time.NewTicker(heartbeatInterval)
	defer hb.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.removeClient(client.id)
			return
		case <-client.done:
			return
		case <-hb.C:
			if _, err := bw.WriteString(": ping\n\n"); err != nil {
				h.removeClient(client.id)
				return
			}
			_ = bw.Flush()
			flusher.Flush()
		case token := <-client.ch:
			if _, err := bw.WriteString("data: {\"token\":\"" + token + "\"}\n\n"); err != nil {
				h.removeClient(client.id)
				return
			}
			_ = bw.Flush()
			flusher.Flush()
		}
	}
}

func (h *LiveReloadHub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
		h.rec.SetReloadClients(len(h.clients))
	}
}

// Broadcast sends a new token to every client. A repeated token is a no-op,
// so re-broadcasting an unchanged build never reloads browsers. Clients whose
// buffers are full are dropped; they reconnect on their own.
func (h *LiveReloadHub) Broadcast(token string) {
	h.mu.Lock()
	if h.closed || token == "" || token == h.lastToken {
		h.mu.Unlock()
		return
	}
	h.lastToken = token
	snapshot := make([]*reloadClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- token:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	slog.Debug("livereload broadcast", logfields.Clients(len(snapshot)), slog.Int("dropped", dropped))
}

// ClientCount returns the number of connected browsers.
func (h *LiveReloadHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown disconnects every client and rejects future connections.
func (h *LiveReloadHub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*reloadClient{}
	h.mu.Unlock()

	for _, c := range clients {
		close(c.done)
	}
	h.rec.SetReloadClients(0)
}

// LiveReloadScript is served at /livereload.js and injected into HTML
// responses. It reloads the page whenever the server announces a token that
// differs from the one seen at connect time.
const LiveReloadScript = `(() => {
  if (window.__SITEGEN_LR__) return;
  window.__SITEGEN_LR__ = true;
  function connect() {
    const es = new EventSource('/livereload');
    let first = true;
    let current = null;
    es.onmessage = (e) => {
      try {
        const p = JSON.parse(e.data);
        if (first) { current = p.token; first = false; return; }
        if (p.token && p.token !== current) {
          console.log('[sitegen] change detected, reloading');
          location.reload();
        }
      } catch (_) {}
    };
    es.onerror = () => {
      console.warn('[sitegen] livereload error - retrying');
      es.close();
      setTimeout(connect, 2000);
    };
  }
  connect();
})();
`
