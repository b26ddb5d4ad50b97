package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/msto63/wtf/pkg/core/logging"
)

const (
	wsReadTimeout  = 120 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// WebSocketHandler answers lookups over a WebSocket connection
type WebSocketHandler struct {
	handler  *Handler
	upgrader websocket.Upgrader
	logger   *logging.Logger

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewWebSocketHandler creates a new WebSocket handler that resolves lookups
// through h
func NewWebSocketHandler(h *Handler) *WebSocketHandler {
	return &WebSocketHandler{
		handler: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Callers authenticate with a token, not cookies
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logging.New("wtf-websocket"),
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string          `json:"type"`    // "lookup", "ping"
	Payload json.RawMessage `json:"payload"` // Message-specific payload
}

// WSLookupPayload represents the lookup message payload
type WSLookupPayload struct {
	Text string `json:"text"`
}

// WSResponse represents a WebSocket response
type WSResponse struct {
	Type    string      `json:"type"` // "result", "error", "pong"
	Payload interface{} `json:"payload"`
}

// WSResultPayload represents a lookup result payload
type WSResultPayload struct {
	Query string `json:"query"`
	Found bool   `json:"found"`
	Text  string `json:"text"`
}

// WSErrorPayload represents an error payload
type WSErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeHTTP authenticates the caller and upgrades the connection
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.handler.authorized(requestToken(r)) {
		h.handler.writeError(w, http.StatusUnauthorized, "unauthorized", "Not authorized", "")
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		h.handler.writeError(w, http.StatusServiceUnavailable, "shutting_down", "Server is shutting down", "")
		return
	}
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}
	if !h.track(conn) {
		conn.Close()
		return
	}
	defer h.untrack(conn)

	h.handleConnection(r, conn)
}

func (h *WebSocketHandler) track(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[conn] = struct{}{}
	return true
}

func (h *WebSocketHandler) untrack(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

// Shutdown closes all open connections, refuses new ones and waits until
// every connection handler has returned or ctx ends.
func (h *WebSocketHandler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	for conn := range h.conns {
		conn.Close()
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handleConnection serves one connection until the peer goes away. Messages
// are answered in order.
func (h *WebSocketHandler) handleConnection(r *http.Request, conn *websocket.Conn) {
	defer conn.Close()

	h.logger.Info("WebSocket connection established", "remote", conn.RemoteAddr().String())

	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Error("WebSocket read error", "error", err)
			} else {
				h.logger.Info("WebSocket connection closed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		switch msg.Type {
		case "ping":
			h.sendResponse(conn, WSResponse{Type: "pong", Payload: nil})

		case "lookup":
			var payload WSLookupPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				h.sendError(conn, "invalid_payload", "Invalid lookup payload")
				continue
			}

			result, err := h.handler.lookup(r.Context(), payload.Text)
			if err != nil {
				h.sendError(conn, "source_unavailable", "Failed to fetch acronyms")
				continue
			}
			h.sendResponse(conn, WSResponse{
				Type: "result",
				Payload: WSResultPayload{
					Query: result.Query,
					Found: result.Found(),
					Text:  result.String(),
				},
			})

		default:
			h.sendError(conn, "unknown_type", "Unknown message type: "+msg.Type)
		}
	}
}

// sendResponse sends a response message via WebSocket
func (h *WebSocketHandler) sendResponse(conn *websocket.Conn, resp WSResponse) {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(resp); err != nil {
		h.logger.Error("WebSocket send error", "error", err)
	}
}

// sendError sends an error response via WebSocket
func (h *WebSocketHandler) sendError(conn *websocket.Conn, code, message string) {
	h.sendResponse(conn, WSResponse{
		Type: "error",
		Payload: WSErrorPayload{
			Code:    code,
			Message: message,
		},
	})
}
