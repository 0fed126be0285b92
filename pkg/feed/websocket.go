package feed

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// readWait bounds how long the read loop blocks waiting for a frame
// before checking for shutdown.
const readWait = 2 * time.Second

// WebSocketClient is the concrete feed transport: JSON frames over a
// single websocket. One goroutine drains the connection and feeds
// Events(); writes are serialized behind a mutex.
type WebSocketClient struct {
	url       string
	apiKey    string
	conn      *websocket.Conn
	mu        sync.Mutex
	connected bool
	events    chan Event
	logger    *logrus.Logger
}

type wsRequest struct {
	Type     string    `json:"type"`
	ReqID    int       `json:"req_id,omitempty"`
	Contract *Contract `json:"contract,omitempty"`
	Key      string    `json:"key,omitempty"`
}

type wsFrame struct {
	Type     string    `json:"type"`
	ReqID    int       `json:"req_id"`
	Field    string    `json:"field,omitempty"`
	Price    float64   `json:"price,omitempty"`
	Contract *Contract `json:"contract,omitempty"`
	Code     int       `json:"code,omitempty"`
	Msg      string    `json:"message,omitempty"`
}

func NewWebSocketClient(url, apiKey string, logger *logrus.Logger) *WebSocketClient {
	return &WebSocketClient{
		url:    url,
		apiKey: apiKey,
		events: make(chan Event, 256),
		logger: logger,
	}
}

func (ws *WebSocketClient) Connect(ctx context.Context) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.connected {
		return nil
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, ws.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to feed: %w", err)
	}

	ws.conn = conn
	ws.connected = true

	if err := conn.WriteJSON(wsRequest{Type: "auth", Key: ws.apiKey}); err != nil {
		ws.handleDisconnectLocked()
		return fmt.Errorf("failed to authenticate: %w", err)
	}

	go ws.readLoop(ctx)
	go ws.keepAlive(ctx)

	return nil
}

func (ws *WebSocketClient) Close() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.handleDisconnectLocked()
	return nil
}

func (ws *WebSocketClient) Events() <-chan Event {
	return ws.events
}

func (ws *WebSocketClient) SubscribeMarketData(id int, c Contract) error {
	return ws.send(wsRequest{Type: "subscribe", ReqID: id, Contract: &c})
}

// CancelMarketData asks the feed to drop a subscription. The feed treats
// unknown ids as a no-op, so double-cancel is harmless.
func (ws *WebSocketClient) CancelMarketData(id int) error {
	return ws.send(wsRequest{Type: "cancel", ReqID: id})
}

func (ws *WebSocketClient) RequestContractDetails(id int, c Contract) error {
	return ws.send(wsRequest{Type: "contract_details", ReqID: id, Contract: &c})
}

func (ws *WebSocketClient) send(req wsRequest) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if !ws.connected {
		return fmt.Errorf("feed not connected")
	}
	return ws.conn.WriteJSON(req)
}

func (ws *WebSocketClient) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			ws.conn.SetReadDeadline(time.Now().Add(readWait))
			var frame wsFrame
			err := ws.conn.ReadJSON(&frame)
			if err != nil {
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					continue
				}
				ws.logger.WithError(err).Error("Failed to read feed message")
				ws.handleDisconnect()
				return
			}

			ev, ok := frame.toEvent()
			if !ok {
				ws.logger.WithField("type", frame.Type).Warn("Unknown feed frame")
				continue
			}

			select {
			case ws.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (f *wsFrame) toEvent() (Event, bool) {
	switch f.Type {
	case "tick":
		field, ok := parseField(f.Field)
		if !ok {
			return Event{}, false
		}
		return Event{Type: EventTick, ReqID: f.ReqID, Field: field, Price: f.Price}, true
	case "contract":
		var c Contract
		if f.Contract != nil {
			c = *f.Contract
		}
		return Event{Type: EventContractDetails, ReqID: f.ReqID, Contract: c}, true
	case "error":
		return Event{Type: EventError, ReqID: f.ReqID, Code: f.Code, Msg: f.Msg}, true
	}
	return Event{}, false
}

func parseField(s string) (TickField, bool) {
	switch s {
	case "bid":
		return TickBid, true
	case "ask":
		return TickAsk, true
	case "last":
		return TickLast, true
	case "close":
		return TickClose, true
	}
	return 0, false
}

func (ws *WebSocketClient) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ws.mu.Lock()
			if ws.connected {
				if err := ws.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					ws.logger.WithError(err).Error("Failed to send ping")
					ws.handleDisconnectLocked()
				}
			}
			ws.mu.Unlock()
		}
	}
}

func (ws *WebSocketClient) handleDisconnect() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.handleDisconnectLocked()
}

func (ws *WebSocketClient) handleDisconnectLocked() {
	ws.connected = false
	if ws.conn != nil {
		ws.conn.Close()
	}
}
