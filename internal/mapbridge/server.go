// Package mapbridge connects the external map widget to the store over a
// websocket: the widget reports area clicks, the bridge pushes selection
// changes back.
package mapbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grovetools/areatrip/internal/store"
	"github.com/grovetools/areatrip/pkg/models"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 16
)

// Selector applies selection requests from the widget.
type Selector interface {
	Select(area models.ClickedArea)
	Clear()
}

// Server serves the bridge endpoints.
type Server struct {
	logger   *logrus.Entry
	store    *store.Store
	selector Selector
	upgrader websocket.Upgrader
	server   *http.Server

	mu          sync.Mutex
	clients     map[*client]struct{}
	unsubscribe func()
}

type client struct {
	conn *websocket.Conn
	send chan Message
}

// New creates a bridge and starts following store changes.
func New(st *store.Store, selector Selector, logger *logrus.Entry) *Server {
	s := &Server{
		logger:   logger,
		store:    st,
		selector: selector,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The widget is served from a different origin than the bridge.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
	s.unsubscribe = st.Subscribe(s.onChange)
	return s
}

// Handler returns the HTTP routes of the bridge.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/state", s.handleGetState)
	mux.HandleFunc("/ws", s.handleWebsocket)
	return mux
}

// ListenAndServe serves on addr until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.server = &http.Server{Handler: s.Handler()}
	s.logger.WithField("addr", listener.Addr().String()).Info("Map bridge listening")
	return s.server.Serve(listener)
}

// Shutdown stops the HTTP server and disconnects every widget.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down map bridge...")
	s.Close()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Close stops following the store and drops all clients.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	for c := range s.clients {
		c.conn.Close()
	}
}

// ClientCount returns the number of connected widgets.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshotOf(s.store.GetState()))
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan Message, sendBuffer)}
	c.send <- Message{Type: TypeState, State: snapshotOf(s.store.GetState())}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.logger.WithField("remote", r.RemoteAddr).Debug("Map widget connected")

	go s.writeLoop(c)
	s.readLoop(c)

	s.mu.Lock()
	delete(s.clients, c)
	close(c.send)
	s.mu.Unlock()
	s.logger.WithField("remote", r.RemoteAddr).Debug("Map widget disconnected")
}

func (s *Server) readLoop(c *client) {
	defer c.conn.Close()
	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.WithError(err).Warn("Map widget read failed")
			}
			return
		}
		switch msg.Type {
		case TypeSelect:
			if msg.Area == nil || msg.Area.ID == "" {
				s.reply(c, Message{Type: TypeError, Error: "select requires an area with an id"})
				continue
			}
			s.selector.Select(*msg.Area)
		case TypeClear:
			s.selector.Clear()
		default:
			s.reply(c, Message{Type: TypeError, Error: fmt.Sprintf("unknown message type %q", msg.Type)})
		}
	}
}

func (s *Server) writeLoop(c *client) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			s.logger.WithError(err).Debug("Map widget write failed")
			c.conn.Close()
			// Drain so senders never block on a dead client.
			for range c.send {
			}
			return
		}
	}
}

func (s *Server) reply(c *client, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
		s.logger.Warn("Map widget too slow, dropping message")
	}
}

func (s *Server) onChange(prev, next store.State) {
	if prev.Areas.ClickedArea == next.Areas.ClickedArea {
		return
	}
	s.broadcast(Message{Type: TypeClickedArea, Area: next.Areas.ClickedArea})
}

func (s *Server) broadcast(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			s.logger.Warn("Map widget too slow, dropping message")
		}
	}
}
