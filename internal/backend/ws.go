/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// jobEvent is the message broadcast to every connected client while
// export jobs run. Clients use it to drive progress UI without polling.
type jobEvent struct {
	JobID    string `json:"job_id"`
	Status   string `json:"status"` // started, finished, error
	Format   string `json:"format"`
	Project  string `json:"project,omitempty"`
	Filename string `json:"filename,omitempty"`
	Size     int    `json:"size,omitempty"`
	Error    string `json:"error,omitempty"`
	At       string `json:"at"`
}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
)

// jobHub fans job events out to websocket subscribers. Slow clients
// get dropped rather than blocking the export handlers.
type jobHub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan jobEvent
}

func newJobHub(log *slog.Logger) *jobHub {
	return &jobHub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin policy is enforced by the CORS middleware;
			// the handshake accepts any origin the router let through.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
	}
}

func (h *jobHub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", slog.Any("err", err))
		return
	}
	c := &wsClient{conn: conn, send: make(chan jobEvent, 16)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("job stream client connected", slog.Int("clients", n))

	go h.writePump(c)
	h.readPump(c)
}

// readPump drains the connection so ping/pong and close frames are
// processed; clients never send application messages.
func (h *jobHub) readPump(c *wsClient) {
	defer h.drop(c)
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *jobHub) writePump(c *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		h.drop(c)
	}()
	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *jobHub) drop(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}

func (h *jobHub) broadcast(ev jobEvent) {
	ev.At = time.Now().UTC().Format(time.RFC3339)
	h.mu.Lock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			// Buffer full: the client stopped reading, cut it loose.
			delete(h.clients, c)
			close(c.send)
			_ = c.conn.Close()
		}
	}
	h.mu.Unlock()
}

func (h *jobHub) publishStarted(format, project string) string {
	id := uuid.NewString()
	h.broadcast(jobEvent{JobID: id, Status: "started", Format: format, Project: project})
	return id
}

func (h *jobHub) publishFinished(jobID, format, filename string, size int) {
	h.broadcast(jobEvent{JobID: jobID, Status: "finished", Format: format, Filename: filename, Size: size})
}

func (h *jobHub) publishError(jobID, format string, err error) {
	h.broadcast(jobEvent{JobID: jobID, Status: "error", Format: format, Error: err.Error()})
}

// closeAll disconnects every subscriber; used during server shutdown.
func (h *jobHub) closeAll() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		_ = c.conn.Close()
	}
	h.mu.Unlock()
}
