package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"voice-editor/internal/application"
	"voice-editor/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 32
)

// Controller is the editing session as seen from connected browsers.
type Controller interface {
	Press()
	Release()
	Undo()
	Clear()
	SetCredential(credential string)
	OpenProject(index int)
	CreateProject(name string)
	DeleteProject(index int)
	RenameProject(index int, name string)
	Refresh()
}

// Hub fans session output out to every connected browser and routes browser
// input into the session. It is the Surface of a web-hosted session.
type Hub struct {
	logger     zerolog.Logger
	upgrader   websocket.Upgrader
	recognizer *BrowserRecognizer

	mu         sync.Mutex
	clients    map[*client]struct{}
	capture    *client
	controller Controller
}

func NewHub(logger zerolog.Logger) *Hub {
	h := &Hub{
		logger:  logger.With().Str("component", "hub").Logger(),
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	h.recognizer = &BrowserRecognizer{hub: h}
	return h
}

// Recognizer is the speech platform backed by the capturing browser.
func (h *Hub) Recognizer() *BrowserRecognizer {
	return h.recognizer
}

// Attach sets the session that receives browser input. It must be called
// before the first connection is served.
func (h *Hub) Attach(controller Controller) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.controller = controller
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and runs the connection until it closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	controller := h.controller
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info().Str("remote_addr", r.RemoteAddr).Int("clients", count).Msg("browser connected")

	go c.writePump()
	if controller != nil {
		controller.Refresh()
	}
	c.readPump()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	wasCapture := h.capture == c
	if wasCapture {
		h.capture = nil
	}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info().Int("clients", count).Msg("browser disconnected")

	if wasCapture {
		h.recognizer.captureLost()
	}
}

func (h *Hub) broadcast(msg outbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("encoding message")
		return
	}

	h.mu.Lock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		h.logger.Warn().Msg("dropping slow browser")
		c.conn.Close()
	}
}

// sendCapture delivers msg to the browser that last pressed the talk button.
func (h *Hub) sendCapture(msg outbound) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.capture == nil {
		return false
	}
	select {
	case h.capture.send <- data:
		return true
	default:
		return false
	}
}

func (h *Hub) setCapture(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.capture = c
}

func (h *Hub) isCapture(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.capture == c
}

func (h *Hub) handle(c *client, msg inbound) {
	h.mu.Lock()
	controller := h.controller
	h.mu.Unlock()
	if controller == nil {
		return
	}

	switch msg.Type {
	case msgPress:
		h.setCapture(c)
		controller.Press()
	case msgRelease:
		controller.Release()
	case msgUndo:
		controller.Undo()
	case msgClear:
		controller.Clear()
	case msgCredentialSet:
		controller.SetCredential(msg.Credential)
	case msgProjectOpen:
		controller.OpenProject(msg.Index)
	case msgProjectCreate:
		controller.CreateProject(msg.Name)
	case msgProjectDelete:
		controller.DeleteProject(msg.Index)
	case msgProjectRename:
		controller.RenameProject(msg.Index, msg.Name)
	case msgRecognitionStarted, msgRecognitionResult, msgRecognitionEnded, msgRecognitionError, msgRecognitionUnsupported:
		if !h.isCapture(c) {
			return
		}
		h.recognizer.deliver(msg)
	default:
		h.logger.Debug().Str("type", msg.Type).Msg("ignoring unknown message")
	}
}

func (h *Hub) Render(document string) {
	h.broadcast(outbound{Type: msgRender, Document: document})
}

func (h *Hub) ShowTranscription(text string) {
	h.broadcast(outbound{Type: msgTranscription, Text: text, Visible: ptr(true)})
}

func (h *Hub) HideTranscription() {
	h.broadcast(outbound{Type: msgTranscription, Visible: ptr(false)})
}

func (h *Hub) ListeningChanged(active bool) {
	h.broadcast(outbound{Type: msgListening, Active: ptr(active)})
}

func (h *Hub) BusyChanged(busy bool) {
	h.broadcast(outbound{Type: msgBusy, Active: ptr(busy)})
}

func (h *Hub) Notify(level domain.NotifyLevel, message string) {
	h.broadcast(outbound{Type: msgNotify, Level: level, Message: message})
}

func (h *Hub) PromptCredential() {
	h.broadcast(outbound{Type: msgCredentialPrompt})
}

func (h *Hub) ProjectsChanged(projects []application.ProjectSummary, current int) {
	h.broadcast(outbound{Type: msgProjects, Projects: projects, Current: ptr(current)})
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn().Err(err).Msg("websocket read error")
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			c.hub.logger.Warn().Err(err).Msg("invalid message format")
			continue
		}
		c.hub.handle(c, msg)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
