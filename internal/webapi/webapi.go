// Package webapi exposes the simulator's external HTTP surface: MO
// injection, registry/queue snapshots, a log-streaming websocket and
// Prometheus metrics.
package webapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smppsim/smppsim/internal/logbuf"
	"github.com/smppsim/smppsim/internal/mo"
	"github.com/smppsim/smppsim/internal/queue"
	"github.com/smppsim/smppsim/internal/registry"
)

// Logger is the minimal logging surface the handler needs.
type Logger interface {
	InfoF(msg string, params ...interface{})
	ErrorF(msg string, params ...interface{})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler bundles the dependencies the routes need.
type Handler struct {
	Registry *registry.Registry
	Queue    *queue.Queue
	Logs     *logbuf.Buffer
	Inject   chan<- mo.Message
	Logger   Logger
}

// NewRouter builds the chi router exposing every documented route.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/mo", h.postMO)
	r.Get("/sessions", h.getSessions)
	r.Get("/messages", h.getMessages)
	r.Get("/logs/stream", h.streamLogs)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

type moRequest struct {
	SourceAddr   string `json:"source_addr"`
	DestAddr     string `json:"dest_addr"`
	ShortMessage string `json:"short_message"`
}

func (h *Handler) postMO(w http.ResponseWriter, r *http.Request) {
	var req moRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	msg := mo.Message{
		SourceAddr:   req.SourceAddr,
		DestAddr:     req.DestAddr,
		ShortMessage: req.ShortMessage,
	}
	select {
	case h.Inject <- msg:
		w.WriteHeader(http.StatusAccepted)
	default:
		h.Logger.ErrorF("webapi: mo injection channel full, rejecting %s -> %s", msg.SourceAddr, msg.DestAddr)
		http.Error(w, "injection queue full", http.StatusServiceUnavailable)
	}
}

type sessionView struct {
	ID           string `json:"id"`
	SystemID     string `json:"system_id"`
	BindRole     string `json:"bind_role"`
	PeerAddr     string `json:"peer_addr"`
	AddressRange string `json:"address_range"`
}

func (h *Handler) getSessions(w http.ResponseWriter, r *http.Request) {
	entries := h.Registry.Snapshot()
	out := make([]sessionView, 0, len(entries))
	for _, e := range entries {
		out = append(out, sessionView{
			ID:           e.ID,
			SystemID:     e.SystemID,
			BindRole:     e.BindRole.String(),
			PeerAddr:     e.PeerAddr,
			AddressRange: e.AddressRange,
		})
	}
	writeJSON(w, out)
}

type messageView struct {
	MessageID    string    `json:"message_id"`
	SourceAddr   string    `json:"source_addr"`
	DestAddr     string    `json:"dest_addr"`
	ShortMessage string    `json:"short_message"`
	DataCoding   int       `json:"data_coding"`
	SessionID    string    `json:"session_id"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

type messagesResponse struct {
	Recent  []messageView `json:"recent"`
	Pending []messageView `json:"pending"`
}

func (h *Handler) getMessages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, messagesResponse{
		Recent:  toMessageViews(h.Queue.RecentSnapshot()),
		Pending: toMessageViews(h.Queue.PendingSnapshot()),
	})
}

func toMessageViews(msgs []*queue.Message) []messageView {
	out := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageView{
			MessageID:    m.MessageID,
			SourceAddr:   m.SourceAddr,
			DestAddr:     m.DestAddr,
			ShortMessage: m.ShortMessage,
			DataCoding:   m.DataCoding,
			SessionID:    m.SessionID,
			SubmittedAt:  m.SubmittedAt,
		})
	}
	return out
}

func (h *Handler) streamLogs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.ErrorF("webapi: websocket upgrade failed: %+v", err)
		return
	}
	defer conn.Close()

	for _, line := range h.Logs.Snapshot() {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			return
		}
	}

	sub, unsubscribe := h.Logs.Subscribe(64)
	defer unsubscribe()
	for line := range sub {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
