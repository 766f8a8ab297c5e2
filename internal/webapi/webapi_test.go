package webapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smppsim/smppsim/internal/logbuf"
	"github.com/smppsim/smppsim/internal/mo"
	"github.com/smppsim/smppsim/internal/queue"
	"github.com/smppsim/smppsim/internal/registry"
	"github.com/smppsim/smppsim/internal/webapi"
)

type nopLogger struct{}

func (nopLogger) InfoF(string, ...interface{})  {}
func (nopLogger) ErrorF(string, ...interface{}) {}

func newHandler(injectCap int) (*webapi.Handler, chan mo.Message) {
	inject := make(chan mo.Message, injectCap)
	return &webapi.Handler{
		Registry: registry.New(),
		Queue:    queue.New(),
		Logs:     logbuf.New(10),
		Inject:   inject,
		Logger:   nopLogger{},
	}, inject
}

func TestPostMOAcceptsWhenChannelHasRoom(t *testing.T) {
	h, inject := newHandler(1)
	r := webapi.NewRouter(h)

	body := bytes.NewBufferString(`{"source_addr":"1000","dest_addr":"2000","short_message":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/mo", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	select {
	case msg := <-inject:
		if msg.SourceAddr != "1000" || msg.DestAddr != "2000" {
			t.Fatalf("unexpected message forwarded: %+v", msg)
		}
	default:
		t.Fatalf("expected message to land on the injection channel")
	}
}

func TestPostMORejectsWhenChannelFull(t *testing.T) {
	h, inject := newHandler(1)
	inject <- mo.Message{}
	r := webapi.NewRouter(h)

	body := bytes.NewBufferString(`{"source_addr":"1000","dest_addr":"2000","short_message":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/mo", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when injection queue is full, got %d", rec.Code)
	}
}

func TestPostMORejectsMalformedBody(t *testing.T) {
	h, _ := newHandler(1)
	r := webapi.NewRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/mo", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestGetSessionsReturnsRegistrySnapshot(t *testing.T) {
	h, _ := newHandler(1)
	h.Registry.Insert(registry.NewEntry("sess-1", "client1", registry.Transceiver, "127.0.0.1:1", "", nil))
	r := webapi.NewRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var sessions []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &sessions); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(sessions) != 1 || sessions[0]["id"] != "sess-1" {
		t.Fatalf("unexpected sessions payload: %+v", sessions)
	}
}

func TestGetMessagesReturnsRecentAndPending(t *testing.T) {
	h, _ := newHandler(1)
	h.Queue.AddPendingDR(&queue.Message{MessageID: "00000001"})
	r := webapi.NewRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/messages", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var out struct {
		Recent  []map[string]interface{} `json:"recent"`
		Pending []map[string]interface{} `json:"pending"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(out.Recent) != 1 || len(out.Pending) != 1 {
		t.Fatalf("expected one recent and one pending message, got %+v", out)
	}
}
