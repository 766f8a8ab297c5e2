// Package lifecycle drives the delivery-receipt state machine: on a fixed
// tick it samples pending messages, rolls an outcome per the configured
// percentages, and pushes a delivery-receipt DeliverSm back to the
// submitting session.
package lifecycle

import (
	"context"
	"math/rand"
	"time"

	"github.com/smppsim/smppsim/internal/metrics"
	"github.com/smppsim/smppsim/internal/pdu"
	"github.com/smppsim/smppsim/internal/queue"
	"github.com/smppsim/smppsim/internal/registry"
)

// Config parameterizes the engine's tick frequency, enroute deadline and
// outcome percentages.
type Config struct {
	CheckFrequency     time.Duration
	MaxTimeEnroute     time.Duration
	PercentDelivered   int
	PercentUndeliv     int
	PercentAccepted    int
	PercentRejected    int
}

// DefaultConfig mirrors the simulator's documented defaults.
func DefaultConfig() Config {
	return Config{
		CheckFrequency:   5000 * time.Millisecond,
		MaxTimeEnroute:   10000 * time.Millisecond,
		PercentDelivered: 90,
		PercentUndeliv:   6,
		PercentAccepted:  2,
		PercentRejected:  2,
	}
}

// Logger is the minimal logging surface the engine needs.
type Logger interface {
	InfoF(msg string, params ...interface{})
	ErrorF(msg string, params ...interface{})
}

// Engine is the periodic worker. It holds no lock across a channel send:
// each tick snapshots pending_dr, decides outcomes, and pushes PDUs.
type Engine struct {
	conf     Config
	queue    *queue.Queue
	registry *registry.Registry
	log      Logger
	rng      *rand.Rand
}

// New builds an Engine. q and r must outlive the engine.
func New(conf Config, q *queue.Queue, r *registry.Registry, log Logger) *Engine {
	return &Engine{
		conf:     conf,
		queue:    q,
		registry: r,
		log:      log,
		// Seeded from wall-clock time at construction; the draw only needs to
		// be unpredictable across runs, not cryptographically secure.
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run ticks until ctx is cancelled. Blocking.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.conf.CheckFrequency)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.tick()
		}
	}
}

func (e *Engine) tick() {
	for _, msg := range e.queue.PendingSnapshot() {
		if time.Since(msg.SubmittedAt) < e.conf.MaxTimeEnroute {
			continue
		}
		stat := e.roll()
		e.deliver(msg, stat)
		e.queue.RemovePendingDR(msg.MessageID)
	}
}

// roll draws a uniform integer in [0,100) and buckets it against the
// configured percentages in Delivered -> Undeliverable -> Accepted ->
// Rejected order. Percentages summing under 100 fall through to Delivered.
func (e *Engine) roll() string {
	n := e.rng.Intn(100)
	cumulative := 0

	cumulative += e.conf.PercentDelivered
	if n < cumulative {
		return "DELIVRD"
	}
	cumulative += e.conf.PercentUndeliv
	if n < cumulative {
		return "UNDELIV"
	}
	cumulative += e.conf.PercentAccepted
	if n < cumulative {
		return "ACCEPTD"
	}
	cumulative += e.conf.PercentRejected
	if n < cumulative {
		return "REJECTD"
	}
	return "DELIVRD"
}

func (e *Engine) deliver(msg *queue.Message, stat string) {
	entry, ok := e.registry.Get(msg.SessionID)
	if !ok {
		e.log.ErrorF("lifecycle: session %s not found for message %s", msg.SessionID, msg.MessageID)
		return
	}

	receipt := buildReceipt(msg, stat)
	select {
	case entry.Outbound <- receipt:
		metrics.ReceiptsEmitted.WithLabelValues(stat).Inc()
		e.log.InfoF("lifecycle: sent %s receipt for %s to session %s", stat, msg.MessageID, msg.SessionID)
	default:
		e.log.ErrorF("lifecycle: outbound channel full or closed, dropping receipt for %s", msg.MessageID)
	}
}

func buildReceipt(msg *queue.Message, stat string) *pdu.DeliverSm {
	now := time.Now()
	text := msg.ShortMessage
	if len(text) > 20 {
		text = text[:20]
	}
	dr := pdu.DeliveryReceipt{
		Id:         msg.MessageID,
		Sub:        "001",
		Dlvrd:      "001",
		SubmitDate: now,
		DoneDate:   now,
		Stat:       pdu.DelStat(stat),
		Err:        "000",
		Text:       text,
	}
	return &pdu.DeliverSm{
		SourceAddr:      msg.DestAddr,
		DestinationAddr: msg.SourceAddr,
		ShortMessage:    dr.String(),
	}
}
