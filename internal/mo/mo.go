// Package mo implements mobile-originated traffic injection: a web-fed
// channel of ad hoc messages plus an optional rate-limited CSV replay feed,
// both dispatched to whichever bound session's address_range matches the
// destination.
package mo

import (
	"bufio"
	"context"
	"encoding/hex"
	"os"
	"strings"
	"time"

	"github.com/smppsim/smppsim/internal/metrics"
	"github.com/smppsim/smppsim/internal/pdu"
	"github.com/smppsim/smppsim/internal/registry"
)

// Message is one mobile-originated short message awaiting dispatch.
type Message struct {
	SourceAddr   string
	DestAddr     string
	ShortMessage string
}

// Config configures the optional CSV replay feed. Rate of 0 disables it.
type Config struct {
	Enabled       bool
	RatePerMinute int
	FilePath      string
}

// Logger is the minimal logging surface the service needs.
type Logger interface {
	InfoF(msg string, params ...interface{})
	ErrorF(msg string, params ...interface{})
}

// Service drains an injection channel and, if configured, replays a CSV
// file at a fixed rate, dispatching both to the registry's subscriber
// lookup.
type Service struct {
	conf     Config
	inject   <-chan Message
	registry *registry.Registry
	log      Logger
}

// New builds a Service. inject is the web layer's injection channel.
func New(conf Config, inject <-chan Message, r *registry.Registry, log Logger) *Service {
	return &Service{conf: conf, inject: inject, registry: r, log: log}
}

// Run blocks until ctx is cancelled, running the injection drain and (if
// enabled) the CSV feed concurrently.
func (s *Service) Run(ctx context.Context) error {
	if !s.conf.Enabled {
		s.log.InfoF("mo: service disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	errCh := make(chan error, 2)
	go func() { errCh <- s.drainInjected(ctx) }()
	go func() { errCh <- s.runCSVFeed(ctx) }()

	<-ctx.Done()
	return ctx.Err()
}

func (s *Service) drainInjected(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-s.inject:
			if !ok {
				return nil
			}
			s.dispatch(msg)
		}
	}
}

func (s *Service) runCSVFeed(ctx context.Context) error {
	if s.conf.RatePerMinute <= 0 {
		return nil
	}
	period := time.Duration(60000/s.conf.RatePerMinute) * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		f, err := os.Open(s.conf.FilePath)
		if err != nil {
			s.log.ErrorF("mo: failed to open %s: %+v", s.conf.FilePath, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(10 * time.Second):
			}
			continue
		}

		if err := s.replayFile(ctx, f, period); err != nil {
			f.Close()
			return err
		}
		f.Close()
		s.log.InfoF("mo: csv feed %s exhausted, restarting", s.conf.FilePath)
	}
}

func (s *Service) replayFile(ctx context.Context, f *os.File, period time.Duration) error {
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		msg, ok := parseCSVLine(trimmed)
		if !ok {
			continue
		}
		s.dispatch(msg)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(period):
		}
	}
	return nil
}

// parseCSVLine splits "source,dest,message,with,commas" into source, dest
// and message, where message is everything after the second comma with
// embedded commas preserved.
func parseCSVLine(line string) (Message, bool) {
	first := strings.IndexByte(line, ',')
	if first < 0 {
		return Message{}, false
	}
	rest := line[first+1:]
	second := strings.IndexByte(rest, ',')
	if second < 0 {
		return Message{}, false
	}
	return Message{
		SourceAddr:   strings.TrimSpace(line[:first]),
		DestAddr:     strings.TrimSpace(rest[:second]),
		ShortMessage: rest[second+1:],
	}, true
}

func (s *Service) dispatch(msg Message) {
	entry, ok := s.registry.FindSubscriber(msg.DestAddr)
	if !ok {
		metrics.MoDropped.Inc()
		s.log.ErrorF("mo: no subscriber session for dest %s", msg.DestAddr)
		return
	}

	deliver := buildDeliverSm(msg)
	select {
	case entry.Outbound <- deliver:
		metrics.MoDispatched.Inc()
		s.log.InfoF("mo: delivered %s -> %s via session %s", msg.SourceAddr, msg.DestAddr, entry.ID)
	default:
		metrics.MoDropped.Inc()
		s.log.ErrorF("mo: outbound channel full or closed for session %s, dropping", entry.ID)
	}
}

// buildDeliverSm decodes a "0x"-prefixed short_message as hex into an 8-bit
// binary payload; anything else is transmitted as its literal bytes.
// data_coding stays at its default in both cases - only the payload bytes
// change for a hex-encoded record.
func buildDeliverSm(msg Message) *pdu.DeliverSm {
	short := msg.ShortMessage
	if strings.HasPrefix(short, "0x") {
		if decoded, err := hex.DecodeString(short[2:]); err == nil {
			short = string(decoded)
		}
	}
	return &pdu.DeliverSm{
		SourceAddr:      msg.SourceAddr,
		DestinationAddr: msg.DestAddr,
		ShortMessage:    short,
	}
}
