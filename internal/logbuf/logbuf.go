// Package logbuf holds a bounded ring of recent log lines and fans each new
// line out to any number of live subscribers, backing the web API's log
// streaming endpoint.
package logbuf

import "sync"

// Buffer is a fixed-capacity ring of the most recent log lines plus a set
// of subscriber channels that receive every line as it's written.
type Buffer struct {
	mu   sync.Mutex
	cap  int
	ring []string

	subs map[chan string]struct{}
}

// New creates a Buffer retaining at most capacity lines.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 200
	}
	return &Buffer{
		cap:  capacity,
		subs: make(map[chan string]struct{}),
	}
}

// WriteLine appends line to the ring and fans it out to subscribers. A
// subscriber whose channel is full has the line dropped rather than
// blocking the writer.
func (b *Buffer) WriteLine(line string) {
	b.mu.Lock()
	b.ring = append(b.ring, line)
	if len(b.ring) > b.cap {
		b.ring = b.ring[len(b.ring)-b.cap:]
	}
	for ch := range b.subs {
		select {
		case ch <- line:
		default:
		}
	}
	b.mu.Unlock()
}

// Write implements io.Writer so a Buffer can be handed to a go-kit logger
// as its output sink alongside stdout.
func (b *Buffer) Write(p []byte) (int, error) {
	b.WriteLine(string(p))
	return len(p), nil
}

// Snapshot returns a copy of the currently retained lines, oldest first.
func (b *Buffer) Snapshot() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.ring))
	copy(out, b.ring)
	return out
}

// Subscribe registers a new subscriber channel; the caller must call the
// returned function to unsubscribe when done.
func (b *Buffer) Subscribe(buf int) (<-chan string, func()) {
	ch := make(chan string, buf)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch, func() {
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}
}
