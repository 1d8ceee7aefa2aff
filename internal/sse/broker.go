// Package sse fans out pipeline progress and vault changes to browser clients.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	TypeProgress     = "run.progress"
	TypeRunFinished  = "run.finished"
	TypeIndexUpdated = "index.updated"
	vaultPrefix      = "vault."
)

// historySize bounds the run frames replayed to a client that connects
// mid-run. It stays below the client buffer so replay never drops.
const (
	historySize  = 32
	clientBuffer = 64
	heartbeat    = 15 * time.Second
)

// Event is one frame on the stream.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type vaultChange struct {
	kind string
	path string
}

// Broker streams events to subscribers. Its loop goroutine owns the client
// set, the frame sequence, the run history and the index throttle.
type Broker struct {
	indexMin time.Duration

	joinCh   chan chan []byte
	leaveCh  chan chan []byte
	eventCh  chan Event
	vaultCh  chan vaultChange
	countCh  chan chan int
	stopCh   chan struct{}
	stopped  chan struct{}
	shutdown atomic.Bool
}

// NewBroker starts a broker that emits index.updated at most once per
// indexThrottle.
func NewBroker(indexThrottle time.Duration) *Broker {
	if indexThrottle <= 0 {
		indexThrottle = 2 * time.Second
	}
	b := &Broker{
		indexMin: indexThrottle,
		joinCh:   make(chan chan []byte),
		leaveCh:  make(chan chan []byte),
		eventCh:  make(chan Event, 256),
		vaultCh:  make(chan vaultChange, 256),
		countCh:  make(chan chan int),
		stopCh:   make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *Broker) loop() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var (
		seq       uint64
		history   [][]byte
		lastIndex time.Time
	)

	frame := func(e Event) []byte {
		payload, err := json.Marshal(e.Data)
		if err != nil {
			return nil
		}
		seq++
		return []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, e.Type, payload))
	}
	send := func(raw []byte) {
		for ch := range clients {
			select {
			case ch <- raw:
			default:
			}
		}
	}
	emit := func(e Event) {
		raw := frame(e)
		if raw == nil {
			return
		}
		if e.Type == TypeProgress || e.Type == TypeRunFinished {
			history = append(history, raw)
			if len(history) > historySize {
				history = history[len(history)-historySize:]
			}
		}
		send(raw)
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.joinCh:
			for _, raw := range history {
				ch <- raw
			}
			clients[ch] = struct{}{}

		case ch := <-b.leaveCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case e := <-b.eventCh:
			emit(e)

		case c := <-b.vaultCh:
			emit(Event{Type: vaultPrefix + c.kind, Data: map[string]string{"path": c.path}})
			if now := time.Now(); now.Sub(lastIndex) >= b.indexMin {
				lastIndex = now
				emit(Event{Type: TypeIndexUpdated, Data: map[string]string{}})
			}

		case resp := <-b.countCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes every subscriber channel.
func (b *Broker) Close() {
	if b.shutdown.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client. Recent run frames are queued on the
// returned channel before any live event.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.shutdown.Load() {
		close(ch)
		return ch
	}
	select {
	case b.joinCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.shutdown.Load() {
		return
	}
	select {
	case b.leaveCh <- ch:
	case <-b.stopped:
	}
}

func (b *Broker) ClientCount() int {
	if b.shutdown.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish queues an event for every client. It is a no-op after Close.
func (b *Broker) Publish(e Event) {
	if b.shutdown.Load() {
		return
	}
	select {
	case b.eventCh <- e:
	case <-b.stopped:
	}
}

// Report publishes a pipeline progress line.
func (b *Broker) Report(msg string) {
	b.Publish(Event{Type: TypeProgress, Data: map[string]string{"message": msg}})
}

// RunFinished publishes a plan result or generation summary.
func (b *Broker) RunFinished(result any) {
	b.Publish(Event{Type: TypeRunFinished, Data: result})
}

// PublishVaultEvent is the watcher callback: vault.<kind> plus a throttled
// index.updated.
func (b *Broker) PublishVaultEvent(kind, path string) {
	if b.shutdown.Load() {
		return
	}
	select {
	case b.vaultCh <- vaultChange{kind: kind, path: path}:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client until it disconnects, with a
// comment line every 15s to keep proxies from closing the connection.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(heartbeat)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
