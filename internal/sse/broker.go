// Package sse streams page change notifications to browsers as Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Page event types. TreeUpdated follows page events at most once per
// throttle interval so clients can refetch navigation without a storm.
const (
	PageCreated = "page.created"
	PageUpdated = "page.updated"
	PageDeleted = "page.deleted"
	TreeUpdated = "tree.updated"
)

// keepAlive is how often an idle stream gets a comment line so proxies keep
// the connection open.
const keepAlive = 15 * time.Second

// historySize is how many recent events are kept for clients reconnecting
// with Last-Event-ID. It never exceeds the client buffer.
const historySize = 64

// Event is one message on the stream.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// PageEvent is the payload of the page.* events.
type PageEvent struct {
	URL string `json:"url"`
}

type pageChange struct {
	kind string
	url  string
}

type subscription struct {
	ch    chan []byte
	after uint64
}

type sentEvent struct {
	id  uint64
	raw []byte
}

// Broker fans events out to connected clients.
//
// A single loop goroutine owns the client set, the event sequence, the replay
// history and the tree throttle timestamp; the public methods talk to it over
// channels.
type Broker struct {
	treeMin time.Duration

	subscribeCh   chan subscription
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	pageCh        chan pageChange
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker whose tree.updated events are throttled to one
// per treeThrottle.
func NewBroker(treeThrottle time.Duration) *Broker {
	if treeThrottle <= 0 {
		treeThrottle = 2 * time.Second
	}

	b := &Broker{
		treeMin:       treeThrottle,
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		pageCh:        make(chan pageChange, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastTree time.Time
	var seq uint64
	history := make([]sentEvent, 0, historySize)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		seq++
		raw := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, event.Type, payload))
		if len(history) == historySize {
			history = append(history[:0], history[1:]...)
		}
		history = append(history, sentEvent{id: seq, raw: raw})

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than stall the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case sub := <-b.subscribeCh:
			if sub.after > 0 {
				for _, e := range history {
					if e.id > sub.after {
						sub.ch <- e.raw
					}
				}
			}
			clients[sub.ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case c := <-b.pageCh:
			typ, ok := pageEventType(c.kind)
			if !ok {
				continue
			}
			broadcast(Event{Type: typ, Data: PageEvent{URL: c.url}})

			if now := time.Now(); now.Sub(lastTree) >= b.treeMin {
				lastTree = now
				broadcast(Event{Type: TreeUpdated, Data: struct{}{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

func pageEventType(kind string) (string, bool) {
	switch kind {
	case "created":
		return PageCreated, true
	case "updated":
		return PageUpdated, true
	case "deleted":
		return PageDeleted, true
	}
	return "", false
}

// Close stops the loop and closes every client channel. It is safe to call
// more than once.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client for future events. The channel is closed when
// the client is unsubscribed or the broker shuts down.
func (b *Broker) Subscribe() chan []byte {
	return b.Resume(0)
}

// Resume is Subscribe for a client that already saw events up to lastID:
// the retained events after it are queued first. Older events that fell out
// of the history are lost; clients refetch the tree on tree.updated.
func (b *Broker) Resume(lastID uint64) chan []byte {
	ch := make(chan []byte, historySize)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscription{ch: ch, after: lastID}:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
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

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishPageEvent reports a page change. kind is "created", "updated" or
// "deleted"; other kinds are ignored. It matches index.EventCallback.
func (b *Broker) PublishPageEvent(kind, url string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.pageCh <- pageChange{kind: kind, url: url}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	lastID, _ := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64)
	ch := b.Resume(lastID)
	defer b.Unsubscribe(ch)

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
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
