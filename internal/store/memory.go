package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/i474232898/watch-bridge/internal/protocol"
)

var (
	// ErrNotFound is returned when no replies are queued for a device.
	ErrNotFound = errors.New("no queued replies for device")
)

// Envelope is a reply waiting for pickup, stamped with the time it was queued.
type Envelope struct {
	QueuedAt time.Time     `json:"queuedAt"`
	Message  protocol.Dict `json:"message"`
	kind     protocol.Kind
}

// Kind reports the message type of the queued reply.
func (e Envelope) Kind() protocol.Kind {
	return e.kind
}

// history holds a time-ordered list of queued replies for a device.
type history struct {
	envelopes []Envelope
}

// Outbox is a concurrency-safe in-memory queue of replies per device.
type Outbox struct {
	mu sync.RWMutex

	// key: device id
	data map[string]*history

	// retention configuration
	maxHistory int           // max number of queued replies per device
	maxAge     time.Duration // optional max age for queued replies

	now func() time.Time
}

// NewOutbox creates a new Outbox with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewOutbox(maxHistory int, maxAge time.Duration) *Outbox {
	return &Outbox{
		data:       make(map[string]*history),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Save queues a reply for a device and enforces retention.
func (s *Outbox) Save(device string, msg protocol.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.data[device]
	if !ok {
		h = &history{}
		s.data[device] = h
	}

	now := s.now()
	h.envelopes = append(h.envelopes, Envelope{QueuedAt: now, Message: msg.Dict(), kind: msg.Kind()})

	// Enforce retention by count.
	if s.maxHistory > 0 && len(h.envelopes) > s.maxHistory {
		over := len(h.envelopes) - s.maxHistory
		h.envelopes = h.envelopes[over:]
	}

	s.expire(h, now)
}

// expire drops replies older than maxAge. Callers hold the write lock.
func (s *Outbox) expire(h *history, now time.Time) {
	if s.maxAge <= 0 {
		return
	}
	cutoff := now.Add(-s.maxAge)
	i := 0
	for ; i < len(h.envelopes); i++ {
		if !h.envelopes[i].QueuedAt.Before(cutoff) {
			break
		}
	}
	h.envelopes = h.envelopes[i:]
}

// Drain returns every queued reply for a device, oldest first, and clears the queue.
func (s *Outbox) Drain(device string) ([]Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.data[device]
	if !ok {
		return nil, ErrNotFound
	}
	s.expire(h, s.now())
	if len(h.envelopes) == 0 {
		return nil, ErrNotFound
	}

	out := h.envelopes
	h.envelopes = nil
	return out, nil
}

// Latest returns the most recently queued reply for a device without removing it.
func (s *Outbox) Latest(device string) (Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.data[device]
	if !ok || len(h.envelopes) == 0 {
		return Envelope{}, ErrNotFound
	}
	return h.envelopes[len(h.envelopes)-1], nil
}

// For returns a sender that queues replies for device.
func (s *Outbox) For(device string) *DeviceSender {
	return &DeviceSender{outbox: s, device: device}
}

// DeviceSender queues replies for a single device.
type DeviceSender struct {
	outbox *Outbox
	device string
}

func (d *DeviceSender) Send(_ context.Context, msg protocol.Message) error {
	d.outbox.Save(d.device, msg)
	return nil
}
