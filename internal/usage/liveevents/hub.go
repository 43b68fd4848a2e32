package liveevents

import (
	"errors"
	"strings"
	"sync"
)

const (
	SourceAPI       = "api"
	SourceSimulator = "simulator"
	SourceTestData  = "testdata"
)

const (
	DefaultBufferSize       = 50
	DefaultSubscriberBuffer = 16
)

var ErrInvalidRoom = errors.New("invalid_room_id")

// Reading is the live feed view of a recorded reading.
type Reading struct {
	ID             string  `json:"id"`
	RoomID         string  `json:"room_id"`
	DeviceID       string  `json:"device_id"`
	EnergyConsumed float64 `json:"energy_consumed"`
	RecordedAt     string  `json:"recorded_at"`
	Source         string  `json:"source"`
}

// Hub fans out readings per room. Each room keeps a bounded backlog so new
// subscribers see the most recent readings. Slow subscribers miss events
// instead of blocking publishers.
type Hub struct {
	mu               sync.RWMutex
	rooms            map[string]*room
	bufferSize       int
	subscriberBuffer int
}

type room struct {
	mu      sync.Mutex
	backlog []Reading
	subs    map[uint64]chan Reading
	nextID  uint64
}

type Subscription struct {
	hub    *Hub
	roomID string
	id     uint64
	ch     chan Reading
	once   sync.Once
}

func NewHub() *Hub {
	return &Hub{
		rooms:            make(map[string]*room),
		bufferSize:       DefaultBufferSize,
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

func (h *Hub) Publish(reading Reading) {
	if h == nil {
		return
	}
	roomID := strings.TrimSpace(reading.RoomID)
	if roomID == "" {
		return
	}

	r := h.room(roomID)
	r.mu.Lock()
	r.backlog = append(r.backlog, reading)
	if len(r.backlog) > h.bufferSize {
		r.backlog = r.backlog[len(r.backlog)-h.bufferSize:]
	}
	subs := make([]chan Reading, 0, len(r.subs))
	for _, ch := range r.subs {
		subs = append(subs, ch)
	}
	r.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- reading:
		default:
		}
	}
}

// Subscribe returns a live subscription and a copy of the room backlog.
func (h *Hub) Subscribe(roomID string) (*Subscription, []Reading, error) {
	if h == nil {
		return nil, nil, errors.New("hub_unavailable")
	}
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, nil, ErrInvalidRoom
	}

	r := h.room(roomID)
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	ch := make(chan Reading, h.subscriberBuffer)
	r.subs[id] = ch
	backlog := append([]Reading(nil), r.backlog...)
	r.mu.Unlock()

	return &Subscription{hub: h, roomID: roomID, id: id, ch: ch}, backlog, nil
}

// Subscribers reports the number of open subscriptions for a room.
func (h *Hub) Subscribers(roomID string) int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	r := h.rooms[strings.TrimSpace(roomID)]
	h.mu.RUnlock()
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

func (h *Hub) room(roomID string) *room {
	h.mu.RLock()
	current := h.rooms[roomID]
	h.mu.RUnlock()
	if current != nil {
		return current
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	current = h.rooms[roomID]
	if current == nil {
		current = &room{subs: make(map[uint64]chan Reading)}
		h.rooms[roomID] = current
	}
	return current
}

func (h *Hub) unsubscribe(roomID string, id uint64) {
	h.mu.RLock()
	r := h.rooms[roomID]
	h.mu.RUnlock()
	if r == nil {
		return
	}
	r.mu.Lock()
	delete(r.subs, id)
	r.mu.Unlock()
}

func (s *Subscription) Events() <-chan Reading {
	if s == nil {
		return nil
	}
	return s.ch
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.roomID, s.id)
	})
}
