package realtime

import (
	"log"
	"sync"

	"github.com/duochat/duochat/models"
	"github.com/google/uuid"
)

const subscriberBuffer = 64

// Hub fans persisted messages out to the streams subscribed to their
// conversation. Each published message is delivered exactly once to every
// subscriber that is active at publish time; there is no replay and no
// cross-conversation traffic.
type Hub struct {
	mu          sync.Mutex
	subscribers map[uuid.UUID]map[*Subscriber]struct{}
}

// Subscriber receives the messages published to one conversation on C.
// Close detaches it from the hub; C is closed afterwards.
type Subscriber struct {
	hub            *Hub
	conversationID uuid.UUID
	once           sync.Once

	C chan *models.Message
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]map[*Subscriber]struct{}),
	}
}

func (h *Hub) Subscribe(conversationID uuid.UUID) *Subscriber {
	sub := &Subscriber{
		hub:            h,
		conversationID: conversationID,
		C:              make(chan *models.Message, subscriberBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[conversationID] == nil {
		h.subscribers[conversationID] = make(map[*Subscriber]struct{})
	}
	h.subscribers[conversationID][sub] = struct{}{}
	return sub
}

// Publish delivers the message to every active subscriber of its
// conversation. A subscriber whose buffer is full is dropped rather than
// blocking the sender.
func (h *Hub) Publish(conversationID uuid.UUID, message *models.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers[conversationID] {
		select {
		case sub.C <- message:
		default:
			log.Printf("dropping slow subscriber on conversation %s", conversationID)
			h.removeLocked(sub)
		}
	}
}

// Close detaches the subscriber. Safe to call more than once and safe to call
// concurrently with Publish.
func (s *Subscriber) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.hub.removeLocked(s)
}

func (h *Hub) removeLocked(sub *Subscriber) {
	subs, ok := h.subscribers[sub.conversationID]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.subscribers, sub.conversationID)
	}
	sub.once.Do(func() { close(sub.C) })
}

// SubscriberCount reports how many streams are attached to a conversation.
func (h *Hub) SubscriberCount(conversationID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[conversationID])
}
