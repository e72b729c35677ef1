package client

import (
	"sync"

	"github.com/google/uuid"
)

// UnreadCounters tracks per-contact unread totals locally so the badge
// updates without a round trip. Realtime inserts addressed to the
// owner increment one contact; marking a conversation read zeroes
// exactly that contact.
type UnreadCounters struct {
	selfID uuid.UUID

	mu     sync.Mutex
	counts map[uuid.UUID]int
}

func NewUnreadCounters(selfID uuid.UUID) *UnreadCounters {
	return &UnreadCounters{selfID: selfID, counts: make(map[uuid.UUID]int)}
}

// Seed replaces the counters with server-reported values.
func (u *UnreadCounters) Seed(counts map[uuid.UUID]int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.counts = make(map[uuid.UUID]int, len(counts))
	for id, n := range counts {
		u.counts[id] = n
	}
}

// ObserveInsert handles a realtime message insert. Only messages
// addressed to the owner count; everything else is ignored.
func (u *UnreadCounters) ObserveInsert(senderID, receiverID uuid.UUID) {
	if receiverID != u.selfID {
		return
	}
	u.mu.Lock()
	u.counts[senderID]++
	u.mu.Unlock()
}

// MarkRead zeroes the counter for one contact.
func (u *UnreadCounters) MarkRead(contactID uuid.UUID) {
	u.mu.Lock()
	delete(u.counts, contactID)
	u.mu.Unlock()
}

// For returns the unread count for one contact.
func (u *UnreadCounters) For(contactID uuid.UUID) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.counts[contactID]
}

// Total returns the sum across all contacts.
func (u *UnreadCounters) Total() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	total := 0
	for _, n := range u.counts {
		total += n
	}
	return total
}
