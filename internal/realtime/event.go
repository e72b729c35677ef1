package realtime

import (
	"github.com/google/uuid"
)

// Watched tables. Clients subscribe per table; every successful mutation
// on one of these publishes a change event.
const (
	TableTasks    = "tasks"
	TableTeams    = "teams"
	TableMessages = "messages"
)

const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Event is a coarse change notification: which table, what kind of
// change, which row, who did it. Subscribers are expected to refetch;
// the event carries no row payload beyond identity, except the sender
// on message inserts so unread badges can bump without a refetch.
type Event struct {
	Table   string    `json:"table"`
	Action  string    `json:"action"`
	RowID   string    `json:"row_id"`
	ActorID uuid.UUID `json:"actor_id"`

	// Participants restricts delivery to these user IDs. Empty means
	// every subscriber of the table gets it. Message events set this to
	// {sender, receiver} so a conversation never leaks to a third party.
	Participants []uuid.UUID `json:"participants,omitempty"`

	// SenderID is set on message inserts for local unread increments.
	SenderID *uuid.UUID `json:"sender_id,omitempty"`
}

func ValidTable(table string) bool {
	switch table {
	case TableTasks, TableTeams, TableMessages:
		return true
	}
	return false
}

func (e Event) deliverableTo(userID uuid.UUID) bool {
	if len(e.Participants) == 0 {
		return true
	}
	for _, p := range e.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
