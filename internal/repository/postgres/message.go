package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskdesk/taskdesk/internal/apperr"
	"github.com/taskdesk/taskdesk/internal/models"
)

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

// Contacts collects everyone the user has exchanged messages with. One
// pass over the user's messages, newest first, so the first time a
// correspondent appears fixes their position in the sidebar; unread
// counts ride along in the same query.
func (s *MessageStore) Contacts(ctx context.Context, userID uuid.UUID) ([]models.Contact, error) {
	query := `
		WITH correspondents AS (
			SELECT CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS other_id,
			       max(created_at) AS last_at
			FROM messages
			WHERE sender_id = $1 OR receiver_id = $1
			GROUP BY other_id
		)
		SELECT ` + profileColumnsFor("p") + `,
		       (SELECT count(*) FROM messages u
		        WHERE u.sender_id = p.id AND u.receiver_id = $1 AND NOT u.read)
		FROM correspondents c
		JOIN profiles p ON p.id = c.other_id
		ORDER BY c.last_at DESC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]models.Contact, 0)
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(
			&c.ID, &c.Email, &c.FullName, &c.Role, &c.AvatarURL, &c.PasswordHash, &c.CreatedAt, &c.UpdatedAt,
			&c.UnreadCount,
		); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}

	return contacts, nil
}

func (s *MessageStore) Conversation(ctx context.Context, userID, otherID uuid.UUID) ([]models.Message, error) {
	// The OR predicate covers both directions; ascending order matches
	// the thread view, oldest at the top.
	query := `
		SELECT m.id, m.sender_id, m.receiver_id, m.content, m.read, m.created_at,
		       sp.full_name, rp.full_name
		FROM messages m
		JOIN profiles sp ON sp.id = m.sender_id
		JOIN profiles rp ON rp.id = m.receiver_id
		WHERE (m.sender_id = $1 AND m.receiver_id = $2)
		   OR (m.sender_id = $2 AND m.receiver_id = $1)
		ORDER BY m.created_at ASC`

	rows, err := s.pool.Query(ctx, query, userID, otherID)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(
			&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Read, &m.CreatedAt,
			&m.SenderName, &m.ReceiverName,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

func (s *MessageStore) Create(ctx context.Context, senderID, receiverID uuid.UUID, content string) (*models.Message, error) {
	query := `
		INSERT INTO messages (sender_id, receiver_id, content, read, created_at)
		VALUES ($1, $2, $3, false, now())
		RETURNING id, sender_id, receiver_id, content, read, created_at`

	var m models.Message
	err := s.pool.QueryRow(ctx, query, senderID, receiverID, content).Scan(
		&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Read, &m.CreatedAt,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "could not send message", err)
	}
	return &m, nil
}

func (s *MessageStore) UpdateContent(ctx context.Context, id int64, senderID uuid.UUID, content string) (*models.Message, error) {
	// sender_id in the predicate, not just the id: only the author can
	// edit, enforced where the data lives. The read flag is deliberately
	// untouched; an edit does not make a read message unread.
	query := `
		UPDATE messages
		SET content = $3
		WHERE id = $1 AND sender_id = $2
		RETURNING id, sender_id, receiver_id, content, read, created_at`

	var m models.Message
	err := s.pool.QueryRow(ctx, query, id, senderID, content).Scan(
		&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Read, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "message not found")
		}
		return nil, apperr.Wrap(apperr.KindPersistence, "could not edit message", err)
	}
	return &m, nil
}

// Delete removes a sender's own message and reports who it was
// addressed to, so the change event can reach both sides.
func (s *MessageStore) Delete(ctx context.Context, id int64, senderID uuid.UUID) (uuid.UUID, error) {
	query := `DELETE FROM messages WHERE id = $1 AND sender_id = $2 RETURNING receiver_id`

	var receiverID uuid.UUID
	err := s.pool.QueryRow(ctx, query, id, senderID).Scan(&receiverID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, apperr.New(apperr.KindNotFound, "message not found")
	}
	if err != nil {
		return uuid.Nil, apperr.Wrap(apperr.KindPersistence, "could not delete message", err)
	}
	return receiverID, nil
}

func (s *MessageStore) MarkConversationRead(ctx context.Context, receiverID, senderID uuid.UUID) (int64, error) {
	// read only ever moves false→true, and only for the receiver's own
	// incoming rows.
	query := `
		UPDATE messages
		SET read = true
		WHERE receiver_id = $1 AND sender_id = $2 AND NOT read`

	tag, err := s.pool.Exec(ctx, query, receiverID, senderID)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindPersistence, "could not mark messages read", err)
	}
	return tag.RowsAffected(), nil
}

func (s *MessageStore) UnreadTotal(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `SELECT count(*) FROM messages WHERE receiver_id = $1 AND NOT read`

	var n int
	if err := s.pool.QueryRow(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}
