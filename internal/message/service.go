package message

import (
	"context"
	"errors"

	"backend-ripple/internal/db"
	"backend-ripple/internal/stream"
	"backend-ripple/internal/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

var (
	ErrTextRequired         = errors.New("text required")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrForbidden            = errors.New("forbidden")
)

type Service struct {
	db     db.Querier
	graph  *user.Service
	events stream.Publisher
	log    zerolog.Logger
}

func NewService(dbq db.Querier, graph *user.Service, events stream.Publisher, log zerolog.Logger) *Service {
	if events == nil {
		events = stream.NopPublisher{}
	}
	return &Service{db: dbq, graph: graph, events: events, log: log}
}

// Send delivers a direct message: find-or-create the pair conversation,
// append the message, refresh the conversation summary and push a live event
// to the recipient.
func (s *Service) Send(ctx context.Context, senderID, recipientID, text string) (Message, error) {
	if text == "" {
		return Message{}, ErrTextRequired
	}
	if err := s.graph.Exists(ctx, recipientID); err != nil {
		return Message{}, err
	}

	conv, err := s.findOrCreateConversation(ctx, senderID, recipientID)
	if err != nil {
		return Message{}, err
	}

	msg := Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		Text:           text,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, text)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, msg.ID, msg.ConversationID, msg.SenderID, msg.Text)
	if err := row.Scan(&msg.CreatedAt); err != nil {
		return Message{}, err
	}

	if _, err := s.db.Exec(ctx, `
		UPDATE conversations SET last_message_text=$2, last_message_at=$3 WHERE id=$1
	`, conv.ID, msg.Text, msg.CreatedAt); err != nil {
		s.log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("conversation summary update failed")
	}

	s.events.Publish(recipientID, "message:new", msg)

	if err := s.graph.RecordInteraction(ctx, senderID, recipientID); err != nil {
		s.log.Warn().Err(err).Msg("message interaction update failed")
	}
	return msg, nil
}

// findOrCreateConversation keys the pair in sorted order so (a,b) and (b,a)
// share one row.
func (s *Service) findOrCreateConversation(ctx context.Context, a, b string) (Conversation, error) {
	if b < a {
		a, b = b, a
	}

	var conv Conversation
	err := s.db.QueryRow(ctx, `
		SELECT id, user_a, user_b, COALESCE(last_message_text, ''), COALESCE(last_message_at, created_at), created_at
		FROM conversations WHERE user_a=$1 AND user_b=$2
	`, a, b).Scan(&conv.ID, &conv.UserA, &conv.UserB, &conv.LastMessage, &conv.LastMessageAt, &conv.CreatedAt)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, err
	}

	conv = Conversation{ID: uuid.NewString(), UserA: a, UserB: b}
	row := s.db.QueryRow(ctx, `
		INSERT INTO conversations (id, user_a, user_b)
		VALUES ($1,$2,$3)
		ON CONFLICT (user_a, user_b) DO UPDATE SET user_a = EXCLUDED.user_a
		RETURNING id, created_at
	`, conv.ID, conv.UserA, conv.UserB)
	if err := row.Scan(&conv.ID, &conv.CreatedAt); err != nil {
		return Conversation{}, err
	}
	return conv, nil
}

func (s *Service) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_a, user_b, COALESCE(last_message_text, ''), COALESCE(last_message_at, created_at), created_at
		FROM conversations
		WHERE user_a=$1 OR user_b=$1
		ORDER BY COALESCE(last_message_at, created_at) DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []Conversation
	for rows.Next() {
		var conv Conversation
		if err := rows.Scan(&conv.ID, &conv.UserA, &conv.UserB, &conv.LastMessage, &conv.LastMessageAt, &conv.CreatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

func (s *Service) ListMessages(ctx context.Context, conversationID, userID string, limit int) ([]Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	conv, err := s.conversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.UserA != userID && conv.UserB != userID {
		return nil, ErrForbidden
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, conversation_id, sender_id, text, read, created_at
		FROM messages
		WHERE conversation_id=$1
		ORDER BY created_at DESC
		LIMIT $2
	`, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Text, &m.Read, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MarkRead flags every message from the peer as read and tells the peer's
// sockets about it.
func (s *Service) MarkRead(ctx context.Context, conversationID, userID string) error {
	conv, err := s.conversationByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv.UserA != userID && conv.UserB != userID {
		return ErrForbidden
	}

	if _, err := s.db.Exec(ctx, `
		UPDATE messages SET read=true
		WHERE conversation_id=$1 AND sender_id <> $2 AND read=false
	`, conversationID, userID); err != nil {
		return err
	}

	peer := conv.UserA
	if peer == userID {
		peer = conv.UserB
	}
	s.events.Publish(peer, "message:read", map[string]string{
		"conversation_id": conversationID,
		"reader_id":       userID,
	})
	return nil
}

func (s *Service) conversationByID(ctx context.Context, id string) (Conversation, error) {
	var conv Conversation
	err := s.db.QueryRow(ctx, `
		SELECT id, user_a, user_b, COALESCE(last_message_text, ''), COALESCE(last_message_at, created_at), created_at
		FROM conversations WHERE id=$1
	`, id).Scan(&conv.ID, &conv.UserA, &conv.UserB, &conv.LastMessage, &conv.LastMessageAt, &conv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrConversationNotFound
	}
	return conv, err
}
