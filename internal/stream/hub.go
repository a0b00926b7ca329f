package stream

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Publisher delivers a realtime event to one user. Services that emit live
// updates take a Publisher instead of reaching for a shared hub instance.
type Publisher interface {
	Publish(userID, event string, payload any)
}

// NopPublisher drops every event. Used when no realtime transport is attached.
type NopPublisher struct{}

func (NopPublisher) Publish(string, string, any) {}

type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub fans events out to every open socket of a user, and relays through
// redis pub/sub so events reach sockets held by other instances.
type Hub struct {
	redis   *redis.Client
	log     zerolog.Logger
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	UserID string
	Send   chan []byte
}

func NewHub(redisClient *redis.Client, log zerolog.Logger) *Hub {
	h := &Hub{
		redis:   redisClient,
		log:     log,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(userID string) *Client {
	client := &Client{
		UserID: userID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = map[*Client]struct{}{}
	}
	h.clients[userID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if userClients, ok := h.clients[client.UserID]; ok {
		delete(userClients, client)
		if len(userClients) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	close(client.Send)
}

func (h *Hub) Publish(userID, event string, payload any) {
	msg, err := json.Marshal(Event{Event: event, Data: payload})
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("stream marshal failed")
		return
	}
	h.broadcast(userID, msg)

	if h.redis != nil {
		if err := h.redis.Publish(context.Background(), redisChannel(userID), msg).Err(); err != nil {
			h.log.Error().Err(err).Str("user_id", userID).Msg("stream redis publish failed")
		}
	}
}

func (h *Hub) broadcast(userID string, payload []byte) {
	h.mu.RLock()
	clients := h.clients[userID]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "user:*:events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.broadcast(userIDFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

func redisChannel(userID string) string {
	return "user:" + userID + ":events"
}

func userIDFromChannel(ch string) string {
	// user:{id}:events
	const prefix = "user:"
	const suffix = ":events"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
