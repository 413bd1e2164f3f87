package stream

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub fans backfill progress out to websocket clients grouped by run ID.
// With Redis configured, broadcasts are also relayed to hubs on other nodes.
type Hub struct {
	redis   *redis.Client
	origin  string
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	cancel  context.CancelFunc
}

type Client struct {
	RunID string
	Send  chan []byte
}

type envelope struct {
	Origin  string `json:"origin"`
	Payload []byte `json:"payload"`
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		origin:  uuid.NewString(),
		clients: map[string]map[*Client]struct{}{},
		cancel:  func() {},
	}

	if redisClient != nil {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancel = cancel
		pubsub := redisClient.PSubscribe(ctx, redisChannel("*"))
		go h.subscribeRedis(ctx, pubsub)
	}
	return h
}

// Close stops the Redis relay.
func (h *Hub) Close() {
	h.cancel()
}

func (h *Hub) Register(runID string) *Client {
	client := &Client{
		RunID: runID,
		Send:  make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[runID] == nil {
		h.clients[runID] = map[*Client]struct{}{}
	}
	h.clients[runID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if runClients, ok := h.clients[client.RunID]; ok {
		if _, ok := runClients[client]; !ok {
			return
		}
		delete(runClients, client)
		if len(runClients) == 0 {
			delete(h.clients, client.RunID)
		}
		close(client.Send)
	}
}

// Subscribers reports how many clients are listening on runID.
func (h *Hub) Subscribers(runID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[runID])
}

func (h *Hub) Broadcast(runID string, payload []byte) {
	h.deliver(runID, payload)

	if h.redis != nil {
		msg, err := json.Marshal(envelope{Origin: h.origin, Payload: payload})
		if err != nil {
			log.Printf("stream: encode relay message: %v", err)
			return
		}
		if err := h.redis.Publish(context.Background(), redisChannel(runID), msg).Err(); err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

// Publish JSON encodes v and broadcasts it on runID.
func (h *Hub) Publish(runID string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("stream: encode payload for run %s: %v", runID, err)
		return
	}
	h.Broadcast(runID, payload)
}

// deliver drops messages for clients whose buffer is full.
func (h *Hub) deliver(runID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[runID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis(ctx context.Context, pubsub *redis.PubSub) {
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("stream: drop malformed relay message on %s: %v", msg.Channel, err)
				continue
			}
			if env.Origin == h.origin {
				continue
			}
			h.deliver(runIDFromChannel(msg.Channel), env.Payload)
		}
	}
}

func redisChannel(runID string) string {
	return "backfill:" + runID + ":progress"
}

func runIDFromChannel(ch string) string {
	// backfill:{run}:progress
	const prefix = "backfill:"
	const suffix = ":progress"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
