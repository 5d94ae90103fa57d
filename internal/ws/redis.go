package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/codearena/backend/internal/store"
)

// StartMatchEventSubscriber relays match lifecycle events published on redis
// to clients still connected to the session's room. With multiple server
// nodes this is how a completion on one node reaches spectators on another.
func StartMatchEventSubscriber(ctx context.Context, rdb *redis.Client, hub *Hub) {
	if rdb == nil {
		log.Println("[WS] Redis client not set; match event subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, store.MatchEventsChannel)
	ch := pubsub.Channel()
	go func() {
		log.Println("[WS] match_events subscriber started")
		for msg := range ch {
			var payload map[string]interface{}
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				log.Printf("[WS] invalid match event payload: %v", err)
				continue
			}

			typeStr, _ := payload["type"].(string)
			sessionID, _ := payload["session_id"].(string)
			if sessionID == "" {
				log.Printf("[WS] match event missing session_id: type=%s", typeStr)
				continue
			}

			switch typeStr {
			case "match_completed":
				hub.ToRoom("match:"+sessionID, payload)
			default:
				log.Printf("[WS] unknown match event type: %s", typeStr)
			}
		}
	}()
}
