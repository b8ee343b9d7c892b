package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/pocketbreak/backend/internal/config"
	"github.com/redis/go-redis/v9"
)

var rdbClient *redis.Client
var wsConfig *config.Config

func SetRedisClient(r *redis.Client, cfg *config.Config) {
	rdbClient = r
	wsConfig = cfg
}

// StartMatchEventSubscriber subscribes to the match_events channel and
// fans incoming events out to the affected match rooms. Events published
// on one node reach clients connected to any node this way.
func StartMatchEventSubscriber(ctx context.Context) {
	if rdbClient == nil {
		log.Println("[WS] Redis client not set; match event subscriber not started")
		return
	}

	pubsub := rdbClient.Subscribe(ctx, "match_events")
	ch := pubsub.Channel()
	go func() {
		log.Println("[WS] match_events subscriber started")
		for msg := range ch {
			var payload map[string]interface{}
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				log.Printf("[WS] invalid event payload: %v", err)
				continue
			}

			typeStr, _ := payload["type"].(string)
			matchToken, _ := payload["match_token"].(string)
			matchID, _ := payload["match_id"].(string)
			if matchID == "" {
				matchID = matchToken
			}

			log.Printf("[WS] event received: type=%s match_id=%s", typeStr, matchID)

			switch typeStr {
			case "player_forfeit":
				MatchHub.BroadcastToMatch(matchID, map[string]interface{}{
					"type":   "game_over",
					"winner": payload["winner"],
					"reason": "forfeit",
					"player": payload["player"],
				})

			case "match_cancelled":
				MatchHub.BroadcastToMatch(matchID, map[string]interface{}{
					"type":    "match_cancelled",
					"message": "Match expired and was cancelled",
				})

			default:
				// Unknown event types are forwarded verbatim.
				payload["type"] = typeStr
				MatchHub.BroadcastToMatch(matchID, payload)
			}
		}
	}()
}
