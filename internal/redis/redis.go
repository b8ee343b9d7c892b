package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Connect opens the redis client backing the matchmaking queue, match
// snapshots, shot clocks and the match_events pub/sub channel.
func Connect(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	opt.ClientName = "pocketbreak"

	client := redis.NewClient(opt)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}
