package db

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedis connects a redis client and verifies the connection with a ping.
func NewRedis(addr, password string, database int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       database,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}
