package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// EmailCooldown spaces out code/verification emails per recipient so a
// misbehaving client cannot flood the delivery collaborator. Bruteforce
// protection proper is an edge-layer concern.
const EmailCooldown = 60 * time.Second

type CooldownGuard struct {
	Redis *redis.Client
}

// Active returns the remaining cooldown, zero when none is set.
func (g *CooldownGuard) Active(ctx context.Context, key string) time.Duration {
	ttl, err := g.Redis.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		return 0
	}
	return ttl
}

func (g *CooldownGuard) Set(ctx context.Context, key string, ttl time.Duration) {
	g.Redis.Set(ctx, key, "1", ttl)
}
