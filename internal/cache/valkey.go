// Package cache provides the shared Valkey (Redis-compatible) client and
// the read-through cache for public catalog listings.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// pingTimeout bounds the connection check at startup.
const pingTimeout = 5 * time.Second

// ValkeyOptions locates the Valkey instance that holds admin sessions and
// cached catalog listings.
type ValkeyOptions struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr is the host:port dial address. IPv6 hosts are bracketed.
func (o ValkeyOptions) Addr() string {
	return net.JoinHostPort(o.Host, o.Port)
}

// ConnectValkey opens the client and pings it. The client is named so
// that CLIENT LIST on a shared instance shows which connections are ours.
func ConnectValkey(ctx context.Context, opts ValkeyOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       opts.Addr(),
		Password:   opts.Password,
		DB:         opts.DB,
		ClientName: "lenscatalog",
	})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey ping %s: %w", opts.Addr(), err)
	}

	slog.Info("valkey connected", "addr", opts.Addr(), "db", opts.DB)
	return client, nil
}
