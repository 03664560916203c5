package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"go-formfill/internal/pdf"
)

const keyPrefix = "formfill:fields:"

// Redis stores one hash per template: the field name is the version, the
// value the JSON encoded field list. Setting a new version replaces the hash.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ FieldCache = (*Redis)(nil)

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Dial connects to addr and pings it.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	log.Printf("[INFO] redis field cache connected to %s", addr)
	return client, nil
}

func key(name string) string { return keyPrefix + name }

func (r *Redis) Get(ctx context.Context, name, version string) ([]pdf.Field, bool, error) {
	val, err := r.client.HGet(ctx, key(name), version).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var fields []pdf.Field
	if err := json.Unmarshal([]byte(val), &fields); err != nil {
		return nil, false, fmt.Errorf("decode cached fields for %s: %w", name, err)
	}
	return fields, true, nil
}

func (r *Redis) Set(ctx context.Context, name, version string, fields []pdf.Field) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	k := key(name)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k, version, data)
		if r.ttl > 0 {
			pipe.Expire(ctx, k, r.ttl)
		}
		return nil
	})
	return err
}

func (r *Redis) Invalidate(ctx context.Context, name string) error {
	return r.client.Del(ctx, key(name)).Err()
}
