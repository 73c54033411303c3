// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package rediskv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/corral-io/corral/localstate"
)

type Config struct {
	Host     string
	Port     int
	Password string
}

// Redis persists local dashboard state in a redis instance so already-sent
// notification ids survive restarts.
type Redis struct {
	pool *redis.Pool
}

func New(config Config) (*Redis, error) {
	r := &Redis{pool: newPool(config)}

	// test connection
	conn := r.pool.Get()
	defer conn.Close()
	if _, err := redis.String(conn.Do("PING")); err != nil {
		return nil, fmt.Errorf("error testing connection to redis: %w", err)
	}
	return r, nil
}

func newPool(config Config) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     10,
		MaxActive:   100,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp",
				fmt.Sprintf("%s:%d", config.Host, config.Port),
				redis.DialPassword(config.Password),
				redis.DialConnectTimeout(10*time.Second),
				redis.DialReadTimeout(10*time.Second),
			)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

func (r *Redis) GetString(ctx context.Context, key string) (string, error) {
	conn := r.pool.Get()
	defer conn.Close()
	value, err := redis.String(conn.Do("GET", key))
	if errors.Is(err, redis.ErrNil) {
		return "", localstate.ErrKeyNotFound
	}
	return value, err
}

func (r *Redis) SetString(ctx context.Context, key, value string) error {
	conn := r.pool.Get()
	defer conn.Close()
	_, err := conn.Do("SET", key, value)
	return err
}

func (r *Redis) AddToSet(ctx context.Context, key, member string) error {
	conn := r.pool.Get()
	defer conn.Close()
	_, err := conn.Do("SADD", key, member)
	return err
}

func (r *Redis) InSet(ctx context.Context, key, member string) (bool, error) {
	conn := r.pool.Get()
	defer conn.Close()
	return redis.Bool(conn.Do("SISMEMBER", key, member))
}

func (r *Redis) Clear(ctx context.Context, prefix string) error {
	conn := r.pool.Get()
	defer conn.Close()
	keys, err := redis.Strings(conn.Do("KEYS", prefix+"*"))
	if err != nil {
		return err
	}
	for _, key := range keys {
		if _, err := conn.Do("DEL", key); err != nil {
			return err
		}
	}
	return nil
}

// Close drains the connection pool.
func (r *Redis) Close() error {
	return r.pool.Close()
}
