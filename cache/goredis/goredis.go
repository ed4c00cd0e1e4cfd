// Copyright 2026 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package goredis provides an implementation of objtransform.Cache that is
// backed by Redis, for programs that already use the go-redis client
// (https://github.com/redis/go-redis) instead of redigo. Single node,
// Sentinel and Cluster clients are all supported.
package goredis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bufbuild/objtransform"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned from Load when the key is not present.
var ErrNotFound = errors.New("key not found")

// Config represents the configuration parameters used to create a new
// go-redis-backed cache.
type Config struct {
	Client    redis.UniversalClient
	KeyPrefix string
	// Expiration is the time-to-live of saved entries. If zero, entries
	// never expire.
	Expiration time.Duration
	// If RefreshOnLoad is true and Expiration is non-zero, loading an entry
	// resets its time-to-live. This requires Redis 6.2 or newer.
	RefreshOnLoad bool
}

// New creates a new go-redis-backed cache with the given configuration.
func New(config Config) (objtransform.Cache, error) {
	if config.Client == nil {
		return nil, errors.New("client cannot be nil")
	}
	if config.Expiration < 0 {
		return nil, fmt.Errorf("expiration (%v) cannot be negative", config.Expiration)
	}
	if config.Expiration != 0 && config.Expiration < time.Millisecond {
		return nil, fmt.Errorf("expiration (%v) cannot be less than a millisecond", config.Expiration)
	}
	return (*cache)(&config), nil
}

type cache Config

func (c *cache) Load(ctx context.Context, key string) ([]byte, error) {
	var cmd *redis.StringCmd
	if c.RefreshOnLoad && c.Expiration != 0 {
		cmd = c.Client.GetEx(ctx, c.KeyPrefix+key, c.Expiration)
	} else {
		cmd = c.Client.Get(ctx, c.KeyPrefix+key)
	}
	data, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return data, err
}

func (c *cache) Save(ctx context.Context, key string, data []byte) error {
	return c.Client.Set(ctx, c.KeyPrefix+key, data, c.Expiration).Err()
}
