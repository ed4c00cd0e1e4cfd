// Copyright 2023-2026 Buf Technologies, Inc.
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

// Package memcache provides an implementation of objtransform.Cache
// that is backed by a memcached instance: https://memcached.org/.
package memcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/bufbuild/objtransform"
)

// maxKeyLength is the longest key memcached accepts.
const maxKeyLength = 250

// Config represents the configuration parameters used to
// create a new memcached-backed cache.
type Config struct {
	Client            *memcache.Client
	KeyPrefix         string
	ExpirationSeconds int32
}

// New creates a new memcached-backed cache with the given configuration.
//
// Memcached does not accept keys that are longer than 250 bytes or that
// contain whitespace or control characters. Such keys, which are common for
// chains between long class names, are replaced by a hash of the key.
func New(config Config) (objtransform.Cache, error) {
	// validate config
	if config.Client == nil {
		return nil, errors.New("client cannot be nil")
	}
	if config.ExpirationSeconds < 0 {
		return nil, fmt.Errorf("expiration seconds (%d) cannot be negative", config.ExpirationSeconds)
	}
	if !isLegalKey(config.KeyPrefix) || len(config.KeyPrefix) > maxKeyLength-sha256.Size*2 {
		return nil, fmt.Errorf("key prefix %q is not a valid memcached key prefix", config.KeyPrefix)
	}
	return (*cache)(&config), nil
}

type cache Config

func (c *cache) Load(_ context.Context, key string) ([]byte, error) {
	item, err := c.Client.Get(c.itemKey(key))
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

func (c *cache) Save(_ context.Context, key string, data []byte) error {
	item := &memcache.Item{
		Key:        c.itemKey(key),
		Value:      data,
		Expiration: c.ExpirationSeconds,
	}
	return c.Client.Set(item)
}

func (c *cache) itemKey(key string) string {
	itemKey := c.KeyPrefix + key
	if itemKey != "" && len(itemKey) <= maxKeyLength && isLegalKey(itemKey) {
		return itemKey
	}
	sum := sha256.Sum256([]byte(key))
	return c.KeyPrefix + hex.EncodeToString(sum[:])
}

func isLegalKey(key string) bool {
	for i := 0; i < len(key); i++ {
		if key[i] <= ' ' || key[i] == 0x7f {
			return false
		}
	}
	return true
}
