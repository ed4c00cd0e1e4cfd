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

package objtransform

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	loads   int
	saves   int
	saveErr error
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string][]byte{}}
}

func (c *mapCache) Load(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loads++
	data, ok := c.entries[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func (c *mapCache) Save(_ context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	if c.saveErr != nil {
		return c.saveErr
	}
	c.entries[key] = data
	return nil
}

func (c *mapCache) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return keys
}

func (c *mapCache) set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
}

func TestCacheEntryRoundTrip(t *testing.T) {
	t.Parallel()
	data, err := encodeForCache("abcdefg", "A", "C", []int{0, 3, 1})
	require.NoError(t, err)
	fingerprint, path, err := decodeForCache(data, "A", "C")
	require.NoError(t, err)
	assert.Equal(t, "abcdefg", fingerprint)
	assert.Equal(t, []int{0, 3, 1}, path)

	_, _, err = decodeForCache(data, "B", "C")
	require.ErrorContains(t, err, `source "A", not "B"`)
	_, _, err = decodeForCache(data, "A", "B")
	require.ErrorContains(t, err, `target "C", not "B"`)
	_, _, err = decodeForCache([]byte("garbage"), "A", "C")
	require.Error(t, err)
	_, _, err = decodeForCache(nil, "", "")
	require.ErrorContains(t, err, "no edges")
}

func TestResolver_Cache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	var rec recorder
	transformers := []Transformer{
		rec.transformer("ab", Transformation{Input: "A", Output: "B"}),
		rec.transformer("bc", Transformation{Input: "B", Output: "C"}),
	}
	registry, err := NewRegistry(transformers...)
	require.NoError(t, err)
	newResolver := func(cache Cache) *Resolver {
		resolver, err := NewResolver(&ResolverConfig{Registry: registry, Cache: cache, CacheKeyPrefix: "plans:"})
		require.NoError(t, err)
		return resolver
	}
	cache := newMapCache()

	result, err := newResolver(cache).Transform(ctx, "", "C", NewInputClassStamp("A"))
	require.NoError(t, err)
	assert.Equal(t, "abbc", result)
	require.Equal(t, 1, cache.saves)
	keys := cache.keys()
	require.Len(t, keys, 1)
	assert.Equal(t, "plans:"+registry.Fingerprint()+":A->C", keys[0])

	// a new resolver loads the chain instead of saving it again
	resolver := newResolver(cache)
	plan, err := resolver.Plan(ctx, "A", "C")
	require.NoError(t, err)
	assert.Equal(t, []Transformation{{Input: "A", Output: "B"}, {Input: "B", Output: "C"}}, plan)
	assert.Equal(t, 1, cache.saves)
	assert.Equal(t, 2, cache.loads)
	// and then memoizes it
	_, err = resolver.Plan(ctx, "A", "C")
	require.NoError(t, err)
	assert.Equal(t, 2, cache.loads)

	// failed saves do not fail the conversion
	failing := newMapCache()
	failing.saveErr = errors.New("cache unavailable")
	result, err = newResolver(failing).Transform(ctx, "", "C", NewInputClassStamp("A"))
	require.NoError(t, err)
	assert.Equal(t, "abbc", result)
	assert.Equal(t, 1, failing.saves)
}

func TestResolver_CacheInvalidEntries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	var rec recorder
	registry, err := NewRegistry(
		rec.transformer("ab", Transformation{Input: "A", Output: "B"}),
		rec.transformer("bc", Transformation{Input: "B", Output: "C"}),
	)
	require.NoError(t, err)
	key := "plans:" + registry.Fingerprint() + ":A->C"
	wrongFingerprint, err := encodeForCache(strings.Repeat("0", 64), "A", "C", []int{0, 1})
	require.NoError(t, err)
	wrongPath, err := encodeForCache(registry.Fingerprint(), "A", "C", []int{1, 0})
	require.NoError(t, err)
	outOfRange, err := encodeForCache(registry.Fingerprint(), "A", "C", []int{0, 7})
	require.NoError(t, err)
	testCases := []struct {
		name  string
		entry []byte
	}{
		{name: "garbage", entry: []byte("not a plan")},
		{name: "wrong fingerprint", entry: wrongFingerprint},
		{name: "wrong path", entry: wrongPath},
		{name: "edge out of range", entry: outOfRange},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			cache := newMapCache()
			cache.set(key, testCase.entry)
			resolver, err := NewResolver(&ResolverConfig{Registry: registry, Cache: cache, CacheKeyPrefix: "plans:"})
			require.NoError(t, err)
			plan, err := resolver.Plan(ctx, "A", "C")
			require.NoError(t, err)
			assert.Equal(t, []Transformation{{Input: "A", Output: "B"}, {Input: "B", Output: "C"}}, plan)
			// the invalid entry got replaced
			assert.Equal(t, 1, cache.saves)
			_, path, err := decodeForCache(cache.entries[key], "A", "C")
			require.NoError(t, err)
			assert.Equal(t, []int{0, 1}, path)
		})
	}
}

func TestResolver_CacheSkipsExclusions(t *testing.T) {
	t.Parallel()
	var rec recorder
	cache := newMapCache()
	resolver := newTestResolver(t, &ResolverConfig{Cache: cache, CacheKeyPrefix: "plans:"},
		rec.failing("first", Unsupported("A", "B"), Transformation{Input: "A", Output: "B"}),
		rec.transformer("second", Transformation{Input: "A", Output: "B"}),
	)
	result, err := resolver.Transform(context.Background(), "", "B", NewInputClassStamp("A"))
	require.NoError(t, err)
	assert.Equal(t, "second", result)
	// only the unrestricted chain is saved
	assert.Equal(t, 1, cache.saves)
	_, path, err := decodeForCache(cache.entries["plans:"+resolver.registry.Fingerprint()+":A->B"], "A", "B")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, path)
}
