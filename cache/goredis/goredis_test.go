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

// We use a build tag since redis may not be running. If it is
// running, for use with the test, then pass flag "-tags with_servers"
// when running tests to enable these tests.
//go:build with_servers

package goredis

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"testing"
	"time"

	"github.com/bufbuild/objtransform/cache/internal/cachetesting"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoRedisCache(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	t.Cleanup(func() {
		err := client.Close()
		require.NoError(t, err)
	})

	testCases := []struct {
		name    string
		expiry  time.Duration
		refresh bool
	}{
		{
			name: "without expiry",
		},
		{
			name:   "with expiry",
			expiry: 60 * time.Second,
		},
		{
			name:    "with refreshed expiry",
			expiry:  60 * time.Second,
			refresh: true,
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			prefix := make([]byte, 24)
			_, err := rand.Read(prefix)
			require.NoError(t, err)
			keyPrefix := base64.StdEncoding.EncodeToString(prefix) + ":"

			cache, err := New(Config{
				Client:        client,
				KeyPrefix:     keyPrefix,
				Expiration:    testCase.expiry,
				RefreshOnLoad: testCase.refresh,
			})
			require.NoError(t, err)
			ctx := context.Background()

			entries := cachetesting.RunSimpleCacheTests(t, ctx, cache)

			// check the actual keys in redis
			for k, v := range entries {
				data, err := client.Get(ctx, keyPrefix+k).Bytes()
				require.NoError(t, err)
				require.Equal(t, v, data)
				ttl, err := client.PTTL(ctx, keyPrefix+k).Result()
				require.NoError(t, err)
				if testCase.expiry == 0 {
					// no expiry is reported as a negative duration
					assert.Negative(t, ttl)
				} else {
					assert.Greater(t, ttl, time.Duration(0))
					assert.LessOrEqual(t, ttl, testCase.expiry)
				}
			}

			_, err = cache.Load(ctx, "does-not-exist")
			require.ErrorIs(t, err, ErrNotFound)
			cachetesting.RunResolverCacheTests(t, ctx, cache, "resolver:")
		})
	}
}
