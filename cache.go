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
	"fmt"
	"log/slog"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Cache can be implemented and supplied to the [Resolver] so that chains of
// transformers, once found, are shared across processes and restarts. Every
// chain found by searching the registry is saved to the cache, and the cache
// is consulted before searching. Cache can be used from multiple goroutines
// and thus must be thread-safe.
type Cache interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

func (r *Resolver) cacheKey(source, target Class) string {
	return r.cacheKeyPrefix + r.registry.Fingerprint() + ":" + string(source) + "->" + string(target)
}

func (r *Resolver) loadPlan(ctx context.Context, source, target Class) ([]int, bool) {
	if r.cache == nil {
		return nil, false
	}
	data, err := r.cache.Load(ctx, r.cacheKey(source, target))
	if err != nil {
		// Most likely just not cached yet.
		return nil, false
	}
	fingerprint, path, err := decodeForCache(data, source, target)
	if err != nil {
		r.logger.WarnContext(ctx, "plan.cache.decode.fail", slog.String("err", err.Error()))
		return nil, false
	}
	if fingerprint != r.registry.Fingerprint() || !r.validPath(source, target, path) {
		r.logger.WarnContext(ctx, "plan.cache.entry.invalid",
			slog.String("source", string(source)),
			slog.String("target", string(target)),
		)
		return nil, false
	}
	return path, true
}

func (r *Resolver) savePlan(ctx context.Context, source, target Class, path []int) {
	if r.cache == nil {
		return
	}
	data, err := encodeForCache(r.registry.Fingerprint(), source, target, path)
	if err != nil {
		// Entries only hold strings and small integers, so this should
		// never actually happen.
		return
	}
	// The error is only logged; a chain that is not cached is searched again.
	if err := r.cache.Save(ctx, r.cacheKey(source, target), data); err != nil {
		r.logger.WarnContext(ctx, "plan.cache.save.fail", slog.String("err", err.Error()))
	}
}

func encodeForCache(fingerprint string, source, target Class, path []int) ([]byte, error) {
	edges := make([]any, len(path))
	for i, index := range path {
		edges[i] = index
	}
	entry, err := structpb.NewStruct(map[string]any{
		"fingerprint": fingerprint,
		"source":      string(source),
		"target":      string(target),
		"edges":       edges,
	})
	if err != nil {
		return nil, err
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(entry)
}

func decodeForCache(data []byte, source, target Class) (string, []int, error) {
	var entry structpb.Struct
	if err := proto.Unmarshal(data, &entry); err != nil {
		return "", nil, err
	}
	fields := entry.GetFields()
	if got := Class(fields["source"].GetStringValue()); got != source {
		return "", nil, fmt.Errorf("cache entry is for source %q, not %q", got, source)
	}
	if got := Class(fields["target"].GetStringValue()); got != target {
		return "", nil, fmt.Errorf("cache entry is for target %q, not %q", got, target)
	}
	edges := fields["edges"].GetListValue()
	if edges == nil {
		return "", nil, fmt.Errorf("cache entry has no edges")
	}
	path := make([]int, len(edges.GetValues()))
	for i, value := range edges.GetValues() {
		number, ok := value.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return "", nil, fmt.Errorf("cache entry edge #%d is not a number", i)
		}
		path[i] = int(number.NumberValue)
	}
	return fields["fingerprint"].GetStringValue(), path, nil
}
