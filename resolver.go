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

package objtransform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	pkgerrors "github.com/pkg/errors"
)

const defaultMaxHops = 16

// ErrNoTransformerFound is matched by the error returned from the
// [Resolver] when no chain of transformers leads from the input class to
// the requested output class.
var ErrNoTransformerFound = errors.New("no transformer found")

// NoTransformerFoundError names the classes that could not be connected.
type NoTransformerFoundError struct {
	Source Class
	Target Class
}

func (e *NoTransformerFoundError) Error() string {
	return fmt.Sprintf("%v to transform %q into %q", ErrNoTransformerFound, e.Source, e.Target)
}

// Is reports whether target is [ErrNoTransformerFound].
func (e *NoTransformerFoundError) Is(target error) bool {
	return target == ErrNoTransformerFound
}

// ResolverConfig contains the configurable attributes of the [Resolver].
type ResolverConfig struct {
	// Registry holds the transformers the resolver may use. Required.
	Registry *Registry
	// MaxHops bounds the number of transformers chained together for a
	// single conversion. If unset and left zero, a default of 16 is used.
	// It must not be negative.
	MaxHops int
	// If Cache is non-nil, chains found by the resolver are saved to it and
	// loaded from it before searching, so that processes sharing a registry
	// also share the search results. Entries are keyed by the registry's
	// fingerprint, so changing the registry never reuses stale chains.
	Cache Cache
	// CacheKeyPrefix is prepended to every key used with Cache. If Cache is
	// non-nil, this must be non-empty. It is up to the Cache to sanitize the
	// key if necessary.
	CacheKeyPrefix string
	// Logger receives debug events about chain resolution and warnings
	// about cache failures. If nil, nothing is logged.
	Logger *slog.Logger
}

func (c *ResolverConfig) validate() error {
	if c.Registry == nil {
		return fmt.Errorf("registry not provided")
	}
	if c.MaxHops < 0 {
		return fmt.Errorf("max hops (%d) cannot be negative", c.MaxHops)
	}
	if c.Cache != nil && c.CacheKeyPrefix == "" {
		return fmt.Errorf("cache key prefix cannot be blank if cache is non-nil")
	}
	return nil
}

// discardHandler is never enabled, so records are not even built.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Resolver converts payloads into a requested class using the transformers
// of a [Registry]. When no transformer converts the payload's class directly,
// the resolver chains transformers along the shortest path of declared
// transformations. A Resolver is safe for concurrent use.
type Resolver struct {
	registry       *Registry
	maxHops        int
	cache          Cache
	cacheKeyPrefix string
	logger         *slog.Logger

	// planKey -> []int; only chains found without exclusions are kept
	plans sync.Map
}

type planKey struct {
	source, target Class
}

// exclusion marks an edge that reported an unsupported transformation when
// taken from a given class.
type exclusion struct {
	edge int
	from Class
}

// NewResolver creates a new [Resolver] for the given [ResolverConfig].
// A non-nil error is returned if the configuration is not valid.
func NewResolver(config *ResolverConfig) (*Resolver, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	maxHops := config.MaxHops
	if maxHops == 0 {
		maxHops = defaultMaxHops
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(discardHandler{})
	}
	return &Resolver{
		registry:       config.Registry,
		maxHops:        maxHops,
		cache:          config.Cache,
		cacheKeyPrefix: config.CacheKeyPrefix,
		logger:         logger,
	}, nil
}

// Transform wraps input and the given stamps into an envelope and converts
// it into the output class. See [Resolver.TransformEnvelope].
func (r *Resolver) Transform(ctx context.Context, input any, output Class, stamps ...Stamp) (any, error) {
	envelope, err := Wrap(input, stamps...)
	if err != nil {
		return nil, err
	}
	return r.TransformEnvelope(ctx, envelope, output)
}

// TransformTo converts input into a value of type T, using [ClassFor] T as
// the output class.
func TransformTo[T any](ctx context.Context, resolver *Resolver, input any, stamps ...Stamp) (T, error) {
	var zero T
	output := ClassFor[T]()
	result, err := resolver.Transform(ctx, input, output, stamps...)
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("transformation into %q produced %T", output, result)
	}
	return typed, nil
}

// TransformEnvelope converts the envelope's payload into the output class.
//
// The payload's class is taken from the envelope's [InputClassStamp] if it
// has one, or else computed with [ClassOf]. If it already is the output
// class, the payload is returned as is. Otherwise the resolver finds the
// shortest chain of declared transformations leading to the output class
// and invokes each transformer in turn. Every step gets a new envelope with
// the intermediate value as payload, all stamps of the given envelope, and
// an InputClassStamp naming the intermediate class.
//
// If a transformer reports [ErrUnsupportedTransformation], the resolver
// looks for another chain that avoids that step. Any other error from a
// transformer aborts the conversion. If no chain remains, the returned error
// matches [ErrNoTransformerFound].
func (r *Resolver) TransformEnvelope(ctx context.Context, envelope *Envelope, output Class) (any, error) {
	source := envelope.InputClass()
	if source == output {
		return envelope.Input(), nil
	}
	var priority int
	if stamp, ok := envelope.Stamp(InputClassStampName).(InputClassStamp); ok {
		priority = stamp.Priority()
	}
	carried := envelope.RemoveStamp(InputClassStampName)
	var excluded map[exclusion]struct{}
	for {
		path, err := r.plan(ctx, source, output, excluded)
		if err != nil {
			return nil, err
		}
		result, failed, err := r.run(ctx, carried, source, path, priority)
		if err != nil {
			return nil, err
		}
		if failed == nil {
			return result, nil
		}
		if excluded == nil {
			excluded = map[exclusion]struct{}{}
		}
		excluded[*failed] = struct{}{}
	}
}

// Plan returns the chain of transformations the resolver would use to
// convert the source class into the target class.
func (r *Resolver) Plan(ctx context.Context, source, target Class) ([]Transformation, error) {
	if source == target {
		return nil, nil
	}
	path, err := r.plan(ctx, source, target, nil)
	if err != nil {
		return nil, err
	}
	transformations := make([]Transformation, len(path))
	for i, index := range path {
		transformations[i] = r.registry.edges[index].Transformation
	}
	return transformations, nil
}

// run invokes the transformers along path. If one of them reports an
// unsupported transformation, the step is returned as failed.
func (r *Resolver) run(ctx context.Context, carried *Envelope, source Class, path []int, priority int) (any, *exclusion, error) {
	current, class := carried.Input(), source
	for _, index := range path {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		step := r.registry.edges[index]
		hop := seed(carried, 1)
		hop.input = current
		hop.merge(NewInputClassStamp(class).WithPriority(priority))
		result, err := step.transformer.Transform(ctx, hop, step.Output)
		if errors.Is(err, ErrUnsupportedTransformation) {
			r.logger.DebugContext(ctx, "resolve.hop.unsupported",
				slog.String("from", string(class)),
				slog.String("to", string(step.Output)),
				slog.String("transformer", fmt.Sprintf("%T", step.transformer)),
			)
			return nil, &exclusion{edge: index, from: class}, nil
		}
		if err != nil {
			return nil, nil, pkgerrors.Wrapf(err, "transforming %q into %q with %T", class, step.Output, step.transformer)
		}
		current, class = result, step.Output
	}
	return current, nil, nil
}

func (r *Resolver) plan(ctx context.Context, source, target Class, excluded map[exclusion]struct{}) ([]int, error) {
	key := planKey{source: source, target: target}
	if len(excluded) == 0 {
		if path, ok := r.plans.Load(key); ok {
			return path.([]int), nil //nolint:forcetypeassert // only []int is stored
		}
		if path, ok := r.loadPlan(ctx, source, target); ok {
			r.plans.Store(key, path)
			return path, nil
		}
	}
	path := r.search(source, target, excluded)
	if path == nil {
		return nil, &NoTransformerFoundError{Source: source, Target: target}
	}
	r.logger.DebugContext(ctx, "resolve.plan.ok",
		slog.String("source", string(source)),
		slog.String("target", string(target)),
		slog.Int("hops", len(path)),
	)
	if len(excluded) == 0 {
		r.plans.Store(key, path)
		r.savePlan(ctx, source, target, path)
	}
	return path, nil
}

// search does a breadth-first search of the class graph and returns the
// indexes of the edges leading from source to target, or nil if there is no
// such path of at most maxHops edges. Among paths of equal length, the one
// using the earliest registered edges wins.
func (r *Resolver) search(source, target Class, excluded map[exclusion]struct{}) []int {
	if !r.registry.produces(target) {
		return nil
	}
	type node struct {
		class Class
		edge  int
		prev  int
		depth int
	}
	nodes := []node{{class: source, edge: -1, prev: -1}}
	visited := map[Class]struct{}{source: {}}
	for head := 0; head < len(nodes); head++ {
		current := nodes[head]
		if current.depth >= r.maxHops {
			continue
		}
		for _, index := range r.registry.outgoing(current.class) {
			if _, skip := excluded[exclusion{edge: index, from: current.class}]; skip {
				continue
			}
			next := r.registry.edges[index].Output
			if next == target {
				path := make([]int, current.depth+1)
				path[current.depth] = index
				for at := head; nodes[at].prev >= 0; at = nodes[at].prev {
					path[nodes[at].depth-1] = nodes[at].edge
				}
				return path
			}
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			nodes = append(nodes, node{class: next, edge: index, prev: head, depth: current.depth + 1})
		}
	}
	return nil
}

// validPath reports whether path leads from source to target in the
// resolver's registry.
func (r *Resolver) validPath(source, target Class, path []int) bool {
	if len(path) == 0 || len(path) > r.maxHops {
		return false
	}
	class := source
	for _, index := range path {
		if !r.registry.appliesTo(index, class) {
			return false
		}
		class = r.registry.edges[index].Output
	}
	return class == target
}
