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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Registry is a read-only set of transformers. The declared transformations
// of all transformers form the edges of a graph of classes that the
// [Resolver] searches.
type Registry struct {
	transformers []Transformer
	edges        []edge
	// indexes into edges, in registration order
	byInput   map[Class][]int
	wildcards []int
	// indexes into edges, in registration order
	byOutput    map[Class][]int
	fingerprint string
}

type edge struct {
	Transformation
	transformer Transformer
}

// NewRegistry returns a registry of the given transformers. Their declared
// transformations are queried once and validated: every transformation must
// name an output class, and must not convert a class into itself.
//
// When several transformers declare the same transformation, the one given
// first is preferred.
func NewRegistry(transformers ...Transformer) (*Registry, error) {
	registry := &Registry{
		transformers: make([]Transformer, 0, len(transformers)),
		byInput:      map[Class][]int{},
		byOutput:     map[Class][]int{},
	}
	hash := sha256.New()
	for i, transformer := range transformers {
		if transformer == nil {
			return nil, fmt.Errorf("transformer #%d is nil", i)
		}
		transformations := transformer.SupportedTransformations()
		if len(transformations) == 0 {
			return nil, fmt.Errorf("transformer #%d (%T) declares no transformations", i, transformer)
		}
		for _, transformation := range transformations {
			if transformation.Output == "" {
				return nil, fmt.Errorf("transformer #%d (%T) declares a transformation without output class", i, transformer)
			}
			if transformation.Input == transformation.Output {
				return nil, fmt.Errorf("transformer #%d (%T) declares a transformation of %q into itself", i, transformer, transformation.Input)
			}
			index := len(registry.edges)
			registry.edges = append(registry.edges, edge{Transformation: transformation, transformer: transformer})
			if transformation.Input == "" {
				registry.wildcards = append(registry.wildcards, index)
			} else {
				registry.byInput[transformation.Input] = append(registry.byInput[transformation.Input], index)
			}
			registry.byOutput[transformation.Output] = append(registry.byOutput[transformation.Output], index)
			_, _ = fmt.Fprintf(hash, "%d\x00%T\x00%s\x00%s\n", i, transformer, transformation.Input, transformation.Output)
		}
		registry.transformers = append(registry.transformers, transformer)
	}
	registry.fingerprint = hex.EncodeToString(hash.Sum(nil))
	return registry, nil
}

// Len returns the number of registered transformers.
func (r *Registry) Len() int {
	return len(r.transformers)
}

// Transformations returns every declared transformation, in registration
// order.
func (r *Registry) Transformations() []Transformation {
	transformations := make([]Transformation, len(r.edges))
	for i, e := range r.edges {
		transformations[i] = e.Transformation
	}
	return transformations
}

// Fingerprint identifies the registry's declared transformations. Two
// registries with the same transformer types declaring the same
// transformations in the same order have the same fingerprint.
func (r *Registry) Fingerprint() string {
	return r.fingerprint
}

// outgoing returns the indexes of edges leaving the given class: those that
// name it as input first, then the wildcard ones.
func (r *Registry) outgoing(class Class) []int {
	explicit := r.byInput[class]
	if len(r.wildcards) == 0 {
		return explicit
	}
	out := make([]int, 0, len(explicit)+len(r.wildcards))
	out = append(out, explicit...)
	for _, index := range r.wildcards {
		if r.edges[index].Output != class {
			out = append(out, index)
		}
	}
	return out
}

// produces reports whether any edge outputs the given class.
func (r *Registry) produces(class Class) bool {
	return len(r.byOutput[class]) > 0
}

// appliesTo reports whether the edge at index can be taken from class.
func (r *Registry) appliesTo(index int, class Class) bool {
	if index < 0 || index >= len(r.edges) {
		return false
	}
	input := r.edges[index].Input
	return (input == "" && r.edges[index].Output != class) || input == class
}
