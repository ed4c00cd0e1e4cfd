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

package objtransform_test

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/bufbuild/objtransform"
)

var (
	stringClass   = objtransform.ClassFor[string]()
	intClass      = objtransform.ClassFor[int]()
	durationClass = objtransform.ClassFor[time.Duration]()
)

func Example() {
	atoi := objtransform.NewFuncTransformer(
		func(_ context.Context, envelope *objtransform.Envelope, _ objtransform.Class) (any, error) {
			return strconv.Atoi(envelope.Input().(string)) //nolint:forcetypeassert
		},
		objtransform.Transformation{Input: stringClass, Output: intClass},
	)
	seconds := objtransform.NewFuncTransformer(
		func(_ context.Context, envelope *objtransform.Envelope, _ objtransform.Class) (any, error) {
			unit := time.Second
			if stamp, ok := objtransform.StampOf[objtransform.AdditionalDataStamp](envelope); ok {
				if value, ok := stamp.Value("unit"); ok {
					unit = value.(time.Duration) //nolint:forcetypeassert
				}
			}
			return time.Duration(envelope.Input().(int)) * unit, nil //nolint:forcetypeassert
		},
		objtransform.Transformation{Input: intClass, Output: durationClass},
	)
	registry, err := objtransform.NewRegistry(atoi, seconds)
	if err != nil {
		log.Fatalf("failed to create registry: %v", err)
		return
	}
	resolver, err := objtransform.NewResolver(&objtransform.ResolverConfig{Registry: registry})
	if err != nil {
		log.Fatalf("failed to create resolver: %v", err)
		return
	}
	ctx := context.Background()
	plan, err := resolver.Plan(ctx, stringClass, durationClass)
	if err != nil {
		log.Fatalf("Planning: %v\n", err)
		return
	}
	fmt.Printf("Plan: %v\n", plan)
	duration, err := objtransform.TransformTo[time.Duration](ctx, resolver, "90",
		objtransform.NewAdditionalDataStamp(map[string]any{"unit": time.Minute}),
	)
	if err != nil {
		log.Fatalf("Transforming: %v\n", err)
		return
	}
	fmt.Printf("Transformed: %v\n", duration)
	// Output:
	// Plan: [string -> int int -> time.Duration]
	// Transformed: 1h30m0s
}
