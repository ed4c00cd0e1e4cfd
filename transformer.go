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
	"slices"
)

// ErrUnsupportedTransformation is matched by errors that a [Transformer]
// returns when it cannot produce the requested class for a given envelope.
// The [Resolver] treats such errors as a signal to try another candidate.
var ErrUnsupportedTransformation = errors.New("unsupported transformation")

// UnsupportedTransformationError is returned by transformers that cannot
// convert the given input class into the given output class.
type UnsupportedTransformationError struct {
	Input  Class
	Output Class
}

// Unsupported returns an error, matching [ErrUnsupportedTransformation], for
// a transformer that cannot convert input into output.
func Unsupported(input, output Class) error {
	return &UnsupportedTransformationError{Input: input, Output: output}
}

func (e *UnsupportedTransformationError) Error() string {
	return fmt.Sprintf("%v: %q to %q", ErrUnsupportedTransformation, e.Input, e.Output)
}

// Is reports whether target is [ErrUnsupportedTransformation].
func (e *UnsupportedTransformationError) Is(target error) bool {
	return target == ErrUnsupportedTransformation
}

// Transformation declares that a transformer can convert payloads of the
// Input class into the Output class. An empty Input means the transformer
// can produce Output from any class; it then decides per envelope, and
// reports [ErrUnsupportedTransformation] for inputs it does not handle.
type Transformation struct {
	Input  Class
	Output Class
}

func (t Transformation) String() string {
	input := t.Input
	if input == "" {
		input = "*"
	}
	return fmt.Sprintf("%s -> %s", input, t.Output)
}

// Transformer performs a single conversion step.
//
// Implementations should be stateless, and therefore safe for concurrent
// use. They must not modify the envelope or its payload.
type Transformer interface {
	// SupportedTransformations returns the conversions the transformer
	// declares. They are fixed when the transformer is constructed and
	// must be the same on every call; [NewRegistry] queries them once.
	SupportedTransformations() []Transformation
	// Transform converts the envelope's payload into a value of the given
	// output class. Stamps on the envelope may be read to parameterize the
	// conversion. If the transformer cannot perform the conversion for this
	// envelope, it returns an error matching ErrUnsupportedTransformation.
	Transform(ctx context.Context, envelope *Envelope, output Class) (any, error)
}

// TransformFunc performs one conversion step. See [Transformer.Transform].
type TransformFunc func(ctx context.Context, envelope *Envelope, output Class) (any, error)

// NewFuncTransformer returns a [Transformer] that declares the given
// transformations and delegates conversions to fn.
func NewFuncTransformer(fn TransformFunc, transformations ...Transformation) Transformer {
	return &funcTransformer{
		fn:              fn,
		transformations: slices.Clone(transformations),
	}
}

type funcTransformer struct {
	fn              TransformFunc
	transformations []Transformation
}

func (f *funcTransformer) SupportedTransformations() []Transformation {
	return slices.Clone(f.transformations)
}

func (f *funcTransformer) Transform(ctx context.Context, envelope *Envelope, output Class) (any, error) {
	input := envelope.InputClass()
	for _, transformation := range f.transformations {
		if transformation.Output == output && (transformation.Input == "" || transformation.Input == input) {
			return f.fn(ctx, envelope, output)
		}
	}
	return nil, Unsupported(input, output)
}
