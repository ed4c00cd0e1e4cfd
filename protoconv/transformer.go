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

package protoconv

import (
	"context"
	"fmt"
	"slices"

	"github.com/bufbuild/objtransform"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
)

// Config contains the configurable attributes of a [Transformer].
type Config struct {
	// Transformations declares the conversions the transformer performs.
	// Both classes are fully-qualified message names, and each must be
	// known to Resolver. An empty Input accepts any message. Required.
	Transformations []objtransform.Transformation
	// Resolver is used to look up output message types, and to resolve
	// google.protobuf.Any messages and extensions while re-encoding. If
	// nil, this defaults to using protoregistry.GlobalTypes.
	Resolver Resolver
	// Encoding is the intermediate format messages are re-encoded through.
	// If nil, the binary format is used, so fields are matched by number.
	Encoding Encoding
	// Filters are applied to every message the transformer produces,
	// before any filters carried by a [FiltersStamp].
	Filters Filters
}

func (c *Config) validate() error {
	if len(c.Transformations) == 0 {
		return fmt.Errorf("no transformations declared")
	}
	for _, transformation := range c.Transformations {
		for _, class := range []objtransform.Class{transformation.Input, transformation.Output} {
			if class == "" {
				continue
			}
			if !protoreflect.FullName(class).IsValid() {
				return fmt.Errorf("%q is not a valid message name", class)
			}
			if _, err := c.Resolver.FindMessageByName(protoreflect.FullName(class)); err != nil {
				return errors.Wrapf(err, "message %q cannot be resolved", class)
			}
		}
		if transformation.Output == "" {
			return fmt.Errorf("transformation %v has no output message", transformation)
		}
	}
	return nil
}

// Transformer converts Protobuf messages of one type into another type by
// marshaling the input and unmarshaling the result into a new message of the
// output type. This suits types that evolved from one another, or that share
// field numbers or names.
type Transformer struct {
	transformations []objtransform.Transformation
	resolver        Resolver
	codec           Codec
	filters         Filters
}

var _ objtransform.Transformer = (*Transformer)(nil)

// New returns a [Transformer] for the given [Config]. The config is validated
// first, and a non-nil error is returned if it is not valid.
func New(config Config) (*Transformer, error) {
	if config.Resolver == nil {
		config.Resolver = protoregistry.GlobalTypes
	}
	if config.Encoding == nil {
		config.Encoding = BinaryEncoding(proto.MarshalOptions{}, proto.UnmarshalOptions{})
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &Transformer{
		transformations: slices.Clone(config.Transformations),
		resolver:        config.Resolver,
		codec:           config.Encoding.WithResolver(config.Resolver),
		filters:         slices.Clone(config.Filters),
	}, nil
}

// SupportedTransformations implements objtransform.Transformer.
func (t *Transformer) SupportedTransformations() []objtransform.Transformation {
	if t == nil {
		return nil
	}
	return slices.Clone(t.transformations)
}

// Transform implements objtransform.Transformer. The envelope's payload must
// be a proto.Message, and the output class the name of a message type the
// transformer declared for the payload's class.
func (t *Transformer) Transform(_ context.Context, envelope *objtransform.Envelope, output objtransform.Class) (any, error) {
	input := envelope.InputClass()
	msg, ok := envelope.Input().(proto.Message)
	if !ok || !t.supports(input, output) {
		return nil, objtransform.Unsupported(input, output)
	}
	messageType, err := t.resolver.FindMessageByName(protoreflect.FullName(output))
	if err != nil {
		return nil, errors.Wrapf(err, "message %q is not found", output)
	}
	data, err := t.codec.Marshal(msg)
	if err != nil {
		return nil, errors.Wrapf(err, "input message %q cannot be marshaled", input)
	}
	result := messageType.New()
	if err := t.codec.Unmarshal(data, result.Interface()); err != nil {
		return nil, fmt.Errorf("input message %q cannot be unmarshaled to %q: %w", input, output, err)
	}

	// apply filters
	result = t.filters.do(result)
	if stamp, ok := objtransform.StampOf[FiltersStamp](envelope); ok {
		result = stamp.filters.do(result)
	}
	return result.Interface(), nil
}

func (t *Transformer) supports(input, output objtransform.Class) bool {
	for _, transformation := range t.transformations {
		if transformation.Output == output && (transformation.Input == "" || transformation.Input == input) {
			return true
		}
	}
	return false
}
