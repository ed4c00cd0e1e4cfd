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
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

// FiltersStampName is the name under which a [FiltersStamp] is kept in an
// envelope.
const FiltersStampName = "objtransform.protoconv.Filters"

// Filters is a slice of filters. When there is more than one element, they
// are applied in order. In other words, the first filter is evaluated first.
// The result of that is then provided as input to the second, and so on.
type Filters []Filter

func (f Filters) do(message protoreflect.Message) protoreflect.Message {
	for _, filter := range f {
		message = filter(message)
	}
	return message
}

// Filter alters the output message of a conversion. It may mutate the given
// message and return it, or return a different message of the same type.
type Filter func(protoreflect.Message) protoreflect.Message

// FiltersStamp carries filters that a [Transformer] applies, after the ones
// it was configured with, to the messages it produces.
type FiltersStamp struct {
	filters  Filters
	priority int
}

// NewFiltersStamp returns a stamp, with priority zero, carrying the given
// filters.
func NewFiltersStamp(filters ...Filter) FiltersStamp {
	return FiltersStamp{filters: append(Filters(nil), filters...)}
}

// WithPriority returns a copy of the stamp with the given priority.
func (s FiltersStamp) WithPriority(priority int) FiltersStamp {
	s.priority = priority
	return s
}

// Filters returns the stamp's filters.
func (s FiltersStamp) Filters() Filters {
	return append(Filters(nil), s.filters...)
}

// StampName implements objtransform.Stamp.
func (s FiltersStamp) StampName() string {
	return FiltersStampName
}

// Priority implements objtransform.Stamp.
func (s FiltersStamp) Priority() int {
	return s.priority
}

// Redact returns a Filter that removes information from a message. It invokes
// the given predicate for each field in the message (including in any nested
// messages) and _removes_ the field and corresponding value if the predicate
// returns true.
func Redact(predicate func(protoreflect.FieldDescriptor) bool) Filter {
	return func(msg protoreflect.Message) protoreflect.Message {
		redactMessage(msg, predicate)
		return msg
	}
}

// HasDebugRedactOption can be used as a predicate, with [Redact], to omit
// fields of the output message where the `debug_redact` option is set.
//
//	message UserDetails {
//	  int64 user_id = 1;
//	  string name = 2;
//	  string ssn = 3 [debug_redact=true];
//	}
func HasDebugRedactOption(fd protoreflect.FieldDescriptor) bool {
	opts, ok := fd.Options().(*descriptorpb.FieldOptions)
	return ok && opts.GetDebugRedact()
}

func redactMessage(message protoreflect.Message, redaction func(protoreflect.FieldDescriptor) bool) {
	message.Range(
		func(descriptor protoreflect.FieldDescriptor, value protoreflect.Value) bool {
			if redaction(descriptor) {
				message.Clear(descriptor)
				return true
			}
			switch {
			case descriptor.IsMap() && isMessage(descriptor.MapValue()):
				value.Map().Range(func(_ protoreflect.MapKey, mapValue protoreflect.Value) bool {
					redactMessage(mapValue.Message(), redaction)
					return true
				})
			case descriptor.IsList() && isMessage(descriptor):
				for i := 0; i < value.List().Len(); i++ {
					redactMessage(value.List().Get(i).Message(), redaction)
				}
			case !descriptor.IsMap() && isMessage(descriptor):
				// map fields are also messages (synthetic map entries)
				redactMessage(value.Message(), redaction)
			}
			return true
		},
	)
}

func isMessage(descriptor protoreflect.FieldDescriptor) bool {
	return descriptor.Kind() == protoreflect.MessageKind ||
		descriptor.Kind() == protoreflect.GroupKind
}
