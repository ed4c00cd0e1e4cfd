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

import "maps"

const (
	// InputClassStampName is the name under which an [InputClassStamp] is
	// kept in an [Envelope].
	InputClassStampName = "objtransform.InputClass"
	// AdditionalDataStampName is the name under which an
	// [AdditionalDataStamp] is kept in an [Envelope].
	AdditionalDataStampName = "objtransform.AdditionalData"
)

// Stamp is a unit of metadata carried in an [Envelope] next to the payload.
// Stamps must be immutable once constructed.
//
// An envelope keeps at most one stamp per StampName. When several stamps
// with the same name are offered, the one with the strictly highest
// Priority is kept; on a tie, the one offered first wins.
type Stamp interface {
	// StampName identifies the kind of stamp. It must be non-empty, the
	// same for every value of a given stamp type, and not used by any other
	// stamp type.
	StampName() string
	// Priority ranks competing stamps of the same kind. The default is zero.
	Priority() int
}

// StampOf returns the stamp of type T kept in the given envelope, if any.
func StampOf[T Stamp](envelope *Envelope) (T, bool) {
	var zero T
	if envelope == nil {
		return zero, false
	}
	for _, name := range envelope.order {
		if stamp, ok := envelope.stamps[name].(T); ok {
			return stamp, true
		}
	}
	return zero, false
}

// InputClassStamp overrides the class used to resolve transformers for an
// envelope's payload, which otherwise is [ClassOf] the payload.
type InputClassStamp struct {
	class    Class
	priority int
}

// NewInputClassStamp returns a stamp, with priority zero, that makes the
// payload be treated as the given class.
func NewInputClassStamp(class Class) InputClassStamp {
	return InputClassStamp{class: class}
}

// WithPriority returns a copy of the stamp with the given priority.
func (s InputClassStamp) WithPriority(priority int) InputClassStamp {
	s.priority = priority
	return s
}

// InputClass returns the class the payload should be treated as.
func (s InputClassStamp) InputClass() Class {
	return s.class
}

// StampName implements [Stamp].
func (s InputClassStamp) StampName() string {
	return InputClassStampName
}

// Priority implements [Stamp].
func (s InputClassStamp) Priority() int {
	return s.priority
}

// AdditionalDataStamp carries arbitrary key/value data that transformers
// can use to parameterize a conversion.
type AdditionalDataStamp struct {
	data     map[string]any
	priority int
}

// NewAdditionalDataStamp returns a stamp, with priority zero, holding a copy
// of the given data.
func NewAdditionalDataStamp(data map[string]any) AdditionalDataStamp {
	return AdditionalDataStamp{data: maps.Clone(data)}
}

// WithPriority returns a copy of the stamp with the given priority.
func (s AdditionalDataStamp) WithPriority(priority int) AdditionalDataStamp {
	s.priority = priority
	return s
}

// Data returns a copy of the stamp's data.
func (s AdditionalDataStamp) Data() map[string]any {
	return maps.Clone(s.data)
}

// Value returns the value stored under key.
func (s AdditionalDataStamp) Value(key string) (any, bool) {
	val, ok := s.data[key]
	return val, ok
}

// StampName implements [Stamp].
func (s AdditionalDataStamp) StampName() string {
	return AdditionalDataStampName
}

// Priority implements [Stamp].
func (s AdditionalDataStamp) Priority() int {
	return s.priority
}
