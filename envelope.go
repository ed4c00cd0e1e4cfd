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
	"errors"
	"fmt"
	"reflect"
	"slices"
)

// ErrNotATransformationStamp is matched by the error returned from [Wrap]
// and [WrapValues] when one of the offered values is not a usable [Stamp].
var ErrNotATransformationStamp = errors.New("not a transformation stamp")

// NotATransformationStampError describes a value that was offered to an
// envelope as a stamp but does not satisfy the [Stamp] contract.
type NotATransformationStampError struct {
	// Index is the position of the value in the offered list.
	Index int
	// Value is the rejected value.
	Value any
	// Conflict, if non-nil, is a stamp of another type already kept under
	// the same name.
	Conflict Stamp
}

func (e *NotATransformationStampError) Error() string {
	if e.Conflict != nil {
		return fmt.Sprintf("stamp #%d (%T) is %v: name %q is taken by %T",
			e.Index, e.Value, ErrNotATransformationStamp, e.Conflict.StampName(), e.Conflict)
	}
	return fmt.Sprintf("stamp #%d (%T) is %v", e.Index, e.Value, ErrNotATransformationStamp)
}

// Is reports whether target is [ErrNotATransformationStamp].
func (e *NotATransformationStampError) Is(target error) bool {
	return target == ErrNotATransformationStamp
}

// Envelope pairs a payload with a set of stamps, at most one per
// [Stamp.StampName]. Envelopes are created with [Wrap] and are never
// modified afterwards, so they can be shared freely between goroutines.
// Operations that would change an envelope return a new one instead.
type Envelope struct {
	input  any
	order  []string
	stamps map[string]Stamp
}

// Wrap returns a new envelope for the given payload. If payloadOrEnvelope
// is itself an *Envelope, its payload and stamps seed the new envelope; the
// given envelope is not modified.
//
// The stamps are then merged on top, in order: a stamp whose name is not
// yet present is added, and a stamp whose name is present replaces the
// current one only if its priority is strictly greater. Every stamp is
// validated first, and if any is unusable no envelope is returned and the
// error matches [ErrNotATransformationStamp]. A stamp name belongs to a
// single Go type: a stamp whose name is already held by a stamp of another
// type is rejected the same way.
func Wrap(payloadOrEnvelope any, stamps ...Stamp) (*Envelope, error) {
	for i, stamp := range stamps {
		if !isValidStamp(stamp) {
			return nil, &NotATransformationStampError{Index: i, Value: stamp}
		}
	}
	envelope := seed(payloadOrEnvelope, len(stamps))
	for i, stamp := range stamps {
		if current, ok := envelope.stamps[stamp.StampName()]; ok && reflect.TypeOf(current) != reflect.TypeOf(stamp) {
			return nil, &NotATransformationStampError{Index: i, Value: stamp, Conflict: current}
		}
		envelope.merge(stamp)
	}
	return envelope, nil
}

// WrapValues is like [Wrap] but accepts arbitrary values as stamp
// candidates. Any value that does not implement [Stamp] is rejected.
func WrapValues(payloadOrEnvelope any, candidates ...any) (*Envelope, error) {
	stamps := make([]Stamp, len(candidates))
	for i, candidate := range candidates {
		stamp, ok := candidate.(Stamp)
		if !ok {
			return nil, &NotATransformationStampError{Index: i, Value: candidate}
		}
		stamps[i] = stamp
	}
	return Wrap(payloadOrEnvelope, stamps...)
}

func isValidStamp(stamp Stamp) bool {
	if stamp == nil {
		return false
	}
	if val := reflect.ValueOf(stamp); val.Kind() == reflect.Pointer && val.IsNil() {
		return false
	}
	return stamp.StampName() != ""
}

func seed(payloadOrEnvelope any, extra int) *Envelope {
	source, ok := payloadOrEnvelope.(*Envelope)
	if !ok || source == nil {
		if ok {
			payloadOrEnvelope = nil
		}
		return &Envelope{
			input:  payloadOrEnvelope,
			order:  make([]string, 0, extra),
			stamps: make(map[string]Stamp, extra),
		}
	}
	envelope := &Envelope{
		input:  source.input,
		order:  make([]string, len(source.order), len(source.order)+extra),
		stamps: make(map[string]Stamp, len(source.stamps)+extra),
	}
	copy(envelope.order, source.order)
	for name, stamp := range source.stamps {
		envelope.stamps[name] = stamp
	}
	return envelope
}

// merge must only be called on an envelope that has not been handed out yet.
func (e *Envelope) merge(stamp Stamp) {
	name := stamp.StampName()
	current, ok := e.stamps[name]
	if !ok {
		e.order = append(e.order, name)
		e.stamps[name] = stamp
		return
	}
	if stamp.Priority() > current.Priority() {
		e.stamps[name] = stamp
	}
}

// Input returns the envelope's payload.
func (e *Envelope) Input() any {
	if e == nil {
		return nil
	}
	return e.input
}

// Stamp returns the stamp kept under the given name, or nil if there is none.
func (e *Envelope) Stamp(name string) Stamp {
	if e == nil {
		return nil
	}
	return e.stamps[name]
}

// Stamps returns the envelope's stamps, one per name, in the order in which
// each name was first added.
func (e *Envelope) Stamps() []Stamp {
	if e == nil {
		return nil
	}
	stamps := make([]Stamp, len(e.order))
	for i, name := range e.order {
		stamps[i] = e.stamps[name]
	}
	return stamps
}

// Len returns the number of stamps in the envelope.
func (e *Envelope) Len() int {
	if e == nil {
		return 0
	}
	return len(e.order)
}

// RemoveStamp returns an envelope with the same payload and stamps except
// for the one kept under the given name. Removing a name that is not present
// is not an error.
func (e *Envelope) RemoveStamp(name string) *Envelope {
	envelope := seed(e, 0)
	if _, ok := envelope.stamps[name]; !ok {
		return envelope
	}
	delete(envelope.stamps, name)
	envelope.order = slices.DeleteFunc(envelope.order, func(n string) bool {
		return n == name
	})
	return envelope
}

// InputClass returns the class used to resolve transformers for the
// envelope's payload: the class named by its [InputClassStamp] if there is
// one, or else [ClassOf] the payload.
func (e *Envelope) InputClass() Class {
	if stamp, ok := e.Stamp(InputClassStampName).(InputClassStamp); ok && stamp.InputClass() != "" {
		return stamp.InputClass()
	}
	return ClassOf(e.Input())
}
