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
	"reflect"
	"strings"

	"google.golang.org/protobuf/proto"
)

// Class identifies the logical class of a payload. Transformers declare the
// classes they accept and produce, and the [Resolver] connects them.
type Class string

// Classifier can be implemented by payloads whose logical class differs from
// their Go type.
type Classifier interface {
	TransformationClass() Class
}

var (
	classifierType   = reflect.TypeOf((*Classifier)(nil)).Elem()
	protoMessageType = reflect.TypeOf((*proto.Message)(nil)).Elem()
)

// ClassOf returns the logical class of the given value. Payloads that
// implement [Classifier] name their own class. Protobuf messages are
// identified by the full name of their message descriptor, so generated and
// dynamic messages of the same type share a class. Everything else is
// identified by its Go type, qualified with the package import path.
func ClassOf(v any) Class {
	switch v := v.(type) {
	case nil:
		return ""
	case Classifier:
		return v.TransformationClass()
	case proto.Message:
		return Class(v.ProtoReflect().Descriptor().FullName())
	}
	return classOfType(reflect.TypeOf(v))
}

// ClassFor returns the logical class of values of type T. It uses the same
// rules as [ClassOf], applied to the zero value of T where T names its own
// class.
func ClassFor[T any]() Class {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Implements(classifierType) || typ.Implements(protoMessageType) {
		var zero T
		if class := zeroClass(zero); class != "" {
			return class
		}
	}
	return classOfType(typ)
}

// zeroClass asks a zero value for its class. Generated protobuf messages
// answer from a nil pointer, but other implementations may dereference the
// receiver, in which case the type name is used instead.
func zeroClass(zero any) (class Class) {
	defer func() {
		if recover() != nil {
			class = ""
		}
	}()
	return ClassOf(zero)
}

func classOfType(typ reflect.Type) Class {
	if typ == nil {
		return ""
	}
	var prefix strings.Builder
	for typ.Kind() == reflect.Pointer {
		prefix.WriteByte('*')
		typ = typ.Elem()
	}
	if typ.Name() == "" || typ.PkgPath() == "" {
		return Class(prefix.String() + typ.String())
	}
	return Class(prefix.String() + typ.PkgPath() + "." + typ.Name())
}
