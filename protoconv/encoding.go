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
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
)

// Encoding is the intermediate format a [Transformer] re-encodes messages
// through. It decides how fields of the input message are matched to fields
// of the output message: the binary format matches them by number, while
// the JSON and text formats match them by name.
type Encoding interface {
	// WithResolver returns the codec to use, resolving types in
	// google.protobuf.Any messages and extensions with the given Resolver.
	WithResolver(Resolver) Codec
}

// Codec marshals input messages and unmarshals output messages.
type Codec interface {
	Marshal(proto.Message) ([]byte, error)
	Unmarshal([]byte, proto.Message) error
}

// BinaryEncoding matches fields by number. Fields of the input that are not
// known to the output message are kept as unknown fields unless the
// unmarshal options discard them.
func BinaryEncoding(marshal proto.MarshalOptions, unmarshal proto.UnmarshalOptions) Encoding {
	return binaryEncoding{marshal: marshal, unmarshal: unmarshal}
}

type binaryEncoding struct {
	marshal   proto.MarshalOptions
	unmarshal proto.UnmarshalOptions
}

func (x binaryEncoding) WithResolver(in Resolver) Codec {
	x.unmarshal.Resolver = in
	return x
}

func (x binaryEncoding) Marshal(msg proto.Message) ([]byte, error) {
	return x.marshal.Marshal(msg)
}

func (x binaryEncoding) Unmarshal(data []byte, msg proto.Message) error {
	return x.unmarshal.Unmarshal(data, msg)
}

// JSONEncoding matches fields by JSON name. Fields of the input that are not
// present in the output message cause an error unless the unmarshal options
// set DiscardUnknown.
func JSONEncoding(marshal protojson.MarshalOptions, unmarshal protojson.UnmarshalOptions) Encoding {
	return jsonEncoding{marshal: marshal, unmarshal: unmarshal}
}

type jsonEncoding struct {
	marshal   protojson.MarshalOptions
	unmarshal protojson.UnmarshalOptions
}

func (x jsonEncoding) WithResolver(in Resolver) Codec {
	x.marshal.Resolver = in
	x.unmarshal.Resolver = in
	return x
}

func (x jsonEncoding) Marshal(msg proto.Message) ([]byte, error) {
	return x.marshal.Marshal(msg)
}

func (x jsonEncoding) Unmarshal(data []byte, msg proto.Message) error {
	return x.unmarshal.Unmarshal(data, msg)
}

// TextEncoding matches fields by name using the text format.
func TextEncoding(marshal prototext.MarshalOptions, unmarshal prototext.UnmarshalOptions) Encoding {
	return textEncoding{marshal: marshal, unmarshal: unmarshal}
}

type textEncoding struct {
	marshal   prototext.MarshalOptions
	unmarshal prototext.UnmarshalOptions
}

func (x textEncoding) WithResolver(in Resolver) Codec {
	x.marshal.Resolver = in
	x.unmarshal.Resolver = in
	return x
}

func (x textEncoding) Marshal(msg proto.Message) ([]byte, error) {
	return x.marshal.Marshal(msg)
}

func (x textEncoding) Unmarshal(data []byte, msg proto.Message) error {
	return x.unmarshal.Unmarshal(data, msg)
}

// EncodingWithoutResolver adapts a codec that needs no Resolver.
func EncodingWithoutResolver(in Codec) Encoding {
	return encodingWithoutResolver{Codec: in}
}

type encodingWithoutResolver struct {
	Codec
}

func (x encodingWithoutResolver) WithResolver(_ Resolver) Codec {
	return x.Codec
}
