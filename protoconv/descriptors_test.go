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
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

const (
	userV1Name      = "foo.v1.UserV1"
	userV2Name      = "foo.v1.UserV2"
	userSummaryName = "foo.v1.UserSummary"
)

func field(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type, jsonName string) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(name),
		Number:   proto.Int32(number),
		Type:     typ.Enum(),
		Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		JsonName: proto.String(jsonName),
	}
}

// fakeFileDescriptorSet describes foo/v1/user.proto:
//
//	enum Kind {
//	  KIND_UNSPECIFIED = 0;
//	  KIND_HUMAN = 1;
//	  KIND_ROBOT = 2;
//	}
//	message UserV1 {
//	  int64 user_id = 1;
//	  string name = 2;
//	  string ssn = 3;
//	}
//	message UserV2 {
//	  int64 user_id = 1;
//	  string name = 2;
//	  string ssn = 3 [debug_redact = true];
//	  Kind kind = 4;
//	  repeated UserV2 friends = 5;
//	  map<string, UserV2> by_role = 6;
//	}
//	message UserSummary {
//	  string name = 1;
//	  int64 user_id = 2;
//	}
func fakeFileDescriptorSet() *descriptorpb.FileDescriptorSet {
	redactedSSN := field("ssn", 3, descriptorpb.FieldDescriptorProto_TYPE_STRING, "ssn")
	redactedSSN.Options = &descriptorpb.FieldOptions{DebugRedact: proto.Bool(true)}
	kind := field("kind", 4, descriptorpb.FieldDescriptorProto_TYPE_ENUM, "kind")
	kind.TypeName = proto.String(".foo.v1.Kind")
	friends := field("friends", 5, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, "friends")
	friends.TypeName = proto.String(".foo.v1.UserV2")
	friends.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	byRole := field("by_role", 6, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, "byRole")
	byRole.TypeName = proto.String(".foo.v1.UserV2.ByRoleEntry")
	byRole.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	mapValue := field("value", 2, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, "value")
	mapValue.TypeName = proto.String(".foo.v1.UserV2")

	return &descriptorpb.FileDescriptorSet{
		File: []*descriptorpb.FileDescriptorProto{
			{
				Name:    proto.String("foo/v1/user.proto"),
				Syntax:  proto.String("proto3"),
				Package: proto.String("foo.v1"),
				EnumType: []*descriptorpb.EnumDescriptorProto{
					{
						Name: proto.String("Kind"),
						Value: []*descriptorpb.EnumValueDescriptorProto{
							{Name: proto.String("KIND_UNSPECIFIED"), Number: proto.Int32(0)},
							{Name: proto.String("KIND_HUMAN"), Number: proto.Int32(1)},
							{Name: proto.String("KIND_ROBOT"), Number: proto.Int32(2)},
						},
					},
				},
				MessageType: []*descriptorpb.DescriptorProto{
					{
						Name: proto.String("UserV1"),
						Field: []*descriptorpb.FieldDescriptorProto{
							field("user_id", 1, descriptorpb.FieldDescriptorProto_TYPE_INT64, "userId"),
							field("name", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING, "name"),
							field("ssn", 3, descriptorpb.FieldDescriptorProto_TYPE_STRING, "ssn"),
						},
					},
					{
						Name: proto.String("UserV2"),
						Field: []*descriptorpb.FieldDescriptorProto{
							field("user_id", 1, descriptorpb.FieldDescriptorProto_TYPE_INT64, "userId"),
							field("name", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING, "name"),
							redactedSSN,
							kind,
							friends,
							byRole,
						},
						NestedType: []*descriptorpb.DescriptorProto{
							{
								Name: proto.String("ByRoleEntry"),
								Field: []*descriptorpb.FieldDescriptorProto{
									field("key", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING, "key"),
									mapValue,
								},
								Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
							},
						},
					},
					{
						Name: proto.String("UserSummary"),
						Field: []*descriptorpb.FieldDescriptorProto{
							field("name", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING, "name"),
							field("user_id", 2, descriptorpb.FieldDescriptorProto_TYPE_INT64, "userId"),
						},
					},
				},
			},
		},
	}
}

func fakeResolver(t *testing.T) Resolver {
	t.Helper()
	resolver, err := NewResolver(fakeFileDescriptorSet())
	require.NoError(t, err)
	return resolver
}

// newMessage returns a new message of the given type, with the given fields
// set by name.
func newMessage(t *testing.T, resolver Resolver, name protoreflect.FullName, fields map[protoreflect.Name]protoreflect.Value) protoreflect.Message {
	t.Helper()
	messageType, err := resolver.FindMessageByName(name)
	require.NoError(t, err)
	message := messageType.New()
	for fieldName, value := range fields {
		fd := message.Descriptor().Fields().ByName(fieldName)
		require.NotNil(t, fd, "no field %q in %q", fieldName, name)
		message.Set(fd, value)
	}
	return message
}

func newUser(t *testing.T, resolver Resolver, name protoreflect.FullName, id int64, userName, ssn string) protoreflect.Message {
	t.Helper()
	return newMessage(t, resolver, name, map[protoreflect.Name]protoreflect.Value{
		"user_id": protoreflect.ValueOfInt64(id),
		"name":    protoreflect.ValueOfString(userName),
		"ssn":     protoreflect.ValueOfString(ssn),
	})
}
