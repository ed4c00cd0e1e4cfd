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

// Package protoconv provides an objtransform.Transformer between Protobuf
// message types. Message types are looked up by full name in a [Resolver],
// which can be the global registry, built from a FileDescriptorSet with
// [NewResolver], or downloaded from the Buf Schema Registry with
// [FetchResolver].
package protoconv
