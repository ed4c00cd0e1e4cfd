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

// Package objtransform converts values of one class into values of another
// class through pluggable transformers, carrying metadata alongside the
// value through every step of the conversion.
//
// A payload travels in an [Envelope] together with [Stamp] values, at most
// one per kind, where a stamp with a higher priority overrides one with a
// lower priority. Each [Transformer] declares the conversions it supports as
// pairs of [Class] identifiers and performs one conversion step. A
// [Registry] collects transformers, and a [Resolver] uses it to convert a
// payload into a requested class, chaining several transformers together
// when no single one converts the payload's class directly.
//
// Chains found by the resolver can be shared across processes with a
// [Cache]; see the cache sub-packages for implementations backed by files,
// Memcached and Redis. The protoconv sub-package provides a transformer
// between Protobuf message types.
package objtransform
