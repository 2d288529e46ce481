// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package defaults

import "time"

// Stage timeouts for the packaging pipeline. A zero value disables the
// per-stage deadline and leaves only the parent context in effect.
const (
	// FetchTimeout bounds the source stage (clone of the upstream repository).
	FetchTimeout = 10 * time.Minute

	// PackageTimeout bounds the package stage (tree copy into the package root).
	PackageTimeout = 5 * time.Minute

	// InfoTimeout bounds the info stage (library discovery).
	InfoTimeout = 30 * time.Second

	// CreateTimeout bounds a full create invocation. It must exceed the sum of
	// the stage timeouts so a slow stage fails with its own error.
	CreateTimeout = 20 * time.Minute
)

// Registry timeouts for package upload.
const (
	// PushTimeout is the timeout for pushing a package tree to an OCI registry.
	PushTimeout = 5 * time.Minute

	// HTTPTLSHandshakeTimeout is the timeout for the registry TLS handshake.
	HTTPTLSHandshakeTimeout = 10 * time.Second

	// HTTPResponseHeaderTimeout is the timeout for reading registry response headers.
	HTTPResponseHeaderTimeout = 30 * time.Second
)
