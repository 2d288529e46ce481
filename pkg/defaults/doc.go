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

// Package defaults provides centralized configuration constants for recipekit.
//
// This package defines stage timeouts, registry timeouts and filesystem
// defaults used across the codebase.
//
// # Timeout Categories
//
//   - Stage timeouts: source, package and info stages of a create invocation
//   - Registry timeouts: package upload to OCI registries
//
// # Usage
//
//	import "github.com/NVIDIA/recipekit/pkg/defaults"
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.FetchTimeout)
//	defer cancel()
//
// # Timeout Guidelines
//
//   - Fetch: minutes, the upstream clone is the only network-bound stage
//   - Package: minutes, bounded by local disk throughput
//   - Info: seconds, a single directory listing
package defaults
