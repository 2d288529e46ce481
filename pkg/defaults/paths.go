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

// Filesystem defaults.
const (
	// HomeDirName is the cache directory created under the user's home.
	HomeDirName = ".recipekit"

	// EnvVarHome overrides the cache root.
	EnvVarHome = "RECIPEKIT_HOME"

	// LibDir is the package-relative directory scanned for linkable libraries
	// when a recipe does not declare its own.
	LibDir = "lib"

	// CloneDepth is the history depth fetched by the source stage.
	CloneDepth = 1

	// ChecksumWorkers bounds concurrent file hashing.
	ChecksumWorkers = 8
)
