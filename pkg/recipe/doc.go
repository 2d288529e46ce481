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

// Package recipe defines package recipes and their four stages.
//
// A Recipe answers, in order:
//
//  1. ComputeIdentity: the package fingerprint for a settings tuple
//  2. AcquireSource: where the source comes from (a git clone)
//  3. BuildPackage: which files form the package (copy rules)
//  4. DescribePackageInfo: which libraries consumers link against
//
// The stages never call each other; pkg/pipeline drives them.
//
// # Recipes
//
// Builtin returns the QtPromise recipe compiled into the binary. Other
// recipes are YAML files with the same schema:
//
//	kind: Recipe
//	apiVersion: recipekit.nvidia.com/v1alpha1
//	name: QtPromise
//	version: master
//	license: QtPromise is available under the MIT license.
//	settings: [os, compiler, build_type, arch]
//	packageId: header_only
//	source:
//	  url: https://github.com/simonbrunel/qtpromise.git
//	  ref: v0.7.0        # optional, default branch tip when unset
//	package:
//	  - {pattern: "*", src: include, dst: include}
//	  - {pattern: "*", src: src, dst: src}
//	libDirs: [lib]
//
// # Package id
//
// With packageId header_only the fingerprint depends on the identity
// fields only, so one package serves every os/compiler/build_type/arch
// combination. With full, the settings are folded in.
//
// Recipe values are immutable; WithRef and WithFetcher return copies.
package recipe
