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

// Package header provides the common header carried by recipekit documents.
//
// Recipe files, package info files and command results all start with the
// same three fields:
//
//	apiVersion: recipekit.nvidia.com/v1alpha1
//	kind: PackageInfo
//	metadata:
//	  timestamp: "2025-12-30T10:30:00Z"
//	  version: v0.3.0
//
// Embed Header inline in document types:
//
//	type Info struct {
//	    header.Header `json:",inline" yaml:",inline"`
//	    Libs []string `json:"libs" yaml:"libs"`
//	}
//
// Consumers should check APIVersion and Kind before interpreting the rest of
// a document.
package header
