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

package oci

import (
	"strings"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/NVIDIA/recipekit/pkg/recipe"
)

// Annotation keys specific to recipekit artifacts.
const (
	AnnotationReference   = "com.nvidia.recipekit.reference"
	AnnotationFingerprint = "com.nvidia.recipekit.fingerprint"
	AnnotationLibs        = "com.nvidia.recipekit.libs"
)

// PackageAnnotations describes a package for its manifest: the standard
// OCI annotations from the recipe identity, plus the fingerprint and upstream
// revision from info when known.
func PackageAnnotations(id recipe.Identity, info *recipe.PackageInfo) map[string]string {
	a := map[string]string{
		ociv1.AnnotationTitle:   id.Name,
		ociv1.AnnotationVersion: id.Version,
		AnnotationReference:     id.Name + "/" + id.Version,
	}
	set := func(k, v string) {
		if v != "" {
			a[k] = v
		}
	}
	set(ociv1.AnnotationDescription, id.Description)
	set(ociv1.AnnotationLicenses, id.License)
	set(ociv1.AnnotationAuthors, id.Author)
	set(ociv1.AnnotationURL, id.URL)

	if info == nil {
		return a
	}
	set(AnnotationFingerprint, info.Fingerprint)
	set(AnnotationLibs, strings.Join(info.Libs, ","))
	if info.Source != nil {
		set(ociv1.AnnotationSource, info.Source.URL)
		set(ociv1.AnnotationRevision, info.Source.Commit)
	}
	return a
}
