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

package recipe

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/recipekit/pkg/defaults"
	"github.com/NVIDIA/recipekit/pkg/errors"
	"github.com/NVIDIA/recipekit/pkg/fingerprint"
	"github.com/NVIDIA/recipekit/pkg/header"
	"github.com/NVIDIA/recipekit/pkg/packager"
	"github.com/NVIDIA/recipekit/pkg/source"
)

var (
	//go:embed data/qtpromise.yaml
	builtinData []byte

	builtinOnce = sync.OnceValues(func() (Recipe, error) {
		return Parse(builtinData)
	})
)

// Identity is the static description of the wrapped library.
type Identity struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version" yaml:"version"`
	License     string `json:"license,omitempty" yaml:"license,omitempty"`
	Author      string `json:"author,omitempty" yaml:"author,omitempty"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Fields returns the identity as the key/value set hashed into fingerprints.
func (i Identity) Fields() map[string]string {
	return map[string]string{
		"name":        i.Name,
		"version":     i.Version,
		"license":     i.License,
		"author":      i.Author,
		"url":         i.URL,
		"description": i.Description,
	}
}

// document is the YAML schema of a recipe file.
type document struct {
	header.Header `json:",inline" yaml:",inline"`
	Identity      `json:",inline" yaml:",inline"`

	Settings  []string         `json:"settings,omitempty" yaml:"settings,omitempty"`
	PackageID fingerprint.Mode `json:"packageId,omitempty" yaml:"packageId,omitempty"`
	Source    source.Spec      `json:"source" yaml:"source"`
	Package   []packager.Rule  `json:"package" yaml:"package"`
	LibDirs   []string         `json:"libDirs,omitempty" yaml:"libDirs,omitempty"`
}

// Recipe describes how to fetch, package and describe one library. It is
// an immutable value: accessors return copies and the With* methods return
// modified copies.
type Recipe struct {
	doc     document
	fetcher source.Fetcher
}

// Builtin returns the QtPromise recipe.
func Builtin() Recipe {
	r, err := builtinOnce()
	if err != nil {
		panic(fmt.Sprintf("built-in recipe is invalid: %v", err))
	}
	return r
}

// Load reads and validates a recipe file.
func Load(path string) (Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Recipe{}, errors.WrapWithContext(errors.ErrCodeNotFound, "recipe file not found", err,
				map[string]any{"path": path})
		}
		return Recipe{}, errors.WrapWithContext(errors.ErrCodeInternal, "failed to read recipe file", err,
			map[string]any{"path": path})
	}
	r, err := Parse(data)
	if err != nil {
		return Recipe{}, errors.WrapWithContext(errors.ErrCodeInvalidRequest, "invalid recipe file", err,
			map[string]any{"path": path})
	}
	return r, nil
}

// Parse decodes and validates a YAML recipe. Unknown fields are rejected.
// An empty packageId defaults to header_only and empty libDirs to ["lib"].
func Parse(data []byte) (Recipe, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return Recipe{}, errors.Wrap(errors.ErrCodeInvalidRequest, "failed to parse recipe", err)
	}

	if doc.Kind == "" {
		doc.Kind = header.KindRecipe
	}
	if doc.APIVersion == "" {
		doc.APIVersion = header.APIVersion
	}
	if doc.PackageID == "" {
		doc.PackageID = fingerprint.ModeHeaderOnly
	}
	if len(doc.LibDirs) == 0 {
		doc.LibDirs = []string{defaults.LibDir}
	}

	r := Recipe{doc: doc}
	if err := r.Validate(); err != nil {
		return Recipe{}, err
	}
	return r, nil
}

// Validate checks that the recipe can drive all four stages.
func (r Recipe) Validate() error {
	d := r.doc
	var problems []string

	if d.Kind != header.KindRecipe {
		problems = append(problems, fmt.Sprintf("kind must be %s, got %q", header.KindRecipe, d.Kind))
	}
	if d.APIVersion != header.APIVersion {
		problems = append(problems, fmt.Sprintf("apiVersion must be %s, got %q", header.APIVersion, d.APIVersion))
	}
	if d.Name == "" {
		problems = append(problems, "name is required")
	}
	if d.Version == "" {
		problems = append(problems, "version is required")
	}
	if strings.ContainsAny(d.Name+d.Version, `/\`) {
		problems = append(problems, "name and version must not contain path separators")
	}
	if !d.PackageID.IsValid() {
		problems = append(problems, fmt.Sprintf("packageId %q is not one of %s, %s",
			d.PackageID, fingerprint.ModeHeaderOnly, fingerprint.ModeFull))
	}
	if err := d.Source.Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if len(d.Package) == 0 {
		problems = append(problems, "at least one package rule is required")
	}
	for _, rule := range d.Package {
		if err := rule.Validate(); err != nil {
			problems = append(problems, err.Error())
		}
	}
	seen := map[string]bool{}
	for _, k := range d.Settings {
		if k == "" {
			problems = append(problems, "settings keys must not be empty")
		} else if seen[k] {
			problems = append(problems, fmt.Sprintf("duplicate settings key %q", k))
		}
		seen[k] = true
	}
	for _, dir := range d.LibDirs {
		if dir == "" || strings.HasPrefix(dir, "/") || strings.HasPrefix(dir, "..") {
			problems = append(problems, fmt.Sprintf("libDir %q must be relative to the package root", dir))
		}
	}

	if len(problems) > 0 {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "invalid recipe",
			map[string]any{"problems": problems})
	}
	return nil
}

// Identity returns the identity fields.
func (r Recipe) Identity() Identity {
	return r.doc.Identity
}

// Reference returns "name/version", the cache key of the recipe.
func (r Recipe) Reference() string {
	return r.doc.Name + "/" + r.doc.Version
}

// SettingsKeys returns the declared settings keys, sorted.
func (r Recipe) SettingsKeys() []string {
	keys := append([]string(nil), r.doc.Settings...)
	sort.Strings(keys)
	return keys
}

// IDMode returns how settings participate in the fingerprint.
func (r Recipe) IDMode() fingerprint.Mode {
	return r.doc.PackageID
}

// Source returns where the recipe fetches its sources from.
func (r Recipe) Source() source.Spec {
	return r.doc.Source
}

// Rules returns the package copy rules in declaration order.
func (r Recipe) Rules() []packager.Rule {
	return append([]packager.Rule(nil), r.doc.Package...)
}

// LibDirs returns the package-relative library directories.
func (r Recipe) LibDirs() []string {
	return append([]string(nil), r.doc.LibDirs...)
}

// WithRef returns a copy of the recipe fetching ref instead of the
// default branch.
func (r Recipe) WithRef(ref string) Recipe {
	r.doc.Source.Ref = ref
	return r
}

// WithFetcher returns a copy of the recipe that acquires sources with f.
func (r Recipe) WithFetcher(f source.Fetcher) Recipe {
	r.fetcher = f
	return r
}

// MarshalYAML renders the recipe in its file format.
func (r Recipe) MarshalYAML() (any, error) {
	return r.doc, nil
}

// MarshalJSON renders the recipe in its file format.
func (r Recipe) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.doc)
}
