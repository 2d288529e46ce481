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
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/NVIDIA/recipekit/pkg/defaults"
	"github.com/NVIDIA/recipekit/pkg/errors"
	"github.com/NVIDIA/recipekit/pkg/fingerprint"
	"github.com/NVIDIA/recipekit/pkg/header"
	"github.com/NVIDIA/recipekit/pkg/libscan"
	"github.com/NVIDIA/recipekit/pkg/packager"
	"github.com/NVIDIA/recipekit/pkg/source"
)

// Settings is one build settings tuple (os, compiler, build_type, arch).
type Settings map[string]string

// ParseSettings parses "key=value" pairs. Later pairs override earlier ones.
func ParseSettings(pairs []string) (Settings, error) {
	s := Settings{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
				"setting must be in key=value form", map[string]any{"setting": p})
		}
		s[k] = strings.TrimSpace(v)
	}
	return s, nil
}

// SourceResult is the outcome of AcquireSource.
type SourceResult struct {
	// Dir is the root of the cloned tree.
	Dir      string          `json:"dir" yaml:"dir"`
	Revision source.Revision `json:"revision" yaml:"revision"`
}

// PackageInfo is the build metadata a package exposes to its consumers.
type PackageInfo struct {
	header.Header `json:",inline" yaml:",inline"`

	Reference string `json:"reference" yaml:"reference"`
	// Libs are the linkable library names, sorted. Empty for header-only
	// packages.
	Libs        []string         `json:"libs" yaml:"libs"`
	Fingerprint string           `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Settings    Settings         `json:"settings,omitempty" yaml:"settings,omitempty"`
	Source      *source.Revision `json:"source,omitempty" yaml:"source,omitempty"`
}

// ComputeIdentity returns the package fingerprint for settings. Under the
// header_only package id every settings tuple yields the same fingerprint.
// Settings keys the recipe does not declare are rejected.
func (r Recipe) ComputeIdentity(settings Settings) (fingerprint.Fingerprint, error) {
	if err := r.checkSettings(settings); err != nil {
		return fingerprint.Fingerprint{}, err
	}
	fp := fingerprint.Compute(r.Identity().Fields(), settings, r.IDMode())
	slog.Debug("package identity computed",
		"reference", r.Reference(),
		"mode", fp.Mode,
		"fingerprint", fp.String(),
	)
	return fp, nil
}

func (r Recipe) checkSettings(settings Settings) error {
	declared := make(map[string]bool, len(r.doc.Settings))
	for _, k := range r.doc.Settings {
		declared[k] = true
	}
	var unknown []string
	for k := range settings {
		if !declared[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return errors.NewWithContext(errors.ErrCodeInvalidRequest,
		fmt.Sprintf("unknown settings: %s", strings.Join(unknown, ", ")),
		map[string]any{"allowed": r.SettingsKeys(), "unknown": unknown})
}

// AcquireSource fetches the recipe source into workDir/<clone dir>. A
// failed fetch leaves no clone directory behind.
func (r Recipe) AcquireSource(ctx context.Context, workDir string) (*SourceResult, error) {
	f := r.fetcher
	if f == nil {
		f = source.NewGitFetcher()
	}

	ctx, cancel := context.WithTimeout(ctx, defaults.FetchTimeout)
	defer cancel()

	spec := r.Source()
	dest := filepath.Join(workDir, spec.CloneDir())

	start := time.Now()
	rev, err := f.Fetch(ctx, spec, dest)
	if err != nil {
		return nil, err
	}

	slog.Info("source acquired",
		"reference", r.Reference(),
		"url", rev.URL,
		"commit", rev.Commit,
		"dir", dest,
		"duration", time.Since(start).String(),
	)
	return &SourceResult{Dir: dest, Revision: *rev}, nil
}

// BuildPackage copies the files selected by the recipe's rules from
// sourceRoot into destRoot. Nothing is written when any rule source is
// missing.
func (r Recipe) BuildPackage(ctx context.Context, sourceRoot, destRoot string) (*packager.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.PackageTimeout)
	defer cancel()

	return packager.Package(ctx, sourceRoot, destRoot, r.Rules())
}

// DescribePackageInfo lists the libraries a consumer links against.
// Header-only packages yield an empty list.
func (r Recipe) DescribePackageInfo(packageRoot string) (*PackageInfo, error) {
	libs, err := libscan.Scan(packageRoot, r.LibDirs())
	if err != nil {
		return nil, err
	}
	return &PackageInfo{
		Header:    *header.New(header.WithKind(header.KindPackageInfo), header.WithAPIVersion(header.APIVersion)),
		Reference: r.Reference(),
		Libs:      libs,
	}, nil
}
