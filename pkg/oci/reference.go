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
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/distribution/reference"

	apperrors "github.com/NVIDIA/recipekit/pkg/errors"
)

// URIScheme is the URI scheme for OCI registry targets (e.g., "oci://ghcr.io/org/repo:tag").
const URIScheme = "oci://"

// Reference is a parsed upload target: either an OCI registry reference or
// a local directory that receives an OCI Image Layout.
type Reference struct {
	// IsOCI indicates whether this is an OCI registry reference (true) or local path (false).
	IsOCI bool
	// Registry is the OCI registry host (e.g., "ghcr.io", "localhost:5000").
	Registry string
	// Repository is the repository path (e.g., "nvidia/qtpromise").
	Repository string
	// Tag is empty when the target carried none; the caller applies a default.
	// Local targets only get a tag through WithTag.
	Tag string
	// LocalPath is the layout directory for non-OCI targets.
	LocalPath string
}

// ParseOutputTarget parses "oci://registry/repository[:tag]" or a plain
// directory path.
func ParseOutputTarget(target string) (*Reference, error) {
	if target == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "output target is required")
	}
	if !strings.HasPrefix(target, URIScheme) {
		return &Reference{
			IsOCI:     false,
			LocalPath: target,
		}, nil
	}

	ref, err := reference.ParseNormalizedNamed(strings.TrimPrefix(target, URIScheme))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "invalid OCI reference", err)
	}
	if _, ok := ref.(reference.Digested); ok {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"OCI target must not carry a digest", map[string]any{"target": target})
	}

	registry := reference.Domain(ref)
	repository := reference.Path(ref)

	var tag string
	if tagged, ok := ref.(reference.Tagged); ok {
		tag = tagged.Tag()
	}

	if err := ValidateRegistryReference(registry, repository); err != nil {
		return nil, err
	}

	return &Reference{
		IsOCI:      true,
		Registry:   registry,
		Repository: repository,
		Tag:        tag,
	}, nil
}

// ValidateRegistryReference checks that registry and repository form a
// valid image name. A leading http(s):// on the registry is ignored.
func ValidateRegistryReference(registry, repository string) error {
	host := stripProtocol(registry)
	if host == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "registry is required")
	}
	if repository == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "repository is required")
	}
	name := host + "/" + repository
	named, err := reference.ParseNormalizedNamed(name)
	if err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeInvalidRequest, "invalid registry reference", err,
			map[string]any{"reference": name})
	}
	if named.Name() != name {
		return apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest, "invalid registry reference",
			map[string]any{"reference": name, "parsed": named.String()})
	}
	return nil
}

// String returns the full reference string.
func (r *Reference) String() string {
	if !r.IsOCI {
		return r.LocalPath
	}
	if r.Tag == "" {
		return fmt.Sprintf("%s%s/%s", URIScheme, r.Registry, r.Repository)
	}
	return fmt.Sprintf("%s%s/%s:%s", URIScheme, r.Registry, r.Repository, r.Tag)
}

// ImageReference returns the image reference without the oci:// scheme,
// or an empty string for local targets.
func (r *Reference) ImageReference() string {
	if !r.IsOCI {
		return ""
	}
	if r.Tag == "" {
		return fmt.Sprintf("%s/%s", r.Registry, r.Repository)
	}
	return fmt.Sprintf("%s/%s:%s", r.Registry, r.Repository, r.Tag)
}

// WithTag returns a copy of the reference with the specified tag. For local
// targets the tag names the manifest inside the layout.
func (r *Reference) WithTag(tag string) *Reference {
	c := *r
	c.Tag = tag
	return &c
}

// OutputConfig configures the upload workflow.
type OutputConfig struct {
	// SourceDir is the package tree.
	SourceDir string
	// OutputDir is where the OCI layout is written before pushing. For
	// local targets it is ignored in favour of Reference.LocalPath.
	OutputDir string
	// Reference is the parsed target. Its Tag must be set.
	Reference *Reference
	// PlainHTTP uses HTTP instead of HTTPS for the registry connection.
	PlainHTTP bool
	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
	// Annotations are manifest annotations, see PackageAnnotations.
	Annotations map[string]string
	// ReproducibleTimestamp sets a fixed created annotation.
	ReproducibleTimestamp string
}

// UploadResult contains the result of an upload.
type UploadResult struct {
	Digest string `json:"digest" yaml:"digest"`
	// Reference is the pushed image reference, or the layout path for
	// local targets.
	Reference string `json:"reference" yaml:"reference"`
	StorePath string `json:"storePath" yaml:"storePath"`
	Pushed    bool   `json:"pushed" yaml:"pushed"`
}

// Upload packs a package tree as an OCI artifact and, for registry
// targets, pushes it.
func Upload(ctx context.Context, cfg OutputConfig) (*UploadResult, error) {
	if cfg.Reference == nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "output reference is required")
	}
	tag := cfg.Reference.Tag
	if tag == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "tag is required for OCI packaging")
	}

	layout := cfg.OutputDir
	if !cfg.Reference.IsOCI {
		layout = cfg.Reference.LocalPath
	}
	absLayout, err := filepath.Abs(layout)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to resolve output directory", err)
	}

	pkg, err := Package(ctx, PackageOptions{
		SourceDir:             cfg.SourceDir,
		OutputDir:             absLayout,
		Tag:                   tag,
		Annotations:           cfg.Annotations,
		ReproducibleTimestamp: cfg.ReproducibleTimestamp,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("package packed as OCI artifact",
		"digest", pkg.Digest,
		"layout", pkg.StorePath,
		"tag", tag,
	)

	if !cfg.Reference.IsOCI {
		return &UploadResult{
			Digest:    pkg.Digest,
			Reference: pkg.StorePath + ":" + tag,
			StorePath: pkg.StorePath,
		}, nil
	}

	slog.Info("pushing OCI artifact to remote registry",
		"registry", cfg.Reference.Registry,
		"repository", cfg.Reference.Repository,
		"tag", tag,
	)

	pushed, err := PushFromStore(ctx, pkg.StorePath, PushOptions{
		Registry:    cfg.Reference.Registry,
		Repository:  cfg.Reference.Repository,
		Tag:         tag,
		PlainHTTP:   cfg.PlainHTTP,
		InsecureTLS: cfg.InsecureTLS,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("OCI artifact pushed successfully",
		"reference", pushed.Reference,
		"digest", pushed.Digest,
	)

	return &UploadResult{
		Digest:    pushed.Digest,
		Reference: pushed.Reference,
		StorePath: pkg.StorePath,
		Pushed:    true,
	}, nil
}
