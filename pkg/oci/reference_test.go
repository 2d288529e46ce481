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
	"path/filepath"
	"testing"

	apperrors "github.com/NVIDIA/recipekit/pkg/errors"
)

func TestParseOutputTarget(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantIsOCI bool
		wantReg   string
		wantRepo  string
		wantTag   string
		wantDir   string
		wantErr   bool
	}{
		{
			name:      "local directory relative",
			input:     "./layout",
			wantIsOCI: false,
			wantDir:   "./layout",
		},
		{
			name:      "local directory absolute",
			input:     "/tmp/layouts",
			wantIsOCI: false,
			wantDir:   "/tmp/layouts",
		},
		{
			name:      "OCI with tag",
			input:     "oci://ghcr.io/nvidia/qtpromise:master",
			wantIsOCI: true,
			wantReg:   "ghcr.io",
			wantRepo:  "nvidia/qtpromise",
			wantTag:   "master",
		},
		{
			name:      "OCI without tag returns empty (caller applies default)",
			input:     "oci://ghcr.io/nvidia/qtpromise",
			wantIsOCI: true,
			wantReg:   "ghcr.io",
			wantRepo:  "nvidia/qtpromise",
			wantTag:   "",
		},
		{
			name:      "OCI with port and tag",
			input:     "oci://localhost:5000/test/qtpromise:v1",
			wantIsOCI: true,
			wantReg:   "localhost:5000",
			wantRepo:  "test/qtpromise",
			wantTag:   "v1",
		},
		{
			name:      "OCI deeply nested repository",
			input:     "oci://ghcr.io/org/team/project/qtpromise:latest",
			wantIsOCI: true,
			wantReg:   "ghcr.io",
			wantRepo:  "org/team/project/qtpromise",
			wantTag:   "latest",
		},
		{
			name:    "empty target",
			input:   "",
			wantErr: true,
		},
		{
			name:    "OCI invalid reference",
			input:   "oci://",
			wantErr: true,
		},
		{
			name:    "OCI invalid characters",
			input:   "oci://ghcr.io/INVALID/Package:v1",
			wantErr: true,
		},
		{
			name:    "OCI digest not allowed",
			input:   "oci://ghcr.io/nvidia/qtpromise@sha256:0000000000000000000000000000000000000000000000000000000000000000",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseOutputTarget(tt.input)

			if (err != nil) != tt.wantErr {
				t.Errorf("ParseOutputTarget() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr {
				if !apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest) {
					t.Errorf("ParseOutputTarget() error code = %s, want INVALID_REQUEST", apperrors.CodeOf(err))
				}
				return
			}

			if ref.IsOCI != tt.wantIsOCI {
				t.Errorf("ParseOutputTarget() IsOCI = %v, want %v", ref.IsOCI, tt.wantIsOCI)
			}
			if ref.Registry != tt.wantReg {
				t.Errorf("ParseOutputTarget() Registry = %v, want %v", ref.Registry, tt.wantReg)
			}
			if ref.Repository != tt.wantRepo {
				t.Errorf("ParseOutputTarget() Repository = %v, want %v", ref.Repository, tt.wantRepo)
			}
			if ref.Tag != tt.wantTag {
				t.Errorf("ParseOutputTarget() Tag = %v, want %v", ref.Tag, tt.wantTag)
			}
			if ref.LocalPath != tt.wantDir {
				t.Errorf("ParseOutputTarget() LocalPath = %v, want %v", ref.LocalPath, tt.wantDir)
			}
		})
	}
}

func TestValidateRegistryReference(t *testing.T) {
	tests := []struct {
		name       string
		registry   string
		repository string
		wantErr    bool
	}{
		{"valid ghcr.io", "ghcr.io", "nvidia/qtpromise", false},
		{"valid localhost with port", "localhost:5000", "test/repo", false},
		{"valid with https prefix", "https://ghcr.io", "nvidia/qtpromise", false},
		{"valid complex repository", "registry.example.com:5000", "org/team/project", false},
		{"empty registry", "", "test/repo", true},
		{"empty repository", "ghcr.io", "", true},
		{"invalid registry with spaces", "invalid registry", "test/repo", true},
		{"invalid repository with uppercase", "ghcr.io", "NVIDIA/QtPromise", true},
		{"invalid repository with special chars", "ghcr.io", "test/repo@latest", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegistryReference(tt.registry, tt.repository)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRegistryReference() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestReference_String(t *testing.T) {
	tests := []struct {
		name string
		ref  *Reference
		want string
	}{
		{
			name: "local path",
			ref:  &Reference{LocalPath: "./layout"},
			want: "./layout",
		},
		{
			name: "OCI with tag",
			ref:  &Reference{IsOCI: true, Registry: "ghcr.io", Repository: "nvidia/qtpromise", Tag: "master"},
			want: "oci://ghcr.io/nvidia/qtpromise:master",
		},
		{
			name: "OCI without tag",
			ref:  &Reference{IsOCI: true, Registry: "ghcr.io", Repository: "nvidia/qtpromise"},
			want: "oci://ghcr.io/nvidia/qtpromise",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ref.String(); got != tt.want {
				t.Errorf("Reference.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReference_ImageReference(t *testing.T) {
	local := &Reference{LocalPath: "./layout"}
	if got := local.ImageReference(); got != "" {
		t.Errorf("local ImageReference() = %q, want empty", got)
	}

	ref := &Reference{IsOCI: true, Registry: "ghcr.io", Repository: "nvidia/qtpromise", Tag: "master"}
	if got := ref.ImageReference(); got != "ghcr.io/nvidia/qtpromise:master" {
		t.Errorf("ImageReference() = %q", got)
	}
}

func TestReference_WithTag(t *testing.T) {
	tests := []struct {
		name string
		ref  *Reference
	}{
		{"local path", &Reference{LocalPath: "./layout"}},
		{"OCI with tag", &Reference{IsOCI: true, Registry: "ghcr.io", Repository: "nvidia/qtpromise", Tag: "v1"}},
		{"OCI without tag", &Reference{IsOCI: true, Registry: "ghcr.io", Repository: "nvidia/qtpromise"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := *tt.ref
			result := tt.ref.WithTag("v2")
			if result.Tag != "v2" {
				t.Errorf("WithTag() Tag = %v, want v2", result.Tag)
			}
			if *tt.ref != before {
				t.Error("WithTag() modified original reference")
			}
			if result.LocalPath != before.LocalPath || result.Repository != before.Repository {
				t.Error("WithTag() dropped fields")
			}
		})
	}
}

func TestUpload_LocalLayout(t *testing.T) {
	pkgDir := writePackage(t)
	layout := filepath.Join(t.TempDir(), "layout")

	ref, err := ParseOutputTarget(layout)
	if err != nil {
		t.Fatalf("ParseOutputTarget() error = %v", err)
	}

	res, err := Upload(context.Background(), OutputConfig{
		SourceDir: pkgDir,
		Reference: ref.WithTag("master"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if res.Pushed {
		t.Error("local upload must not push")
	}
	if res.StorePath != layout {
		t.Errorf("StorePath = %q, want %q", res.StorePath, layout)
	}
	if res.Digest == "" {
		t.Error("Upload() returned empty digest")
	}
}

func TestUpload_Validation(t *testing.T) {
	if _, err := Upload(context.Background(), OutputConfig{SourceDir: t.TempDir()}); err == nil {
		t.Error("Upload() without reference should fail")
	}

	ref := &Reference{IsOCI: true, Registry: "ghcr.io", Repository: "nvidia/qtpromise"}
	_, err := Upload(context.Background(), OutputConfig{SourceDir: t.TempDir(), Reference: ref})
	if !apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest) {
		t.Errorf("Upload() without tag error = %v, want INVALID_REQUEST", err)
	}
}
