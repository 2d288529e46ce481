/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package oci

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"

	apperrors "github.com/NVIDIA/recipekit/pkg/errors"
	"github.com/NVIDIA/recipekit/pkg/recipe"
	"github.com/NVIDIA/recipekit/pkg/source"
)

var packageFiles = map[string]string{
	"include/QtPromise":             "#include \"../src/qtpromise/qpromise.h\"\n",
	"src/qtpromise/qpromise.h":      "#pragma once\n",
	"src/qtpromise/qpromise.inl":    "// inline definitions\n",
	"src/qtqmlpromise/qjspromise.h": "#pragma once\n",
}

func writePackage(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for path, content := range packageFiles {
		full := filepath.Join(dir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", path, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write test file %s: %v", path, err)
		}
	}
	return dir
}

func readBlob(t *testing.T, layout string, digest string) []byte {
	t.Helper()
	path := filepath.Join(layout, "blobs", "sha256", strings.TrimPrefix(digest, "sha256:"))
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read blob %s: %v", digest, err)
	}
	return data
}

func TestStripProtocol(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://ghcr.io", "ghcr.io"},
		{"http://localhost:5000", "localhost:5000"},
		{"registry.example.com", "registry.example.com"},
		{"localhost:5000", "localhost:5000"},
		{"https://ghcr.io/nvidia", "ghcr.io/nvidia"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := stripProtocol(tt.input); got != tt.expected {
				t.Errorf("stripProtocol(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPushFromStore_EmptyTag(t *testing.T) {
	_, err := PushFromStore(context.Background(), "/nonexistent", PushOptions{
		Registry:   "localhost:5000",
		Repository: "test/repo",
	})
	if !apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest) {
		t.Errorf("PushFromStore() error = %v, want INVALID_REQUEST", err)
	}
}

func TestPushFromStore_InvalidReference(t *testing.T) {
	_, err := PushFromStore(context.Background(), t.TempDir(), PushOptions{
		Registry:   "invalid registry with spaces",
		Repository: "test/repo",
		Tag:        "v1.0.0",
	})
	if err == nil {
		t.Error("PushFromStore() expected error for invalid registry, got nil")
	}
}

func TestPackage_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := Package(ctx, PackageOptions{SourceDir: t.TempDir(), OutputDir: t.TempDir()})
	if !apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest) {
		t.Errorf("Package() without tag error = %v, want INVALID_REQUEST", err)
	}

	_, err = Package(ctx, PackageOptions{
		SourceDir: filepath.Join(t.TempDir(), "missing"),
		OutputDir: t.TempDir(),
		Tag:       "master",
	})
	if !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("Package() with missing source error = %v, want NOT_FOUND", err)
	}
}

func TestPackage_ArtifactStructure(t *testing.T) {
	ctx := context.Background()
	pkgDir := writePackage(t)
	layout := t.TempDir()

	annotations := map[string]string{AnnotationFingerprint: "sha256:feed"}
	res, err := Package(ctx, PackageOptions{
		SourceDir:   pkgDir,
		OutputDir:   layout,
		Tag:         "master",
		Annotations: annotations,
	})
	if err != nil {
		t.Fatalf("Package() error = %v", err)
	}
	if res.StorePath != layout || res.Tag != "master" {
		t.Errorf("unexpected result: %+v", res)
	}
	if _, err := os.Stat(filepath.Join(layout, "oci-layout")); err != nil {
		t.Errorf("Package() did not create oci-layout: %v", err)
	}
	if _, ok := annotations[ociv1.AnnotationCreated]; ok {
		t.Error("Package() mutated caller annotations")
	}

	var manifest ociv1.Manifest
	if err := json.Unmarshal(readBlob(t, layout, res.Digest), &manifest); err != nil {
		t.Fatalf("Failed to unmarshal manifest: %v", err)
	}
	if manifest.ArtifactType != ArtifactType {
		t.Errorf("ArtifactType = %q, want %q", manifest.ArtifactType, ArtifactType)
	}
	if manifest.Annotations[AnnotationFingerprint] != "sha256:feed" {
		t.Errorf("fingerprint annotation = %q", manifest.Annotations[AnnotationFingerprint])
	}
	if len(manifest.Layers) != 1 {
		t.Fatalf("Manifest has %d layers, want 1", len(manifest.Layers))
	}
	if manifest.Layers[0].MediaType != ociv1.MediaTypeImageLayerGzip {
		t.Errorf("Layer MediaType = %q", manifest.Layers[0].MediaType)
	}

	gzr, err := gzip.NewReader(strings.NewReader(string(readBlob(t, layout, manifest.Layers[0].Digest.String()))))
	if err != nil {
		t.Fatalf("Failed to create gzip reader: %v", err)
	}
	defer gzr.Close()

	extracted := make(map[string]string)
	tr := tar.NewReader(gzr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Failed to read tar entry: %v", err)
		}
		if hdr.Typeflag == tar.TypeReg {
			content, err := io.ReadAll(tr)
			if err != nil {
				t.Fatalf("Failed to read tar file content: %v", err)
			}
			extracted[hdr.Name] = string(content)
		}
	}

	for path, want := range packageFiles {
		if got, ok := extracted[path]; !ok {
			t.Errorf("Expected file %q not found in artifact", path)
		} else if got != want {
			t.Errorf("File %q content = %q, want %q", path, got, want)
		}
	}
	for path := range extracted {
		if _, ok := packageFiles[path]; !ok {
			t.Errorf("Unexpected file in artifact: %q", path)
		}
	}
}

func TestPackage_Reproducible(t *testing.T) {
	pkgDir := writePackage(t)

	var digests []string
	for i := 0; i < 2; i++ {
		res, err := Package(context.Background(), PackageOptions{
			SourceDir:             pkgDir,
			OutputDir:             t.TempDir(),
			Tag:                   "repro",
			ReproducibleTimestamp: "2000-01-01T00:00:00Z",
		})
		if err != nil {
			t.Fatalf("Iteration %d: Package() error = %v", i, err)
		}
		digests = append(digests, res.Digest)
	}

	if digests[0] != digests[1] {
		t.Errorf("Reproducible builds produced different digests:\n  build 1: %s\n  build 2: %s", digests[0], digests[1])
	}
}

func TestPackageAnnotations(t *testing.T) {
	id := recipe.Builtin().Identity()

	a := PackageAnnotations(id, nil)
	if a[ociv1.AnnotationTitle] != "QtPromise" || a[ociv1.AnnotationVersion] != "master" {
		t.Errorf("identity annotations = %v", a)
	}
	if a[ociv1.AnnotationLicenses] != id.License {
		t.Errorf("licenses annotation = %q", a[ociv1.AnnotationLicenses])
	}
	if a[AnnotationReference] != "QtPromise/master" {
		t.Errorf("reference annotation = %q", a[AnnotationReference])
	}
	if _, ok := a[AnnotationFingerprint]; ok {
		t.Error("fingerprint annotation set without info")
	}

	info := &recipe.PackageInfo{
		Fingerprint: "sha256:abc",
		Libs:        []string{"a", "b"},
		Source:      &source.Revision{URL: "https://github.com/simonbrunel/qtpromise.git", Commit: "cafe"},
	}
	a = PackageAnnotations(id, info)
	if a[AnnotationFingerprint] != "sha256:abc" {
		t.Errorf("fingerprint annotation = %q", a[AnnotationFingerprint])
	}
	if a[AnnotationLibs] != "a,b" {
		t.Errorf("libs annotation = %q", a[AnnotationLibs])
	}
	if a[ociv1.AnnotationRevision] != "cafe" || a[ociv1.AnnotationSource] != info.Source.URL {
		t.Errorf("source annotations = %v", a)
	}

	if _, ok := PackageAnnotations(id, &recipe.PackageInfo{Libs: []string{}})[AnnotationLibs]; ok {
		t.Error("libs annotation set for header-only package")
	}
}
