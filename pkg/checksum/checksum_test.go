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

package checksum

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NVIDIA/recipekit/pkg/errors"
)

func writeFiles(t *testing.T, dir string, files map[string]string) []string {
	t.Helper()
	names := make([]string, 0, len(files))
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("failed to create dir for %s: %v", name, err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
		names = append(names, name)
	}
	return names
}

func TestGenerateChecksums(t *testing.T) {
	t.Parallel()

	t.Run("generates sorted checksums", func(t *testing.T) {
		t.Parallel()

		pkgDir := t.TempDir()
		files := writeFiles(t, pkgDir, map[string]string{
			"src/bar.cpp":     "bar",
			"include/foo.hpp": "foo",
		})
		out := filepath.Join(t.TempDir(), ChecksumFileName)

		if err := GenerateChecksums(context.Background(), pkgDir, files, out); err != nil {
			t.Fatalf("GenerateChecksums() error = %v", err)
		}

		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("failed to read manifest: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(lines))
		}
		// sha256("foo")
		want := "2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae  include/foo.hpp"
		if lines[0] != want {
			t.Errorf("first line = %q, want %q", lines[0], want)
		}
		if !strings.HasSuffix(lines[1], "  src/bar.cpp") {
			t.Errorf("second line = %q, want src/bar.cpp", lines[1])
		}
	})

	t.Run("returns error on context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := GenerateChecksums(ctx, t.TempDir(), nil, filepath.Join(t.TempDir(), ChecksumFileName))
		if err == nil {
			t.Error("expected error for cancelled context")
		}
	})

	t.Run("returns error for non-existent file", func(t *testing.T) {
		t.Parallel()

		out := filepath.Join(t.TempDir(), ChecksumFileName)
		err := GenerateChecksums(context.Background(), t.TempDir(), []string{"does-not-exist.txt"}, out)
		if err == nil {
			t.Fatal("expected error for non-existent file")
		}
		if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
			t.Error("manifest should not be written on failure")
		}
	})

	t.Run("handles empty file list", func(t *testing.T) {
		t.Parallel()

		out := filepath.Join(t.TempDir(), "meta", ChecksumFileName)
		if err := GenerateChecksums(context.Background(), t.TempDir(), nil, out); err != nil {
			t.Fatalf("GenerateChecksums() error = %v", err)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("failed to read manifest: %v", err)
		}
		if len(data) != 0 {
			t.Errorf("expected empty manifest, got %q", string(data))
		}
	})
}

func TestVerifyChecksums(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (string, string) {
		pkgDir := t.TempDir()
		files := writeFiles(t, pkgDir, map[string]string{
			"include/foo.hpp": "foo",
			"src/bar.cpp":     "bar",
			"src/baz.cpp":     "baz",
		})
		out := filepath.Join(t.TempDir(), ChecksumFileName)
		if err := GenerateChecksums(context.Background(), pkgDir, files, out); err != nil {
			t.Fatalf("GenerateChecksums() error = %v", err)
		}
		return pkgDir, out
	}

	t.Run("unchanged tree verifies", func(t *testing.T) {
		t.Parallel()

		pkgDir, manifest := setup(t)
		report, err := VerifyChecksums(context.Background(), pkgDir, manifest)
		if err != nil {
			t.Fatalf("VerifyChecksums() error = %v", err)
		}
		if report.Verified != 3 || !report.OK() {
			t.Errorf("unexpected report: %+v", report)
		}
	})

	t.Run("detects modified and missing files", func(t *testing.T) {
		t.Parallel()

		pkgDir, manifest := setup(t)
		if err := os.WriteFile(filepath.Join(pkgDir, "src", "bar.cpp"), []byte("tampered"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Remove(filepath.Join(pkgDir, "src", "baz.cpp")); err != nil {
			t.Fatal(err)
		}

		report, err := VerifyChecksums(context.Background(), pkgDir, manifest)
		if !errors.IsCode(err, errors.ErrCodeChecksumMismatch) {
			t.Fatalf("expected CHECKSUM_MISMATCH, got %v", err)
		}
		if report == nil {
			t.Fatal("expected report with mismatch")
		}
		if report.Verified != 1 {
			t.Errorf("Verified = %d, want 1", report.Verified)
		}
		if len(report.Modified) != 1 || report.Modified[0] != "src/bar.cpp" {
			t.Errorf("Modified = %v", report.Modified)
		}
		if len(report.Missing) != 1 || report.Missing[0] != "src/baz.cpp" {
			t.Errorf("Missing = %v", report.Missing)
		}
	})

	t.Run("missing manifest", func(t *testing.T) {
		t.Parallel()

		_, err := VerifyChecksums(context.Background(), t.TempDir(), filepath.Join(t.TempDir(), "nope.txt"))
		if !errors.IsCode(err, errors.ErrCodeNotFound) {
			t.Errorf("expected NOT_FOUND, got %v", err)
		}
	})

	t.Run("malformed manifest", func(t *testing.T) {
		t.Parallel()

		manifest := filepath.Join(t.TempDir(), ChecksumFileName)
		if err := os.WriteFile(manifest, []byte("not-a-checksum file.txt\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := VerifyChecksums(context.Background(), t.TempDir(), manifest)
		if !errors.IsCode(err, errors.ErrCodeInvalidRequest) {
			t.Errorf("expected INVALID_REQUEST, got %v", err)
		}
	})
}
