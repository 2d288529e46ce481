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
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/recipekit/pkg/defaults"
	"github.com/NVIDIA/recipekit/pkg/errors"
)

// ChecksumFileName is the standard name for checksum files.
const ChecksumFileName = "checksums.txt"

// Entry is one manifest line.
type Entry struct {
	// Path is slash-separated and relative to the manifest's base directory.
	Path   string
	SHA256 string
}

func (e Entry) String() string {
	return fmt.Sprintf("%s  %s", e.SHA256, e.Path)
}

// GenerateChecksums hashes files (relative to baseDir) and writes the sorted
// manifest to outPath. Files are hashed concurrently.
func GenerateChecksums(ctx context.Context, baseDir string, files []string, outPath string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	entries, err := hashAll(ctx, baseDir, files)
	if err != nil {
		return err
	}

	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return errors.WrapWithContext(errors.ErrCodeInternal, "failed to create checksum directory", err,
			map[string]any{"path": outPath})
	}
	if err := os.WriteFile(outPath, []byte(b.String()), 0o644); err != nil {
		return errors.WrapWithContext(errors.ErrCodeInternal, "failed to write checksums", err,
			map[string]any{"path": outPath})
	}

	slog.Debug("checksums generated",
		"file_count", len(entries),
		"path", outPath,
	)

	return nil
}

func hashAll(ctx context.Context, baseDir string, files []string) ([]Entry, error) {
	entries := make([]Entry, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaults.ChecksumWorkers)

	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sum, err := hashFile(filepath.Join(baseDir, filepath.FromSlash(f)))
			if err != nil {
				return errors.WrapWithContext(errors.ErrCodeInternal, "failed to hash file", err,
					map[string]any{"file": f})
			}
			entries[i] = Entry{Path: filepath.ToSlash(f), SHA256: sum}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ReadManifest parses a manifest written by GenerateChecksums.
func ReadManifest(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithContext(errors.ErrCodeNotFound, "checksum manifest not found", err,
				map[string]any{"path": path})
		}
		return nil, errors.WrapWithContext(errors.ErrCodeInternal, "failed to open checksum manifest", err,
			map[string]any{"path": path})
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		sum, file, ok := strings.Cut(text, "  ")
		if !ok || len(sum) != sha256.Size*2 || file == "" {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "malformed checksum line",
				map[string]any{"path": path, "line": line})
		}
		if _, err := hex.DecodeString(sum); err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest, "malformed checksum", err,
				map[string]any{"path": path, "line": line})
		}
		entries = append(entries, Entry{Path: file, SHA256: strings.ToLower(sum)})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInternal, "failed to read checksum manifest", err,
			map[string]any{"path": path})
	}
	return entries, nil
}

// Report is the outcome of a verification.
type Report struct {
	Verified int      `json:"verified" yaml:"verified"`
	Modified []string `json:"modified,omitempty" yaml:"modified,omitempty"`
	Missing  []string `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// OK reports whether every manifest entry matched.
func (r *Report) OK() bool {
	return len(r.Modified) == 0 && len(r.Missing) == 0
}

// VerifyChecksums recomputes every file listed in the manifest at
// manifestPath, relative to baseDir. The report is returned alongside a
// CHECKSUM_MISMATCH error when any file is modified or missing.
func VerifyChecksums(ctx context.Context, baseDir, manifestPath string) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	want, err := ReadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	var present []string
	for _, e := range want {
		if _, err := os.Stat(filepath.Join(baseDir, filepath.FromSlash(e.Path))); os.IsNotExist(err) {
			report.Missing = append(report.Missing, e.Path)
			continue
		}
		present = append(present, e.Path)
	}

	got, err := hashAll(ctx, baseDir, present)
	if err != nil {
		return nil, err
	}
	actual := make(map[string]string, len(got))
	for _, e := range got {
		actual[e.Path] = e.SHA256
	}
	for _, e := range want {
		sum, ok := actual[e.Path]
		if !ok {
			continue
		}
		if sum != e.SHA256 {
			report.Modified = append(report.Modified, e.Path)
			continue
		}
		report.Verified++
	}
	sort.Strings(report.Modified)
	sort.Strings(report.Missing)

	slog.Debug("checksums verified",
		"verified", report.Verified,
		"modified", len(report.Modified),
		"missing", len(report.Missing),
	)

	if !report.OK() {
		return report, errors.NewWithContext(errors.ErrCodeChecksumMismatch, "package files do not match manifest",
			map[string]any{"modified": report.Modified, "missing": report.Missing})
	}
	return report, nil
}
