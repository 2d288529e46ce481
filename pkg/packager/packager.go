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

package packager

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/karrick/godirwalk"
	cp "github.com/otiai10/copy"

	"github.com/NVIDIA/recipekit/pkg/errors"
)

// MatchAll is the pattern selecting every file.
const MatchAll = "*"

// Rule copies the files under Src (relative to the source root) whose base
// name matches Pattern into Dst (relative to the package root), preserving
// the relative layout below Src.
type Rule struct {
	Pattern string `json:"pattern" yaml:"pattern"`
	Src     string `json:"src" yaml:"src"`
	Dst     string `json:"dst" yaml:"dst"`
}

func (r Rule) String() string {
	return fmt.Sprintf("%s:%s->%s", r.pattern(), r.Src, r.Dst)
}

func (r Rule) pattern() string {
	if r.Pattern == "" {
		return MatchAll
	}
	return r.Pattern
}

// Validate checks that both directories stay inside their roots and the
// pattern compiles.
func (r Rule) Validate() error {
	if err := relativeInside(r.Src); err != nil {
		return fmt.Errorf("rule %s: src: %w", r, err)
	}
	if err := relativeInside(r.Dst); err != nil {
		return fmt.Errorf("rule %s: dst: %w", r, err)
	}
	if _, err := glob.Compile(r.pattern()); err != nil {
		return fmt.Errorf("rule %s: invalid pattern: %w", r, err)
	}
	return nil
}

func relativeInside(p string) error {
	if p == "" {
		return fmt.Errorf("path is required")
	}
	if filepath.IsAbs(p) {
		return fmt.Errorf("path %q must be relative", p)
	}
	clean := filepath.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q escapes its root", p)
	}
	return nil
}

// Result describes a packaged tree.
type Result struct {
	// Files are package-relative, slash-separated and sorted.
	Files []string `json:"files" yaml:"files"`
	// Bytes is the total size of Files.
	Bytes int64 `json:"bytes" yaml:"bytes"`
}

// Package copies the files selected by rules from sourceRoot into destRoot.
//
// Every rule source must be an existing, listable directory; an empty one is
// fine and yields an empty subtree. The copy is all-or-nothing: the tree is
// assembled in a staging directory beside destRoot and only swapped into
// place once every rule has been copied and merged with any existing tree.
// Existing destination files are overwritten; copied files are always
// owner-writable.
func Package(ctx context.Context, sourceRoot, destRoot string, rules []Rule) (*Result, error) {
	if len(rules) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "no copy rules given")
	}
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "invalid copy rule", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCopy, "packaging cancelled", err)
	}

	for _, r := range rules {
		if err := checkSourceDir(filepath.Join(sourceRoot, r.Src)); err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeCopy, "package source unavailable", err,
				map[string]any{"rule": r.String(), "path": filepath.Join(sourceRoot, r.Src)})
		}
	}

	parent := filepath.Dir(filepath.Clean(destRoot))
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeCopy, "failed to create package parent directory", err,
			map[string]any{"path": parent})
	}
	staging, err := os.MkdirTemp(parent, "."+filepath.Base(destRoot)+".package-*")
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeCopy, "failed to create staging directory", err,
			map[string]any{"path": parent})
	}
	defer func() {
		if rmErr := os.RemoveAll(staging); rmErr != nil {
			slog.Warn("failed to remove staging directory", "path", staging, "error", rmErr)
		}
	}()
	// MkdirTemp creates 0700; the staging dir may become destRoot by rename
	if err := os.Chmod(staging, 0o755); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeCopy, "failed to prepare staging directory", err,
			map[string]any{"path": staging})
	}

	for _, r := range rules {
		if err := stageRule(ctx, sourceRoot, staging, r); err != nil {
			return nil, err
		}
	}

	result, err := summarize(staging)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeCopy, "failed to list staged package", err,
			map[string]any{"path": staging})
	}

	if err := commit(staging, destRoot); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeCopy, "failed to write package tree", err,
			map[string]any{"path": destRoot})
	}

	slog.Info("package tree written", "dest", destRoot, "files", len(result.Files), "bytes", result.Bytes)
	return result, nil
}

func checkSourceDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	if _, err := os.ReadDir(path); err != nil {
		return err
	}
	return nil
}

func stageRule(ctx context.Context, sourceRoot, staging string, r Rule) error {
	g := glob.MustCompile(r.pattern())
	src := filepath.Join(sourceRoot, r.Src)
	dst := filepath.Join(staging, r.Dst)

	opts := cp.Options{
		OnSymlink: func(string) cp.SymlinkAction {
			return cp.Deep
		},
		OnDirExists: func(_, _ string) cp.DirExistsAction {
			return cp.Merge
		},
		PermissionControl: writable,
		Skip: func(info os.FileInfo, _, _ string) (bool, error) {
			if err := ctx.Err(); err != nil {
				return false, err
			}
			if info.IsDir() {
				return false, nil
			}
			return !g.Match(info.Name()), nil
		},
	}

	slog.Debug("staging copy rule", "rule", r.String(), "src", src, "dst", dst)
	if err := copyTree(src, dst, opts); err != nil {
		return errors.WrapWithContext(errors.ErrCodeCopy, "failed to copy package files", err,
			map[string]any{"rule": r.String(), "path": src})
	}
	return nil
}

// copyTree is replaced in tests to inject copy failures.
var copyTree = cp.Copy

// writable keeps copied entries owner-writable so a later run can
// overwrite them even when the sources are read-only.
var writable = cp.AddPermission(0o200)

// commit moves the staged tree into destRoot. A missing destRoot is replaced
// by a rename. An existing one is copied into a merge directory beside it,
// the staged files are merged over the copy, and the result is swapped in
// with two renames. destRoot is untouched until the swap.
func commit(staging, destRoot string) error {
	destRoot = filepath.Clean(destRoot)
	if _, err := os.Stat(destRoot); os.IsNotExist(err) {
		return os.Rename(staging, destRoot)
	} else if err != nil {
		return err
	}

	parent := filepath.Dir(destRoot)
	prefix := "." + filepath.Base(destRoot) + ".package-"
	merge, err := os.MkdirTemp(parent, prefix+"merge-*")
	if err != nil {
		return err
	}
	defer removeTree(merge)
	if err := os.Chmod(merge, 0o755); err != nil {
		return err
	}

	opts := cp.Options{
		OnDirExists: func(_, _ string) cp.DirExistsAction {
			return cp.Merge
		},
		PermissionControl: writable,
	}
	if err := copyTree(destRoot, merge, opts); err != nil {
		return fmt.Errorf("copy existing package: %w", err)
	}
	if err := copyTree(staging, merge, opts); err != nil {
		return fmt.Errorf("merge staged package: %w", err)
	}

	return swap(merge, destRoot, prefix)
}

// swap replaces destRoot with next, restoring destRoot if the second
// rename fails.
func swap(next, destRoot, prefix string) error {
	hold, err := os.MkdirTemp(filepath.Dir(destRoot), prefix+"old-*")
	if err != nil {
		return err
	}

	old := filepath.Join(hold, "tree")
	if err := os.Rename(destRoot, old); err != nil {
		removeTree(hold)
		return err
	}
	if err := os.Rename(next, destRoot); err != nil {
		if rbErr := os.Rename(old, destRoot); rbErr != nil {
			// keep the backup for manual recovery
			slog.Error("failed to restore package tree", "path", destRoot, "backup", old, "error", rbErr)
			return err
		}
		removeTree(hold)
		return err
	}
	removeTree(hold)
	return nil
}

func removeTree(path string) {
	if err := os.RemoveAll(path); err != nil {
		slog.Warn("failed to remove temporary package tree", "path", path, "error", err)
	}
}

func summarize(root string) (*Result, error) {
	res := &Result{Files: []string{}}
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			info, err := os.Stat(osPathname)
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, osPathname)
			if err != nil {
				return err
			}
			res.Files = append(res.Files, filepath.ToSlash(rel))
			res.Bytes += info.Size()
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(res.Files)
	return res, nil
}
