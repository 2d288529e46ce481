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

package libscan

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"

	"github.com/NVIDIA/recipekit/pkg/errors"
)

// linkable maps recognised extensions to whether the "lib" prefix is part
// of the library name. MSVC import libraries keep their full base name.
var linkable = map[string]bool{
	".a":     false,
	".so":    false,
	".dylib": false,
	".bc":    false,
	".lib":   true,
}

// LibName returns the link name of a library file, e.g. "libfoo.so.1" ->
// "foo", and false when the file is not a linkable artifact.
func LibName(file string) (string, bool) {
	base, ext := splitExt(file)
	keepPrefix, ok := linkable[ext]
	if !ok {
		return "", false
	}
	if !keepPrefix {
		base = strings.TrimPrefix(base, "lib")
	}
	if base == "" {
		return "", false
	}
	return base, true
}

// splitExt handles versioned shared objects (libfoo.so.1.2.3).
func splitExt(file string) (string, string) {
	if i := strings.Index(file, ".so."); i > 0 && isVersion(file[i+len(".so."):]) {
		return file[:i], ".so"
	}
	ext := filepath.Ext(file)
	return strings.TrimSuffix(file, ext), ext
}

func isVersion(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		for _, c := range part {
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}

// CollectLibs returns the sorted, de-duplicated link names among names.
// The result does not depend on the order of names and is never nil.
func CollectLibs(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	libs := make([]string, 0, len(names))
	for _, n := range names {
		lib, ok := LibName(filepath.Base(n))
		if !ok {
			continue
		}
		if _, dup := seen[lib]; dup {
			continue
		}
		seen[lib] = struct{}{}
		libs = append(libs, lib)
	}
	sort.Strings(libs)
	return libs
}

// Scan lists the regular files directly inside each of libDirs (relative to
// root) and returns the link names found there. Subdirectories are not
// descended into. A library directory that does not exist contributes
// nothing.
func Scan(root string, libDirs []string) ([]string, error) {
	var files []string
	for _, dir := range libDirs {
		path := filepath.Join(root, dir)
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			slog.Debug("library directory not present", "path", path)
			continue
		}
		if err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeInternal, "failed to stat library directory", err,
				map[string]any{"path": path})
		}
		if !info.IsDir() {
			return nil, errors.NewWithContext(errors.ErrCodeInternal,
				fmt.Sprintf("library path %s is not a directory", dir), map[string]any{"path": path})
		}

		dirents, err := godirwalk.ReadDirents(path, nil)
		if err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeInternal, "failed to list library directory", err,
				map[string]any{"path": path})
		}
		for _, de := range dirents {
			if !isRegular(path, de) {
				continue
			}
			files = append(files, de.Name())
		}
	}

	libs := CollectLibs(files)
	slog.Debug("library scan complete", "root", root, "dirs", libDirs, "libs", libs)
	return libs, nil
}

// isRegular reports whether de is a regular file, following symlinks.
func isRegular(dir string, de *godirwalk.Dirent) bool {
	if de.IsRegular() {
		return true
	}
	if !de.IsSymlink() {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, de.Name()))
	return err == nil && info.Mode().IsRegular()
}
