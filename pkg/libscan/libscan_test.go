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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibName(t *testing.T) {
	tests := []struct {
		file string
		want string
		ok   bool
	}{
		{"libfoo.a", "foo", true},
		{"libfoo.so", "foo", true},
		{"libfoo.so.1", "foo", true},
		{"libfoo.so.1.2.3", "foo", true},
		{"libfoo.dylib", "foo", true},
		{"libfoo.bc", "foo", true},
		{"foo.lib", "foo", true},
		{"libfoo.lib", "libfoo", true},
		{"bar.a", "bar", true},
		{"foo.dll", "", false},
		{"foo.hpp", "", false},
		{"libfoo.so.x", "", false},
		{"lib.a", "", false},
		{"README", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got, ok := LibName(tt.file)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCollectLibs(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		got := CollectLibs(nil)
		require.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("no binaries", func(t *testing.T) {
		assert.Empty(t, CollectLibs([]string{"qpromise.h", "QtPromise", "plugin.cpp"}))
	})

	t.Run("sorted and de-duplicated", func(t *testing.T) {
		got := CollectLibs([]string{"libz.a", "libz.so.1", "liba.dylib", "m.lib", "libz.so"})
		assert.Equal(t, []string{"a", "m", "z"}, got)
	})

	t.Run("order independent", func(t *testing.T) {
		in := []string{"libqtpromise.a", "libqtqmlpromise.so", "libcore.dylib", "notes.txt"}
		rev := make([]string, len(in))
		for i := range in {
			rev[len(in)-1-i] = in[i]
		}
		assert.Equal(t, CollectLibs(in), CollectLibs(rev))
	})

	t.Run("paths use base name", func(t *testing.T) {
		assert.Equal(t, []string{"foo"}, CollectLibs([]string{"lib/libfoo.a"}))
	})
}

func TestScan(t *testing.T) {
	t.Run("header-only tree", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, "include"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, "include", "foo.hpp"), []byte("x"), 0o644))

		libs, err := Scan(root, []string{"lib"})
		require.NoError(t, err)
		assert.Empty(t, libs)
	})

	t.Run("libraries found non-recursively", func(t *testing.T) {
		root := t.TempDir()
		lib := filepath.Join(root, "lib")
		require.NoError(t, os.MkdirAll(filepath.Join(lib, "cmake"), 0o755))
		for _, f := range []string{"libqtpromise.a", "libother.so.2", "cmake/libhidden.a"} {
			require.NoError(t, os.WriteFile(filepath.Join(lib, f), []byte("x"), 0o644))
		}

		libs, err := Scan(root, []string{"lib"})
		require.NoError(t, err)
		assert.Equal(t, []string{"other", "qtpromise"}, libs)
	})

	t.Run("multiple dirs", func(t *testing.T) {
		root := t.TempDir()
		for _, f := range []string{"lib/libb.a", "lib64/liba.a", "lib64/libb.so"} {
			p := filepath.Join(root, f)
			require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
			require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		}

		libs, err := Scan(root, []string{"lib", "lib64", "missing"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, libs)
	})

	t.Run("lib path is a file", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "lib"), []byte("x"), 0o644))

		_, err := Scan(root, []string{"lib"})
		assert.Error(t, err)
	})
}
