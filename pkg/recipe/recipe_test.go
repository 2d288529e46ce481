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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/recipekit/pkg/errors"
	"github.com/NVIDIA/recipekit/pkg/fingerprint"
	"github.com/NVIDIA/recipekit/pkg/packager"
)

func TestBuiltin(t *testing.T) {
	r := Builtin()

	assert.Equal(t, Identity{
		Name:        "QtPromise",
		Version:     "master",
		License:     "QtPromise is available under the MIT license.",
		Author:      "simonbrunel",
		URL:         "https://github.com/simonbrunel/qtpromise",
		Description: "Promises/A+ implementation for Qt/C++",
	}, r.Identity())
	assert.Equal(t, "QtPromise/master", r.Reference())
	assert.Equal(t, []string{"arch", "build_type", "compiler", "os"}, r.SettingsKeys())
	assert.Equal(t, fingerprint.ModeHeaderOnly, r.IDMode())
	assert.Equal(t, "https://github.com/simonbrunel/qtpromise.git", r.Source().URL)
	assert.Empty(t, r.Source().Ref)
	assert.Equal(t, "qtpromise", r.Source().CloneDir())
	assert.Equal(t, []packager.Rule{
		{Pattern: "*", Src: "include", Dst: "include"},
		{Pattern: "*", Src: "src", Dst: "src"},
	}, r.Rules())
	assert.Equal(t, []string{"lib"}, r.LibDirs())
}

func TestRecipe_Immutable(t *testing.T) {
	r := Builtin()

	rules := r.Rules()
	rules[0].Src = "changed"
	keys := r.SettingsKeys()
	keys[0] = "changed"

	assert.Equal(t, "include", Builtin().Rules()[0].Src)
	assert.Equal(t, "include", r.Rules()[0].Src)
	assert.Equal(t, "arch", r.SettingsKeys()[0])

	pinned := r.WithRef("v0.7.0")
	assert.Equal(t, "v0.7.0", pinned.Source().Ref)
	assert.Empty(t, r.Source().Ref)
}

const minimal = `
name: foo
version: "1.0"
source:
  url: https://example.com/foo.git
package:
  - src: include
    dst: include
`

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		r, err := Parse([]byte(minimal))
		require.NoError(t, err)
		assert.Equal(t, fingerprint.ModeHeaderOnly, r.IDMode())
		assert.Equal(t, []string{"lib"}, r.LibDirs())
		assert.Empty(t, r.SettingsKeys())
		assert.Equal(t, "foo/1.0", r.Reference())
		assert.Equal(t, "foo", r.Source().CloneDir())
	})

	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", minimal + "bogus: true\n"},
		{"missing name", "version: '1'\nsource: {url: x}\npackage: [{src: a, dst: a}]\n"},
		{"missing source", "name: a\nversion: '1'\npackage: [{src: a, dst: a}]\n"},
		{"no rules", "name: a\nversion: '1'\nsource: {url: x}\n"},
		{"escaping rule", "name: a\nversion: '1'\nsource: {url: x}\npackage: [{src: ../a, dst: a}]\n"},
		{"bad package id", minimal + "packageId: sometimes\n"},
		{"wrong kind", minimal + "kind: PackageInfo\n"},
		{"duplicate setting", minimal + "settings: [os, os]\n"},
		{"absolute libdir", minimal + "libDirs: [/usr/lib]\n"},
		{"slash in name", "name: a/b\nversion: '1'\nsource: {url: x}\npackage: [{src: a, dst: a}]\n"},
		{"not yaml", "{{{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest), "got %v", err)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "recipe.yaml")
		require.NoError(t, os.WriteFile(path, []byte(minimal), 0o644))

		r, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "foo", r.Identity().Name)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	})

	t.Run("invalid", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "recipe.yaml")
		require.NoError(t, os.WriteFile(path, []byte("name: x\n"), 0o644))
		_, err := Load(path)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))
	})
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := yaml.Marshal(Builtin())
	require.NoError(t, err)

	r, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, Builtin().Identity(), r.Identity())
	assert.Equal(t, Builtin().Rules(), r.Rules())
}
