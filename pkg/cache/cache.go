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

package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/NVIDIA/recipekit/pkg/checksum"
	"github.com/NVIDIA/recipekit/pkg/defaults"
	"github.com/NVIDIA/recipekit/pkg/errors"
)

const (
	dataDir     = "data"
	tmpDir      = "tmp"
	sourceDir   = "source"
	packageDir  = "package"
	metadataDir = "metadata"

	// InfoFileName holds the serialized package info in a metadata dir.
	InfoFileName = "info.yaml"
)

// Ref names one recipe in the cache.
type Ref struct {
	Name    string
	Version string
}

func (r Ref) String() string {
	return r.Name + "/" + r.Version
}

// Validate rejects references that cannot be used as path segments.
func (r Ref) Validate() error {
	for field, v := range map[string]string{"name": r.Name, "version": r.Version} {
		if v == "" {
			return errors.New(errors.ErrCodeInvalidRequest, fmt.Sprintf("reference %s is required", field))
		}
		if v == "." || v == ".." || strings.ContainsAny(v, `/\`) {
			return errors.NewWithContext(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("reference %s %q is not a valid path segment", field, v),
				map[string]any{"reference": r.String()})
		}
	}
	return nil
}

// ParseRef parses "name/version".
func ParseRef(s string) (Ref, error) {
	name, version, ok := strings.Cut(s, "/")
	if !ok {
		return Ref{}, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"reference must be in name/version form", map[string]any{"reference": s})
	}
	r := Ref{Name: name, Version: version}
	if err := r.Validate(); err != nil {
		return Ref{}, err
	}
	return r, nil
}

// Cache is a package cache rooted at a directory.
type Cache struct {
	root string
}

// DefaultRoot returns $RECIPEKIT_HOME when set, ~/.recipekit otherwise.
func DefaultRoot() (string, error) {
	if v := os.Getenv(defaults.EnvVarHome); v != "" {
		return homedir.Expand(v)
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "failed to resolve home directory", err)
	}
	return filepath.Join(home, defaults.HomeDirName), nil
}

// New returns a cache rooted at root, or at DefaultRoot when root is empty.
// A leading ~ is expanded. The directory is created lazily.
func New(root string) (*Cache, error) {
	var err error
	if root == "" {
		root, err = DefaultRoot()
	} else {
		root, err = homedir.Expand(root)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "invalid cache root", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest, "invalid cache root", err,
			map[string]any{"root": root})
	}
	return &Cache{root: abs}, nil
}

// Root returns the absolute cache root.
func (c *Cache) Root() string {
	return c.root
}

// RefDir is the directory holding everything cached for ref.
func (c *Cache) RefDir(ref Ref) string {
	return filepath.Join(c.root, dataDir, ref.Name, ref.Version)
}

// SourceDir is where a kept source clone is stored.
func (c *Cache) SourceDir(ref Ref) string {
	return filepath.Join(c.RefDir(ref), sourceDir)
}

// PackageDir is the package tree for one fingerprint.
func (c *Cache) PackageDir(ref Ref, fingerprintID string) string {
	return filepath.Join(c.RefDir(ref), packageDir, fingerprintID)
}

// MetadataDir holds info and checksums for one fingerprint.
func (c *Cache) MetadataDir(ref Ref, fingerprintID string) string {
	return filepath.Join(c.RefDir(ref), metadataDir, fingerprintID)
}

// InfoPath is the package info document for one fingerprint.
func (c *Cache) InfoPath(ref Ref, fingerprintID string) string {
	return filepath.Join(c.MetadataDir(ref, fingerprintID), InfoFileName)
}

// ChecksumPath is the checksum manifest for one fingerprint.
func (c *Cache) ChecksumPath(ref Ref, fingerprintID string) string {
	return filepath.Join(c.MetadataDir(ref, fingerprintID), checksum.ChecksumFileName)
}

// TempDir creates a fresh scratch directory inside the cache so that
// renames into the data tree stay on one filesystem.
func (c *Cache) TempDir(pattern string) (string, error) {
	base := filepath.Join(c.root, tmpDir)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", errors.WrapWithContext(errors.ErrCodeInternal, "failed to create cache scratch directory", err,
			map[string]any{"path": base})
	}
	dir, err := os.MkdirTemp(base, pattern)
	if err != nil {
		return "", errors.WrapWithContext(errors.ErrCodeInternal, "failed to create cache scratch directory", err,
			map[string]any{"path": base})
	}
	return dir, nil
}

// Exists reports whether a package tree is cached for the fingerprint.
func (c *Cache) Exists(ref Ref, fingerprintID string) bool {
	info, err := os.Stat(c.PackageDir(ref, fingerprintID))
	return err == nil && info.IsDir()
}

// Remove deletes everything cached for ref. Removing an absent reference
// is not an error.
func (c *Cache) Remove(ref Ref) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	dir := c.RefDir(ref)
	if err := os.RemoveAll(dir); err != nil {
		return errors.WrapWithContext(errors.ErrCodeInternal, "failed to remove cached reference", err,
			map[string]any{"reference": ref.String(), "path": dir})
	}
	// drop the now empty name directory
	_ = os.Remove(filepath.Dir(dir))
	return nil
}
