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

package source

import (
	"context"
	"fmt"
	"strings"
)

// Spec describes where the upstream source lives.
type Spec struct {
	// URL is the remote repository (https, ssh, scp-like "git@host:path", or a local path).
	URL string `json:"url" yaml:"url"`
	// Ref optionally pins a branch, tag or full reference name. Empty fetches
	// the tip of the repository's default branch.
	Ref string `json:"ref,omitempty" yaml:"ref,omitempty"`
	// Dir is the directory name the clone is placed in, relative to the
	// working directory. Defaults to the repository base name.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// CloneDir returns the directory name for the clone, deriving it from the URL
// the way "git clone" does when Dir is unset.
func (s Spec) CloneDir() string {
	if s.Dir != "" {
		return s.Dir
	}
	u := strings.TrimRight(s.URL, "/")
	if i := strings.LastIndexAny(u, "/:"); i >= 0 {
		u = u[i+1:]
	}
	u = strings.TrimSuffix(u, ".git")
	if u == "" {
		return "source"
	}
	return u
}

// Validate checks the spec has enough information to fetch.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.URL) == "" {
		return fmt.Errorf("source url is required")
	}
	if strings.ContainsAny(s.CloneDir(), `/\`) || s.CloneDir() == ".." || s.CloneDir() == "." {
		return fmt.Errorf("source dir %q must be a single path element", s.CloneDir())
	}
	return nil
}

// Revision records what a fetch actually resolved.
type Revision struct {
	URL    string `json:"url" yaml:"url"`
	Ref    string `json:"ref" yaml:"ref"`
	Commit string `json:"commit" yaml:"commit"`
}

// Fetcher acquires a source tree.
type Fetcher interface {
	// Fetch places the upstream tree at dest. On failure nothing is left at
	// dest and the error carries code FETCH_FAILED.
	Fetch(ctx context.Context, spec Spec, dest string) (*Revision, error)
}
