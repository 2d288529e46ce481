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

package fingerprint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/opencontainers/go-digest"
)

// Mode selects which inputs contribute to a package fingerprint.
type Mode string

const (
	// ModeHeaderOnly ignores every build setting. Any settings tuple resolves
	// to the same fingerprint.
	ModeHeaderOnly Mode = "header_only"
	// ModeFull folds every build setting into the fingerprint.
	ModeFull Mode = "full"
)

// IsValid reports whether m is a recognized mode.
func (m Mode) IsValid() bool {
	switch m {
	case ModeHeaderOnly, ModeFull:
		return true
	default:
		return false
	}
}

// Fingerprint is the key a package manager uses to deduplicate and cache
// built packages. It is an OCI-style digest ("sha256:<hex>").
type Fingerprint struct {
	Digest digest.Digest `json:"digest" yaml:"digest"`
	Mode   Mode          `json:"mode" yaml:"mode"`
	// Settings are the settings that contributed to Digest. Empty for
	// header-only packages.
	Settings map[string]string `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// String returns the digest in "algorithm:hex" form.
func (f Fingerprint) String() string {
	return f.Digest.String()
}

// ID returns the hex part of the digest, suitable as a directory name.
func (f Fingerprint) ID() string {
	return f.Digest.Encoded()
}

// Compute derives the fingerprint of a package from its identity fields and
// build settings. Identity and settings are rendered into a canonical,
// key-sorted document before hashing so map iteration order never leaks
// into the result.
func Compute(identity, settings map[string]string, mode Mode) Fingerprint {
	effective := EffectiveSettings(settings, mode)
	return Fingerprint{
		Digest:   digest.FromString(canonical(identity, effective)),
		Mode:     mode,
		Settings: effective,
	}
}

// EffectiveSettings returns the subset of settings that participates in the
// fingerprint under mode. The input map is never modified.
func EffectiveSettings(settings map[string]string, mode Mode) map[string]string {
	if mode == ModeHeaderOnly || len(settings) == 0 {
		return nil
	}
	out := make(map[string]string, len(settings))
	for k, v := range settings {
		out[k] = v
	}
	return out
}

func canonical(identity, settings map[string]string) string {
	var b strings.Builder
	b.WriteString("[identity]\n")
	writeSorted(&b, identity)
	if len(settings) > 0 {
		b.WriteString("[settings]\n")
		writeSorted(&b, settings)
	}
	return b.String()
}

func writeSorted(b *strings.Builder, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		// quoted so values with newlines or "=" cannot collide
		fmt.Fprintf(b, "%q=%q\n", k, m[k])
	}
}
