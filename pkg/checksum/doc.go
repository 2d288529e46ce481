/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

// Package checksum writes and verifies SHA256 manifests for package trees.
//
// The pipeline records one line per packaged file next to the package
// metadata; `recipekit verify` recomputes them later:
//
//	err := checksum.GenerateChecksums(ctx, pkgDir, result.Files, manifest)
//	report, err := checksum.VerifyChecksums(ctx, pkgDir, manifest)
//
// The manifest format is compatible with sha256sum when run from the
// package directory:
//
//	sha256sum -c checksums.txt
package checksum
