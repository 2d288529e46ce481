/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

// Package cache owns the on-disk layout of packages produced by recipekit.
//
// The root defaults to ~/.recipekit and can be moved with RECIPEKIT_HOME or
// the --cache flag. Below it every reference (name/version) gets:
//
//	data/<name>/<version>/source                      kept source clone
//	data/<name>/<version>/package/<fingerprint>       package tree
//	data/<name>/<version>/metadata/<fingerprint>/     info.yaml, checksums.txt
//
// Scratch directories for in-flight invocations live under tmp/.
package cache
