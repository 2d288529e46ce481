/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

// Package pipeline runs a recipe end to end, the way `conan create` does.
//
// Create executes the four recipe stages in fixed order:
//
//	identity -> source -> package -> info
//
// All work happens in a scratch directory inside the cache. Only after the
// info stage has written info.yaml and checksums.txt are the package tree
// and its metadata moved to
//
//	<cache>/data/<name>/<version>/package/<fingerprint>
//	<cache>/data/<name>/<version>/metadata/<fingerprint>
//
// so a failing stage never leaves a partial package behind. Each stage is
// timed into recipekit_stage_duration_seconds; failures increment
// recipekit_stage_failures_total. WriteMetrics dumps both to a textfile.
package pipeline
