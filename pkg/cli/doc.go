// Package cli implements the command-line interface for the recipekit tool.
//
// # Overview
//
// recipekit runs a package-manager recipe for the header-only QtPromise
// library: it derives the package fingerprint, clones the upstream sources,
// copies the headers and sources into a package tree, and records the
// package info consumers need to link against it.
//
// # Commands
//
// create - Run every stage into the local cache:
//
//	recipekit create [--recipe FILE] [--ref REF] [-s key=value]... [--keep-source]
//
// inspect - Print identity, settings keys and fingerprint:
//
//	recipekit inspect [-s key=value]...
//
// source, package, info - Run one stage on explicit directories:
//
//	recipekit source --dir WORKDIR
//	recipekit package --source WORKDIR/qtpromise --dest PKGDIR
//	recipekit info --dir PKGDIR
//
// verify - Check a package tree against its checksum manifest:
//
//	recipekit verify --dir PKGDIR --manifest checksums.txt
//
// upload - Publish a package tree as an OCI artifact:
//
//	recipekit upload --dir PKGDIR --to oci://ghcr.io/org/qtpromise:master
//
// remove - Drop the recipe's cache entry:
//
//	recipekit remove
//
// # Global Flags
//
//	--log-level    Log level: debug, info, warn, error (default: info)
//	--help, -h     Show command help
//	--version, -v  Show version information
//
// Commands producing a result accept:
//
//	--output, -o   Output file path (default: stdout)
//	--format, -t   Output format: yaml, json, table (default: yaml)
//
// # Environment Variables
//
//	LOG_LEVEL          Set logging verbosity (debug, info, warn, error)
//	RECIPEKIT_HOME     Cache root (default: ~/.recipekit)
//	RECIPEKIT_RECIPE   Recipe file used instead of the built-in recipe
//
// # Exit Codes
//
//	0  Success
//	1  Any failure; the error message carries the stage and error code
//
// # Architecture
//
// The CLI uses the urfave/cli/v3 framework and delegates to specialized packages:
//   - pkg/recipe - Recipe definition and the four stages
//   - pkg/pipeline - Stage orchestration, cache commit and metrics
//   - pkg/checksum - Manifest generation and verification
//   - pkg/oci - OCI artifact packing and push
//   - pkg/serializer - Output formatting
//   - pkg/logging - Structured logging
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/NVIDIA/recipekit/pkg/cli.version=1.0.0'"
package cli
