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

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/NVIDIA/recipekit/pkg/cache"
	"github.com/NVIDIA/recipekit/pkg/checksum"
	"github.com/NVIDIA/recipekit/pkg/defaults"
	"github.com/NVIDIA/recipekit/pkg/errors"
	"github.com/NVIDIA/recipekit/pkg/fingerprint"
	"github.com/NVIDIA/recipekit/pkg/header"
	"github.com/NVIDIA/recipekit/pkg/packager"
	"github.com/NVIDIA/recipekit/pkg/recipe"
	"github.com/NVIDIA/recipekit/pkg/serializer"
	"github.com/NVIDIA/recipekit/pkg/source"
)

// Stage names, in execution order.
const (
	StageIdentity = "identity"
	StageSource   = "source"
	StagePackage  = "package"
	StageInfo     = "info"
)

// MetadataInvocation is the header metadata key carrying the invocation id.
const MetadataInvocation = "invocation"

// StageTiming records how long one stage took.
type StageTiming struct {
	Stage    string        `json:"stage" yaml:"stage"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Result summarizes a create invocation.
type Result struct {
	header.Header `json:",inline" yaml:",inline"`

	InvocationID string                  `json:"invocationId" yaml:"invocationId"`
	Reference    string                  `json:"reference" yaml:"reference"`
	Fingerprint  fingerprint.Fingerprint `json:"fingerprint" yaml:"fingerprint"`
	Source       source.Revision         `json:"source" yaml:"source"`

	// SourceDir is set when the source tree was kept.
	SourceDir    string        `json:"sourceDir,omitempty" yaml:"sourceDir,omitempty"`
	PackageDir   string        `json:"packageDir" yaml:"packageDir"`
	InfoPath     string        `json:"infoPath" yaml:"infoPath"`
	ChecksumPath string        `json:"checksumPath" yaml:"checksumPath"`
	Files        int           `json:"files" yaml:"files"`
	Bytes        int64         `json:"bytes" yaml:"bytes"`
	Libs         []string      `json:"libs" yaml:"libs"`
	Stages       []StageTiming `json:"stages" yaml:"stages"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
}

// Runner drives recipes through their stages against a cache.
type Runner struct {
	cache      *cache.Cache
	keepSource bool
	version    string

	rename func(oldpath, newpath string) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithCache sets the cache packages are written to.
func WithCache(c *cache.Cache) Option {
	return func(r *Runner) {
		if c != nil {
			r.cache = c
		}
	}
}

// WithKeepSource keeps the source clone in the cache after packaging.
func WithKeepSource(keep bool) Option {
	return func(r *Runner) {
		r.keepSource = keep
	}
}

// WithVersion sets the tool version stamped into written documents.
func WithVersion(v string) Option {
	return func(r *Runner) {
		r.version = v
	}
}

// New returns a Runner. Without WithCache the default cache root is used.
func New(opts ...Option) (*Runner, error) {
	r := &Runner{rename: os.Rename}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		c, err := cache.New("")
		if err != nil {
			return nil, err
		}
		r.cache = c
	}
	return r, nil
}

// Cache returns the cache the runner writes to.
func (r *Runner) Cache() *cache.Cache {
	return r.cache
}

// invocation carries the state of one Create call between stages.
type invocation struct {
	id      string
	recipe  recipe.Recipe
	ref     cache.Ref
	workDir string
	result  *Result
}

// Create runs identity, source, package and info for rc with settings, in
// that order, and stores the package under its fingerprint in the cache.
// The first failing stage ends the run; nothing is left in the cache and
// the error keeps the stage's error code.
func (r *Runner) Create(ctx context.Context, rc recipe.Recipe, settings recipe.Settings) (*Result, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, defaults.CreateTimeout)
	defer cancel()

	ref, err := cache.ParseRef(rc.Reference())
	if err != nil {
		return nil, err
	}

	inv := &invocation{
		id:     uuid.NewString(),
		recipe: rc,
		ref:    ref,
		result: &Result{
			Reference: ref.String(),
			Stages:    make([]StageTiming, 0, 4),
		},
	}
	inv.result.InvocationID = inv.id
	inv.result.Init(header.KindCreateResult, r.version)
	header.WithMetadata(MetadataInvocation, inv.id)(&inv.result.Header)

	log := slog.With("invocation", inv.id, "reference", inv.result.Reference)
	log.Info("create started", "cache", r.cache.Root(), "settings", settings)

	workDir, err := r.cache.TempDir("create-*")
	if err != nil {
		createTotal.WithLabelValues("failure").Inc()
		return nil, err
	}
	inv.workDir = workDir
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			log.Warn("failed to remove working directory", "path", workDir, "error", rmErr)
		}
	}()

	if err := r.run(ctx, log, inv, settings); err != nil {
		createTotal.WithLabelValues("failure").Inc()
		log.Error("create failed", "error", err, "duration", time.Since(start).String())
		return nil, err
	}

	inv.result.Duration = time.Since(start)
	createTotal.WithLabelValues("success").Inc()
	log.Info("create completed",
		"fingerprint", inv.result.Fingerprint.String(),
		"package", inv.result.PackageDir,
		"files", inv.result.Files,
		"duration", inv.result.Duration.String(),
	)
	return inv.result, nil
}

func (r *Runner) run(ctx context.Context, log *slog.Logger, inv *invocation, settings recipe.Settings) error {
	res := inv.result
	var (
		src     *recipe.SourceResult
		pkg     *packager.Result
		info    *recipe.PackageInfo
		staging = filepath.Join(inv.workDir, "package")
		meta    = filepath.Join(inv.workDir, "metadata")
	)

	err := r.stage(ctx, log, inv, StageIdentity, func(context.Context) error {
		fp, err := inv.recipe.ComputeIdentity(settings)
		res.Fingerprint = fp
		return err
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, log, inv, StageSource, func(ctx context.Context) error {
		var err error
		src, err = inv.recipe.AcquireSource(ctx, filepath.Join(inv.workDir, "source"))
		return err
	})
	if err != nil {
		return err
	}
	res.Source = src.Revision

	err = r.stage(ctx, log, inv, StagePackage, func(ctx context.Context) error {
		var err error
		pkg, err = inv.recipe.BuildPackage(ctx, src.Dir, staging)
		return err
	})
	if err != nil {
		return err
	}
	res.Files = len(pkg.Files)
	res.Bytes = pkg.Bytes

	err = r.stage(ctx, log, inv, StageInfo, func(ctx context.Context) error {
		var err error
		info, err = inv.recipe.DescribePackageInfo(staging)
		if err != nil {
			return err
		}
		info.Init(header.KindPackageInfo, r.version)
		header.WithMetadata(MetadataInvocation, inv.id)(&info.Header)
		info.Fingerprint = res.Fingerprint.String()
		info.Settings = res.Fingerprint.Settings
		info.Source = &src.Revision

		if err := os.MkdirAll(meta, 0o755); err != nil {
			return errors.WrapWithContext(errors.ErrCodeInternal, "failed to create metadata directory", err,
				map[string]any{"path": meta})
		}
		if err := serializer.WriteFile(filepath.Join(meta, cache.InfoFileName), info); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, "failed to write package info", err)
		}
		return checksum.GenerateChecksums(ctx, staging, pkg.Files, filepath.Join(meta, checksum.ChecksumFileName))
	})
	if err != nil {
		return err
	}
	res.Libs = info.Libs

	return r.commit(inv, src.Dir, staging, meta)
}

// stage runs fn as the named stage, recording its duration and failure.
func (r *Runner) stage(ctx context.Context, log *slog.Logger, inv *invocation, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		stageFailures.WithLabelValues(name).Inc()
		return errors.WrapWithContext(errors.ErrCodeTimeout, fmt.Sprintf("%s stage not started", name), err,
			map[string]any{"stage": name, "invocation": inv.id})
	}

	log.Info("stage started", "stage", name)
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	stageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	inv.result.Stages = append(inv.result.Stages, StageTiming{Stage: name, Duration: elapsed})

	if err != nil {
		stageFailures.WithLabelValues(name).Inc()
		code := errors.CodeOf(err)
		if code == "" {
			code = errors.ErrCodeInternal
		}
		return errors.WrapWithContext(code, fmt.Sprintf("%s stage failed", name), err,
			map[string]any{"stage": name, "invocation": inv.id})
	}

	log.Info("stage completed", "stage", name, "duration", elapsed.String())
	return nil
}

// commit moves the staged package and metadata into the cache, replacing
// a previous package with the same fingerprint. Keeping the source is best
// effort.
func (r *Runner) commit(inv *invocation, srcDir, staging, meta string) error {
	res := inv.result
	fp := res.Fingerprint.ID()
	pkgDir := r.cache.PackageDir(inv.ref, fp)
	metaDir := r.cache.MetadataDir(inv.ref, fp)

	errCtx := map[string]any{"invocation": inv.id, "package": pkgDir}
	for _, dir := range []string{pkgDir, metaDir} {
		if err := os.RemoveAll(dir); err != nil {
			return errors.WrapWithContext(errors.ErrCodeInternal, "failed to clear previous package", err, errCtx)
		}
		if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
			return errors.WrapWithContext(errors.ErrCodeInternal, "failed to create cache directory", err, errCtx)
		}
	}

	if err := os.Rename(staging, pkgDir); err != nil {
		return errors.WrapWithContext(errors.ErrCodeInternal, "failed to move package into cache", err, errCtx)
	}
	if err := os.Rename(meta, metaDir); err != nil {
		_ = os.RemoveAll(pkgDir)
		return errors.WrapWithContext(errors.ErrCodeInternal, "failed to move package metadata into cache", err, errCtx)
	}

	res.PackageDir = pkgDir
	res.InfoPath = r.cache.InfoPath(inv.ref, fp)
	res.ChecksumPath = r.cache.ChecksumPath(inv.ref, fp)

	if r.keepSource {
		r.keepSourceTree(inv, srcDir)
	}
	return nil
}

// keepSourceTree moves the clone into the cache. The package is already
// committed at this point, so a failure only loses the kept source.
func (r *Runner) keepSourceTree(inv *invocation, srcDir string) {
	keep := r.cache.SourceDir(inv.ref)
	if err := os.RemoveAll(keep); err != nil {
		slog.Warn("failed to clear previous source, source not kept",
			"invocation", inv.id, "path", keep, "error", err)
		return
	}
	if err := r.rename(srcDir, keep); err != nil {
		slog.Warn("failed to keep source tree",
			"invocation", inv.id, "path", keep, "error", err)
		return
	}
	inv.result.SourceDir = keep
}
