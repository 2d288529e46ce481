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
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"github.com/NVIDIA/recipekit/pkg/defaults"
	"github.com/NVIDIA/recipekit/pkg/errors"
)

// cloneFunc matches git.PlainCloneContext so tests can substitute a local repository.
type cloneFunc func(ctx context.Context, path string, isBare bool, o *git.CloneOptions) (*git.Repository, error)

// GitFetcher fetches sources with go-git. No retries are attempted; the
// first failure is returned.
type GitFetcher struct {
	// Depth limits fetched history. Zero fetches full history.
	Depth int
	// Overwrite replaces an existing destination tree after a successful clone.
	Overwrite bool
	// Auth overrides the authentication derived from the URL scheme.
	Auth transport.AuthMethod

	clone cloneFunc
}

// NewGitFetcher returns a GitFetcher performing shallow clones.
func NewGitFetcher() *GitFetcher {
	return &GitFetcher{
		Depth: defaults.CloneDepth,
		clone: git.PlainCloneContext,
	}
}

// Fetch clones spec.URL into dest.
func (g *GitFetcher) Fetch(ctx context.Context, spec Spec, dest string) (*Revision, error) {
	errCtx := map[string]any{"url": spec.URL, "ref": spec.Ref, "dest": dest}

	if err := spec.Validate(); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest, "invalid source spec", err, errCtx)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeFetch, "fetch cancelled", err, errCtx)
	}

	exists, err := nonEmptyDir(dest)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeFetch, "failed to inspect destination", err, errCtx)
	}
	if exists && !g.Overwrite {
		return nil, errors.NewWithContext(errors.ErrCodeFetch,
			fmt.Sprintf("destination %s already exists and is not empty", dest), errCtx)
	}

	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeFetch, "failed to create working directory", err, errCtx)
	}
	staging, err := os.MkdirTemp(parent, "."+filepath.Base(dest)+".fetch-*")
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeFetch, "failed to create staging directory", err, errCtx)
	}
	committed := false
	defer func() {
		if !committed {
			if rmErr := os.RemoveAll(staging); rmErr != nil {
				slog.Warn("failed to remove staging directory", "path", staging, "error", rmErr)
			}
		}
	}()

	auth, err := g.authFor(spec.URL)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeFetch, "failed to prepare credentials", err, errCtx)
	}

	slog.Info("cloning source", "url", spec.URL, "ref", refLabel(spec.Ref), "depth", g.Depth)

	progress := newLogWriter("clone progress", "url", spec.URL)
	defer progress.Close()

	repo, err := g.cloneRef(ctx, staging, spec, auth, progress)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeFetch, "failed to clone repository", err, errCtx)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeFetch, "failed to resolve HEAD", err, errCtx)
	}

	if exists {
		if err := os.RemoveAll(dest); err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeFetch, "failed to replace destination", err, errCtx)
		}
	}
	if err := os.Rename(staging, dest); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeFetch, "failed to move clone into place", err, errCtx)
	}
	committed = true

	rev := &Revision{
		URL:    spec.URL,
		Ref:    head.Name().Short(),
		Commit: head.Hash().String(),
	}
	slog.Info("source fetched", "url", rev.URL, "ref", rev.Ref, "commit", rev.Commit)
	return rev, nil
}

// cloneRef clones the requested ref. A short ref name is tried as a branch
// first and as a tag when no branch matches.
func (g *GitFetcher) cloneRef(ctx context.Context, path string, spec Spec, auth transport.AuthMethod, progress io.Writer) (*git.Repository, error) {
	clone := g.clone
	if clone == nil {
		clone = git.PlainCloneContext
	}

	opts := &git.CloneOptions{
		URL:          spec.URL,
		Auth:         auth,
		Depth:        g.Depth,
		SingleBranch: true,
		Tags:         git.NoTags,
		Progress:     progress,
	}

	switch {
	case spec.Ref == "":
		return clone(ctx, path, false, opts)
	case strings.HasPrefix(spec.Ref, "refs/"):
		opts.ReferenceName = plumbing.ReferenceName(spec.Ref)
		return clone(ctx, path, false, opts)
	}

	opts.ReferenceName = plumbing.NewBranchReferenceName(spec.Ref)
	repo, err := clone(ctx, path, false, opts)
	if err == nil || !isRefNotFound(err) {
		return repo, err
	}

	slog.Debug("no branch matches ref, trying tag", "ref", spec.Ref)
	if err := resetDir(path); err != nil {
		return nil, err
	}
	opts.ReferenceName = plumbing.NewTagReferenceName(spec.Ref)
	return clone(ctx, path, false, opts)
}

func (g *GitFetcher) authFor(rawURL string) (transport.AuthMethod, error) {
	if g.Auth != nil {
		return g.Auth, nil
	}
	ep, err := transport.NewEndpoint(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid repository url %q: %w", rawURL, err)
	}
	if ep.Protocol != "ssh" {
		return nil, nil
	}
	user := ep.User
	if user == "" {
		user = gitssh.DefaultUsername
	}
	return gitssh.NewSSHAgentAuth(user)
}

func isRefNotFound(err error) bool {
	var noMatch git.NoMatchingRefSpecError
	return stderrors.As(err, &noMatch) || stderrors.Is(err, plumbing.ErrReferenceNotFound)
}

func refLabel(ref string) string {
	if ref == "" {
		return "(default branch)"
	}
	return ref
}

// resetDir empties dir while keeping it in place.
func resetDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func nonEmptyDir(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return len(entries) > 0, nil
}

// logWriter forwards clone progress lines to the debug log.
type logWriter struct {
	pw   *io.PipeWriter
	done chan struct{}
}

func newLogWriter(msg string, args ...any) *logWriter {
	pr, pw := io.Pipe()
	w := &logWriter{pw: pw, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		scanner := bufio.NewScanner(pr)
		scanner.Split(scanProgress)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				slog.Debug(msg, append(args, "line", line)...)
			}
		}
		// keep consuming so a scanner failure never stalls the clone
		_, _ = io.Copy(io.Discard, pr)
	}()
	return w
}

func (w *logWriter) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *logWriter) Close() {
	_ = w.pw.Close()
	<-w.done
}

// scanProgress splits on both '\n' and '\r'; git redraws progress with carriage returns.
func scanProgress(data []byte, atEOF bool) (int, []byte, error) {
	for i, b := range data {
		if b == '\n' || b == '\r' {
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
