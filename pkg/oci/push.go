/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package oci

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/distribution/reference"
	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	orasoci "oras.land/oras-go/v2/content/oci"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	"github.com/NVIDIA/recipekit/pkg/defaults"
	"github.com/NVIDIA/recipekit/pkg/errors"
)

// ArtifactType is the media type for recipekit package artifacts.
const ArtifactType = "application/vnd.nvidia.recipekit.package"

// PackageOptions configures local packaging of a package tree.
type PackageOptions struct {
	// SourceDir is the package tree to pack.
	SourceDir string
	// OutputDir receives the OCI Image Layout.
	OutputDir string
	// Tag names the manifest inside the layout.
	Tag string
	// Annotations are added to the manifest.
	Annotations map[string]string
	// ReproducibleTimestamp sets a fixed created annotation.
	ReproducibleTimestamp string
}

// PackageResult describes a locally packed artifact.
type PackageResult struct {
	// Digest is the SHA256 digest of the manifest.
	Digest string
	// Tag is the tag of the manifest inside the layout.
	Tag string
	// StorePath is the OCI Image Layout directory.
	StorePath string
}

// Package packs SourceDir as a single gzip tar layer into an OCI Image
// Layout at OutputDir.
func Package(ctx context.Context, opts PackageOptions) (*PackageResult, error) {
	if opts.Tag == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "tag is required for OCI packaging")
	}
	absSource, err := filepath.Abs(opts.SourceDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "failed to resolve source directory", err)
	}
	info, err := os.Stat(absSource)
	if err != nil || !info.IsDir() {
		return nil, errors.NewWithContext(errors.ErrCodeNotFound, "package directory not found",
			map[string]any{"path": absSource})
	}
	absOutput, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "failed to resolve output directory", err)
	}

	fs, err := file.New(absSource)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create file store", err)
	}
	defer func() { _ = fs.Close() }()

	// deterministic tars for reproducible digests
	fs.TarReproducible = true

	layerDesc, err := fs.Add(ctx, ".", ociv1.MediaTypeImageLayerGzip, absSource)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to add package directory to store", err)
	}

	annotations := make(map[string]string, len(opts.Annotations)+1)
	for k, v := range opts.Annotations {
		annotations[k] = v
	}
	if opts.ReproducibleTimestamp != "" {
		annotations[ociv1.AnnotationCreated] = opts.ReproducibleTimestamp
	}

	manifestDesc, err := oras.PackManifest(ctx, fs, oras.PackManifestVersion1_1, ArtifactType,
		oras.PackManifestOptions{
			Layers:              []ociv1.Descriptor{layerDesc},
			ManifestAnnotations: annotations,
		})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to pack manifest", err)
	}
	if tagErr := fs.Tag(ctx, manifestDesc, opts.Tag); tagErr != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to tag manifest in local store", tagErr)
	}

	store, err := orasoci.New(absOutput)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInternal, "failed to create OCI layout", err,
			map[string]any{"path": absOutput})
	}
	desc, err := oras.Copy(ctx, fs, opts.Tag, store, opts.Tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to write OCI layout", err)
	}

	slog.Debug("package packed into OCI layout",
		"source", absSource,
		"layout", absOutput,
		"digest", desc.Digest.String(),
	)

	return &PackageResult{
		Digest:    desc.Digest.String(),
		Tag:       opts.Tag,
		StorePath: absOutput,
	}, nil
}

// PushOptions configures the OCI push operation.
type PushOptions struct {
	// Registry is the OCI registry host (e.g., "ghcr.io", "localhost:5000").
	Registry string
	// Repository is the repository path (e.g., "nvidia/qtpromise").
	Repository string
	// Tag is the tag to push.
	Tag string
	// PlainHTTP uses HTTP instead of HTTPS for the registry connection.
	PlainHTTP bool
	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
}

// PushResult contains the result of a successful OCI push.
type PushResult struct {
	// Digest is the SHA256 digest of the pushed artifact.
	Digest string
	// Reference is the full image reference (registry/repository:tag).
	Reference string
}

// PushFromStore pushes the manifest tagged opts.Tag from the OCI layout at
// storePath to a remote registry, authenticating with Docker credentials.
func PushFromStore(ctx context.Context, storePath string, opts PushOptions) (*PushResult, error) {
	if opts.Tag == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "tag is required to push OCI artifact")
	}

	registryHost := stripProtocol(opts.Registry)
	refString := fmt.Sprintf("%s/%s:%s", registryHost, opts.Repository, opts.Tag)
	if _, parseErr := reference.ParseNormalizedNamed(refString); parseErr != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest, "invalid image reference", parseErr,
			map[string]any{"reference": refString})
	}

	store, err := orasoci.New(storePath)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInternal, "failed to open OCI layout", err,
			map[string]any{"path": storePath})
	}

	repo, err := remote.NewRepository(fmt.Sprintf("%s/%s", registryHost, opts.Repository))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "failed to initialize remote repository", err)
	}
	repo.PlainHTTP = opts.PlainHTTP
	repo.Client = createAuthClient(opts.PlainHTTP, opts.InsecureTLS)

	ctx, cancel := context.WithTimeout(ctx, defaults.PushTimeout)
	defer cancel()

	desc, err := oras.Copy(ctx, store, opts.Tag, repo, opts.Tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeUnavailable, "failed to push artifact to registry", err,
			map[string]any{"reference": refString})
	}

	return &PushResult{
		Digest:    desc.Digest.String(),
		Reference: refString,
	}, nil
}

// stripProtocol removes http:// or https:// prefix from a registry URL.
func stripProtocol(registry string) string {
	registry = strings.TrimPrefix(registry, "https://")
	registry = strings.TrimPrefix(registry, "http://")
	return registry
}

// createAuthClient creates an HTTP client with optional TLS configuration
// and Docker credential support.
func createAuthClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	if err != nil {
		slog.Debug("docker credential store unavailable, pushing anonymously", "error", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSHandshakeTimeout = defaults.HTTPTLSHandshakeTimeout
	transport.ResponseHeaderTimeout = defaults.HTTPResponseHeaderTimeout
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
		}
	}

	client := &auth.Client{
		Client: &http.Client{Transport: transport},
		Cache:  auth.NewCache(),
	}
	if credStore != nil {
		client.Credential = credentials.Credential(credStore)
	}
	return client
}
