/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/recipekit/pkg/cache"
	"github.com/NVIDIA/recipekit/pkg/oci"
	"github.com/NVIDIA/recipekit/pkg/recipe"
	"github.com/NVIDIA/recipekit/pkg/serializer"
)

func uploadCmd() *cli.Command {
	return &cli.Command{
		Name:                  "upload",
		EnableShellCompletion: true,
		Usage:                 "Publish a package tree as an OCI artifact",
		Description: `Pack a package tree into a single-layer OCI artifact annotated with the
recipe identity and, when --info is given, the package fingerprint, libraries
and upstream revision.

The target is either a registry reference or a local directory, where an
OCI image layout is written:

  recipekit upload --dir <package> --to oci://ghcr.io/nvidia/qtpromise:master
  recipekit upload --dir <package> --to ./qtpromise-layout --tag master`,
		Flags: []cli.Flag{
			recipeFlag(),
			cacheFlag(),
			&cli.StringFlag{
				Name:     "dir",
				Aliases:  []string{"d"},
				Usage:    "package root to publish",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "to",
				Usage:    fmt.Sprintf("target: %sregistry/repository[:tag] or a local directory", oci.URIScheme),
				Required: true,
			},
			&cli.StringFlag{
				Name:  "tag",
				Usage: "artifact tag when the target has none (default: recipe version)",
			},
			&cli.StringFlag{
				Name:  "info",
				Usage: "package info document whose fingerprint and libraries are added as annotations",
			},
			&cli.StringFlag{
				Name:  "timestamp",
				Usage: "fixed RFC3339 creation timestamp for reproducible artifacts",
			},
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "use HTTP instead of HTTPS for the registry",
			},
			&cli.BoolFlag{
				Name:  "insecure-tls",
				Usage: "skip registry TLS certificate verification",
			},
			outputFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}
			rc, err := loadRecipe(cmd)
			if err != nil {
				return err
			}

			ref, err := oci.ParseOutputTarget(cmd.String("to"))
			if err != nil {
				return err
			}
			if ref.Tag == "" {
				tag := cmd.String("tag")
				if tag == "" {
					tag = rc.Identity().Version
				}
				ref = ref.WithTag(tag)
			}

			var info *recipe.PackageInfo
			if path := cmd.String("info"); path != "" {
				if info, err = serializer.FromFile[recipe.PackageInfo](path); err != nil {
					return fmt.Errorf("failed to load package info from %q: %w", path, err)
				}
			}

			cfg := oci.OutputConfig{
				SourceDir:             cmd.String("dir"),
				Reference:             ref,
				PlainHTTP:             cmd.Bool("plain-http"),
				InsecureTLS:           cmd.Bool("insecure-tls"),
				Annotations:           oci.PackageAnnotations(rc.Identity(), info),
				ReproducibleTimestamp: cmd.String("timestamp"),
			}

			if ref.IsOCI {
				c, err := cache.New(cmd.String("cache"))
				if err != nil {
					return err
				}
				layout, err := c.TempDir("upload-*")
				if err != nil {
					return err
				}
				defer func() {
					if err := os.RemoveAll(layout); err != nil {
						slog.Warn("failed to remove layout directory", "path", layout, "error", err)
					}
				}()
				cfg.OutputDir = layout
			}

			res, err := oci.Upload(ctx, cfg)
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, res)
		},
	}
}
