/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/recipekit/pkg/cache"
	"github.com/NVIDIA/recipekit/pkg/fingerprint"
	"github.com/NVIDIA/recipekit/pkg/header"
	"github.com/NVIDIA/recipekit/pkg/packager"
	"github.com/NVIDIA/recipekit/pkg/pipeline"
	"github.com/NVIDIA/recipekit/pkg/recipe"
	"github.com/NVIDIA/recipekit/pkg/source"
)

func createCmd() *cli.Command {
	return &cli.Command{
		Name:                  "create",
		EnableShellCompletion: true,
		Usage:                 "Fetch, package and describe the recipe into the local cache",
		Description: `Run every recipe stage in order:
  1. compute the package fingerprint from the recipe identity and settings
  2. clone the upstream sources
  3. copy include/ and src/ into the package tree
  4. record the package info and a checksum manifest

The package is stored under <cache>/data/<name>/<version>/package/<fingerprint>.
Any stage failure aborts the run and leaves the previously cached package
untouched.

# Examples

Create the package with default settings:
  recipekit create

Pin the upstream tag and keep the sources:
  recipekit create --ref v0.7.0 --keep-source

Settings never change a header-only package's fingerprint:
  recipekit create -s os=Windows -s compiler=msvc`,
		Flags: []cli.Flag{
			recipeFlag(),
			refFlag(),
			settingFlag(),
			cacheFlag(),
			&cli.BoolFlag{
				Name:  "keep-source",
				Usage: "keep the cloned sources in the cache after packaging",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "write stage metrics in Prometheus text format to this file",
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
			settings, err := parseSettings(cmd)
			if err != nil {
				return err
			}

			c, err := cache.New(cmd.String("cache"))
			if err != nil {
				return err
			}
			runner, err := pipeline.New(
				pipeline.WithCache(c),
				pipeline.WithKeepSource(cmd.Bool("keep-source")),
				pipeline.WithVersion(version),
			)
			if err != nil {
				return err
			}

			res, runErr := runner.Create(ctx, rc, settings)

			// metrics are written for failed runs too
			if path := cmd.String("metrics-file"); path != "" {
				if err := pipeline.WriteMetrics(path); err != nil {
					slog.Warn("failed to write metrics", "path", path, "error", err)
				}
			}

			if runErr != nil {
				return fmt.Errorf("create %s failed: %w", rc.Reference(), runErr)
			}
			return writeOutput(ctx, cmd, res)
		},
	}
}

// InspectResult describes a recipe and where its package would be cached.
type InspectResult struct {
	header.Header `json:",inline" yaml:",inline"`

	Identity    recipe.Identity         `json:"identity" yaml:"identity"`
	Settings    []string                `json:"settings" yaml:"settings"`
	PackageID   fingerprint.Mode        `json:"packageId" yaml:"packageId"`
	Source      source.Spec             `json:"source" yaml:"source"`
	Rules       []packager.Rule         `json:"package" yaml:"package"`
	LibDirs     []string                `json:"libDirs" yaml:"libDirs"`
	Fingerprint fingerprint.Fingerprint `json:"fingerprint" yaml:"fingerprint"`
	Cached      bool                    `json:"cached" yaml:"cached"`
	PackageDir  string                  `json:"packageDir" yaml:"packageDir"`
}

func inspectCmd() *cli.Command {
	return &cli.Command{
		Name:                  "inspect",
		EnableShellCompletion: true,
		Usage:                 "Print the recipe identity, settings keys and package fingerprint",
		Flags: []cli.Flag{
			recipeFlag(),
			refFlag(),
			settingFlag(),
			cacheFlag(),
			outputFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rc, err := loadRecipe(cmd)
			if err != nil {
				return err
			}
			settings, err := parseSettings(cmd)
			if err != nil {
				return err
			}
			res, err := inspect(rc, settings, cmd.String("cache"))
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, res)
		},
	}
}

func inspect(rc recipe.Recipe, settings recipe.Settings, cacheRoot string) (*InspectResult, error) {
	fp, err := rc.ComputeIdentity(settings)
	if err != nil {
		return nil, err
	}
	c, err := cache.New(cacheRoot)
	if err != nil {
		return nil, err
	}
	ref, err := cache.ParseRef(rc.Reference())
	if err != nil {
		return nil, err
	}

	res := &InspectResult{
		Identity:    rc.Identity(),
		Settings:    rc.SettingsKeys(),
		PackageID:   rc.IDMode(),
		Source:      rc.Source(),
		Rules:       rc.Rules(),
		LibDirs:     rc.LibDirs(),
		Fingerprint: fp,
		Cached:      c.Exists(ref, fp.ID()),
		PackageDir:  c.PackageDir(ref, fp.ID()),
	}
	res.Init(header.KindInspectResult, version)
	return res, nil
}

func removeCmd() *cli.Command {
	return &cli.Command{
		Name:                  "remove",
		EnableShellCompletion: true,
		Usage:                 "Remove the recipe's packages and sources from the local cache",
		Flags: []cli.Flag{
			recipeFlag(),
			cacheFlag(),
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			rc, err := loadRecipe(cmd)
			if err != nil {
				return err
			}
			c, err := cache.New(cmd.String("cache"))
			if err != nil {
				return err
			}
			ref, err := cache.ParseRef(rc.Reference())
			if err != nil {
				return err
			}
			if err := c.Remove(ref); err != nil {
				return err
			}
			slog.Info("cache entry removed", "reference", ref.String(), "cache", c.Root())
			return nil
		},
	}
}
