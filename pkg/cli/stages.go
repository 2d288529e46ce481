/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/recipekit/pkg/header"
	"github.com/NVIDIA/recipekit/pkg/source"
)

func sourceCmd() *cli.Command {
	return &cli.Command{
		Name:                  "source",
		EnableShellCompletion: true,
		Usage:                 "Clone the recipe's upstream sources into a directory",
		Description: `Clone the upstream repository into <dir>/<clone dir>. Without --ref the
tip of the default branch is fetched, so consecutive runs may produce
different trees. The resolved commit is reported.`,
		Flags: []cli.Flag{
			recipeFlag(),
			refFlag(),
			&cli.StringFlag{
				Name:     "dir",
				Aliases:  []string{"d"},
				Usage:    "working directory to clone into",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "overwrite",
				Usage: "replace an existing clone",
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

			f := source.NewGitFetcher()
			f.Overwrite = cmd.Bool("overwrite")

			res, err := rc.WithFetcher(f).AcquireSource(ctx, cmd.String("dir"))
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, res)
		},
	}
}

func packageCmd() *cli.Command {
	return &cli.Command{
		Name:                  "package",
		EnableShellCompletion: true,
		Usage:                 "Copy the recipe's package files from a source tree",
		Description: `Apply the recipe's copy rules to a cloned source tree. For QtPromise the
include/ and src/ directories are copied, layout preserved. Nothing is
written to --dest when a rule's source directory is missing.`,
		Flags: []cli.Flag{
			recipeFlag(),
			&cli.StringFlag{
				Name:     "source",
				Usage:    "root of the cloned sources (the directory containing include/ and src/)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "dest",
				Usage:    "package root to write",
				Required: true,
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
			res, err := rc.BuildPackage(ctx, cmd.String("source"), cmd.String("dest"))
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, res)
		},
	}
}

func infoCmd() *cli.Command {
	return &cli.Command{
		Name:                  "info",
		EnableShellCompletion: true,
		Usage:                 "Describe the libraries a package links against",
		Flags: []cli.Flag{
			recipeFlag(),
			settingFlag(),
			&cli.StringFlag{
				Name:     "dir",
				Aliases:  []string{"d"},
				Usage:    "package root",
				Required: true,
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
			fp, err := rc.ComputeIdentity(settings)
			if err != nil {
				return err
			}

			info, err := rc.DescribePackageInfo(cmd.String("dir"))
			if err != nil {
				return err
			}
			info.Init(header.KindPackageInfo, version)
			info.Fingerprint = fp.String()
			info.Settings = fp.Settings
			return writeOutput(ctx, cmd, info)
		},
	}
}
