/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/recipekit/pkg/defaults"
	"github.com/NVIDIA/recipekit/pkg/recipe"
	"github.com/NVIDIA/recipekit/pkg/serializer"
)

// Flags are built per command so parsed values never leak between runs.

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "output file path (default: stdout)",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Usage:   fmt.Sprintf("output format (supported values: %s)", strings.Join(serializer.SupportedFormats(), ", ")),
		Value:   string(serializer.FormatYAML),
	}
}

func recipeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "recipe",
		Aliases: []string{"r"},
		Usage:   "recipe YAML file (default: built-in QtPromise recipe)",
		Sources: cli.EnvVars("RECIPEKIT_RECIPE"),
	}
}

func refFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "ref",
		Usage: "pin the upstream branch or tag (default: tip of the default branch)",
	}
}

func settingFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "setting",
		Aliases: []string{"s"},
		Usage:   "build setting as key=value (repeatable, e.g. -s os=Linux -s build_type=Release)",
	}
}

func cacheFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "cache",
		Usage:   "local cache root (default: ~/.recipekit)",
		Sources: cli.EnvVars(defaults.EnvVarHome),
	}
}

// parseOutputFormat reads and validates the --format flag.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	outFormat := serializer.Format(cmd.String("format"))
	if outFormat.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q", outFormat)
	}
	return outFormat, nil
}

// writeOutput serializes v to --output (or stdout) in --format.
func writeOutput(ctx context.Context, cmd *cli.Command, v any) error {
	outFormat, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}

	ser := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
	defer func() {
		if err := ser.Close(); err != nil {
			slog.Warn("failed to close output", "error", err)
		}
	}()

	return ser.Serialize(ctx, v)
}

// loadRecipe returns the --recipe file, or the built-in recipe, with --ref
// applied when the command defines it.
func loadRecipe(cmd *cli.Command) (recipe.Recipe, error) {
	rc := recipe.Builtin()
	if path := cmd.String("recipe"); path != "" {
		var err error
		if rc, err = recipe.Load(path); err != nil {
			return recipe.Recipe{}, err
		}
	}
	if ref := cmd.String("ref"); ref != "" {
		rc = rc.WithRef(ref)
	}
	slog.Debug("recipe loaded",
		"reference", rc.Reference(),
		"url", rc.Source().URL,
		"ref", rc.Source().Ref)
	return rc, nil
}

func parseSettings(cmd *cli.Command) (recipe.Settings, error) {
	return recipe.ParseSettings(cmd.StringSlice("setting"))
}
