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

	"github.com/NVIDIA/recipekit/pkg/checksum"
)

func verifyCmd() *cli.Command {
	return &cli.Command{
		Name:                  "verify",
		EnableShellCompletion: true,
		Usage:                 "Verify a package tree against its checksum manifest",
		Description: `Recompute the SHA256 of every file listed in the manifest and report
files that were modified or removed. Exits non-zero on any mismatch.

# Examples

  recipekit verify \
    --dir ~/.recipekit/data/QtPromise/master/package/<fingerprint> \
    --manifest ~/.recipekit/data/QtPromise/master/metadata/<fingerprint>/checksums.txt`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "dir",
				Aliases:  []string{"d"},
				Usage:    "package root the manifest paths are relative to",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "manifest",
				Aliases:  []string{"m"},
				Usage:    fmt.Sprintf("checksum manifest (%s)", checksum.ChecksumFileName),
				Required: true,
			},
			outputFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}

			report, verifyErr := checksum.VerifyChecksums(ctx, cmd.String("dir"), cmd.String("manifest"))
			if report == nil {
				return verifyErr
			}

			if err := writeOutput(ctx, cmd, report); err != nil {
				return fmt.Errorf("failed to serialize verification report: %w", err)
			}

			slog.Info("verification completed",
				"verified", report.Verified,
				"modified", len(report.Modified),
				"missing", len(report.Missing))

			return verifyErr
		},
	}
}
