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

// Package serializer encodes recipekit documents as JSON, YAML or a
// tree-style table, and decodes them back from JSON or YAML.
//
// # Formats
//
// JSON and YAML round-trip. Table is a flattened, read-only view meant for
// terminals:
//
//	fingerprint.digest   sha256:4f0c...
//	fingerprint.mode     header_only
//	identity.name        QtPromise
//
// # Writing
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatYAML, path)
//	defer w.Close()
//	if err := w.Serialize(ctx, result); err != nil {
//	    return err
//	}
//
// An empty path, or a file that cannot be created, falls back to stdout.
// WriteFile picks the format from the file extension and is used for the
// package info stored next to each cached package.
//
// # Reading
//
//	info, err := serializer.FromFile[recipe.PackageInfo]("info.yaml")
//
// Format detection is by extension: .json is JSON, .yaml and .yml are YAML,
// .table is table (not decodable). Anything else is read as JSON.
package serializer
