// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package cmd

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/lakescan/config"
	"github.com/cardinalhq/lakescan/internal/objectstore"
	"github.com/cardinalhq/lakescan/internal/parquetsource"
)

func init() {
	cmd := &cobra.Command{
		Use:   "parquet-schema",
		Short: "Print out the arrow schema of a Parquet file",
		RunE: func(c *cobra.Command, _ []string) error {
			filename, err := c.Flags().GetString("file")
			if err != nil {
				return fmt.Errorf("failed to get file flag: %w", err)
			}

			doneCtx, doneFx, err := setupTelemetry(config.ServiceName, nil)
			if err != nil {
				return fmt.Errorf("failed to setup telemetry: %w", err)
			}
			defer func() {
				_ = doneFx()
			}()

			return runParquetSchema(doneCtx, c.OutOrStdout(), filename)
		},
	}

	rootCmd.AddCommand(cmd)

	cmd.Flags().String("file", "", "Parquet file to read, a local path or an object store URL")
	if err := cmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Errorf("failed to mark file flag as required: %w", err))
	}
}

// splitObjectURL splits "s3://bucket/key" into the store URL and key. Plain
// paths are resolved on the local filesystem.
func splitObjectURL(s string) (objectstore.URL, string, error) {
	if !strings.Contains(s, "://") {
		abs, err := filepath.Abs(s)
		if err != nil {
			return objectstore.URL{}, "", err
		}
		s = "file://" + filepath.ToSlash(abs)
	}
	u, err := url.Parse(s)
	if err != nil {
		return objectstore.URL{}, "", fmt.Errorf("parse %q: %w", s, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return objectstore.URL{}, "", fmt.Errorf("%q does not name an object", s)
	}
	return objectstore.URL{Scheme: strings.ToLower(u.Scheme), Host: u.Host}, key, nil
}

func runParquetSchema(ctx context.Context, w io.Writer, filename string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	storeURL, key, err := splitObjectURL(filename)
	if err != nil {
		return err
	}
	registry := objectstore.NewRegistry()
	store, err := objectstore.Open(ctx, registry, storeURL, cfg.ObjectStore)
	if err != nil {
		return err
	}
	meta, err := store.Head(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", filename, err)
	}

	format := parquetsource.NewFormat(registry, cfg.Parquet)
	defer format.Close()
	schema, err := format.InferSchema(ctx, store, []objectstore.ObjectMeta{meta})
	if err != nil {
		return fmt.Errorf("failed to load schema for file %s: %w", filename, err)
	}

	fmt.Fprintln(w, schema.String())
	return nil
}
