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
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/lakescan/config"
	"github.com/cardinalhq/lakescan/internal/physicalplan"
)

func init() {
	var flags tableFlags
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the scan plan of a table without reading any data",
		RunE: func(c *cobra.Command, _ []string) error {
			doneCtx, doneFx, err := setupTelemetry(config.ServiceName, nil)
			if err != nil {
				return fmt.Errorf("failed to setup telemetry: %w", err)
			}
			defer func() {
				_ = doneFx()
			}()

			table, plan, err := planScan(doneCtx, &flags)
			if err != nil {
				return err
			}
			defer table.Close()

			writePlan(c.OutOrStdout(), plan)
			return nil
		},
	}
	addTableFlags(cmd, &flags)
	rootCmd.AddCommand(cmd)
}

func writePlan(w io.Writer, plan physicalplan.ExecutionPlan) {
	fmt.Fprintf(w, "Schema:\n%s\n", plan.Schema())
	fmt.Fprintf(w, "Statistics: %s\n", plan.Statistics())

	orderings := plan.OutputOrdering()
	if len(orderings) == 0 {
		fmt.Fprintln(w, "Output ordering: none")
	}
	for _, o := range orderings {
		fmt.Fprintf(w, "Output ordering: %s\n", o)
	}

	fmt.Fprintf(w, "Plan:\n%s", physicalplan.Describe(plan))
	for _, groups := range physicalplan.ScanFiles(plan) {
		fmt.Fprintf(w, "File groups (%d):\n", len(groups))
		for i, g := range groups {
			fmt.Fprintf(w, "  [%d] %d files, %d bytes\n", i, len(g), g.TotalSize())
			for _, f := range g {
				fmt.Fprintf(w, "      %s\n", f)
			}
		}
	}
}
