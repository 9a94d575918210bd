package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"metricquery/internal/plugin"
	"metricquery/sink"
	"metricquery/source"
)

// NewPluginsCommand lists what a run file can name.
func NewPluginsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List registered plugins, sources and sinks",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := plugin.Default()
			out := cmd.OutOrStdout()
			rows := []struct {
				kind  string
				names []string
			}{
				{"filters", reg.FilterNames()},
				{"aggregations", reg.AggregationNames()},
				{"time_groupings", reg.TimeGroupingNames()},
				{"sources", source.Drivers()},
				{"sinks", sink.Names()},
			}
			for _, r := range rows {
				if _, err := fmt.Fprintf(out, "%-15s %s\n", r.kind, strings.Join(r.names, ", ")); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
