package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/payhub-dev/payhub/internal/cli/client"
)

// NewDebugCmd creates the debug command group
func NewDebugCmd(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:    "debug",
		Short:  "Troubleshooting helpers",
		Hidden: true,
	}
	cmd.AddCommand(newDebugMetricsCmd(o))
	return cmd
}

func newDebugMetricsCmd(o *Options) *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Print request pipeline metrics in Prometheus text format",
		Long: `Print request pipeline metrics in Prometheus text format.

With --probe an authenticated profile request is sent first, so the output
shows one round trip through the pipeline.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.connect()
			if err != nil {
				return err
			}

			if probe {
				// probes stay out of the in-flight count
				ctx := client.SkipIndicator(cmd.Context())
				if _, err := e.client.GetProfile(ctx); err != nil {
					fmt.Fprintf(o.Err, "probe failed: %v\n", err)
				}
			}

			return e.metrics.WriteText(o.Out)
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "Send one profile request before printing")
	return cmd
}

