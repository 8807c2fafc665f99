// Command pgctl runs the paging subsystem's reference scenarios against
// the concrete kernel-package implementations and prints a tabular
// summary of the counters each scenario exercises.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/blumenra/vmpaging/policy"
)

var policyName string

func resolvePolicy(name string) (policy.Policy, error) {
	switch name {
	case "nfua":
		return policy.NFUA{}, nil
	case "lapa":
		return policy.LAPA{}, nil
	case "scfifo":
		return policy.SCFIFO{}, nil
	case "aq":
		return policy.AQ{}, nil
	case "none":
		return policy.None{}, nil
	default:
		return nil, fmt.Errorf("unknown policy %q (want nfua, lapa, scfifo, aq or none)", name)
	}
}

func main() {
	root := &cobra.Command{
		Use:   "pgctl",
		Short: "Drive the demand-paging subsystem through reference scenarios",
		Long: `pgctl exercises the demand-paging subsystem's resident-set manager,
swap-file manager and replacement policies through a handful of reference
scenarios, printing the counters (paged_out_count, page_fault_count,
resident/swap occupancy) each one is designed to exhibit.`,
	}
	root.PersistentFlags().StringVar(&policyName, "policy", "nfua", "replacement policy: nfua, lapa, scfifo, aq or none")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "Run a named reference scenario, or all of them if none is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pol, err := resolvePolicy(policyName)
			if err != nil {
				return err
			}
			names := scenarioNames
			if len(args) == 1 {
				names = []string{args[0]}
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SCENARIO\tPOLICY\tRESIDENT\tSWAP\tPAGED_OUT\tPAGE_FAULTS\tOK")
			for _, name := range names {
				scenario, ok := scenarios[name]
				if !ok {
					return fmt.Errorf("unknown scenario %q", name)
				}
				result := scenario(pol)
				status := "ok"
				if result.err != nil {
					status = result.err.Error()
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
					name, policyName, result.resident, result.swap,
					result.pagedOut, result.pageFaults, status)
			}
			return tw.Flush()
		},
	}

	var scenarioFile string
	fileCmd := &cobra.Command{
		Use:   "scenario-file",
		Short: "Run a custom multi-process workload defined in a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if scenarioFile == "" {
				return fmt.Errorf("--scenario is required")
			}
			pol, err := resolvePolicy(policyName)
			if err != nil {
				return err
			}
			result, err := runScenarioFile(scenarioFile, pol)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PID\tRESIDENT\tSWAP\tPAGED_OUT\tPAGE_FAULTS")
			for _, p := range result {
				fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\n",
					p.pid, p.resident, p.swap, p.pagedOut, p.pageFaults)
			}
			return tw.Flush()
		},
	}
	fileCmd.Flags().StringVar(&scenarioFile, "scenario", "", "path to a YAML scenario file")

	root.AddCommand(runCmd, fileCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
