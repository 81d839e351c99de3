package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-circuit/pkg/circuit"
)

var statsCmd = &cobra.Command{
	Use:   "stats <schematic.json>",
	Short: "Print graph statistics for a schematic snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	s, err := loadSchematic(args[0])
	if err != nil {
		return err
	}

	stats := circuit.FromSchematic(s).Stats()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Schematic:  %s\n", s.Name)
	fmt.Fprintf(out, "Components: %d (%d ICs)\n", stats.Components, stats.ICs)
	fmt.Fprintf(out, "Nets:       %d (%d power rails)\n", stats.Nets, stats.PowerNets)
	fmt.Fprintf(out, "Edges:      %d\n", stats.Edges)
	return nil
}
