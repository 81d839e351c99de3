package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-circuit/pkg/analysis"
	"github.com/dd0wney/cluso-circuit/pkg/metrics"
	"github.com/dd0wney/cluso-circuit/pkg/pcb"
	"github.com/dd0wney/cluso-circuit/pkg/schema"
	"github.com/dd0wney/cluso-circuit/pkg/validation"
)

var (
	pcbPath    string
	outputPath string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <schematic.json>",
	Short: "Run the full analysis pipeline over a schematic snapshot",
	Long: `Runs connectivity checks, voltage propagation, capacitor
classification, and decoupling grouping over a schematic snapshot.
With --pcb, also scores each IC's decoupling network against the
routed board.

Examples:
  circuit analyze board.json
  circuit analyze board.json --pcb layout.json -o report.json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&pcbPath, "pcb", "",
		"routed board snapshot to score against")
	analyzeCmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"write the report to a file instead of stdout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	s, err := loadSchematic(args[0])
	if err != nil {
		return err
	}

	var board *pcb.Design
	if pcbPath != "" {
		board, err = loadBoard(pcbPath)
		if err != nil {
			return err
		}
	}

	report := analysis.NewPipeline(cfg, log, metrics.DefaultRegistry()).Run(s, board)

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if outputPath != "" {
		return os.WriteFile(outputPath, out, 0o644)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// loadSchematic reads and validates a schematic snapshot.
func loadSchematic(path string) (*schema.Schematic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schematic: %w", err)
	}
	var s schema.Schematic
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing schematic: %w", err)
	}
	if err := validation.ValidateSnapshot(snapshotView(&s)); err != nil {
		return nil, fmt.Errorf("invalid schematic: %w", err)
	}
	return &s, nil
}

// loadBoard reads a routed board snapshot.
func loadBoard(path string) (*pcb.Design, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading board: %w", err)
	}
	var d pcb.Design
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing board: %w", err)
	}
	return &d, nil
}

// snapshotView projects a schematic onto the validation request shape.
func snapshotView(s *schema.Schematic) *validation.SnapshotRequest {
	req := &validation.SnapshotRequest{Name: s.Name}
	for _, c := range s.Components {
		req.Components = append(req.Components, validation.ComponentRequest{
			RefDes:    c.RefDes,
			Value:     c.Value,
			Footprint: c.Footprint,
		})
	}
	for _, n := range s.Nets {
		nr := validation.NetRequest{Name: n.Name}
		for _, conn := range n.Connections {
			nr.Connections = append(nr.Connections, validation.ConnectionRequest{
				Ref: conn.RefDes,
				Pin: conn.Pin,
			})
		}
		req.Nets = append(req.Nets, nr)
	}
	return req
}
