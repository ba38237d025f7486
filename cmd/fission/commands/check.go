package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/fission/pkg/check"
	"github.com/chazu/fission/pkg/kernel/sdfx"
	"github.com/chazu/fission/pkg/schema"
)

func checkCmd() *cobra.Command {
	var levelName string

	cmd := &cobra.Command{
		Use:   "check <design.yaml|board.kicad_pcb> [more designs...]",
		Short: "Verify schema, geometry and mesh agree with each other",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schemas := make([]*schema.Schema, len(args))
			for i, path := range args {
				s, err := loadDesign(cmd, path)
				if err != nil {
					return err
				}
				schemas[i] = s
			}

			reports, err := check.CheckAll(cmd.Context(), sdfx.New(), schemas, check.Level(levelName))
			if err != nil {
				return err
			}

			fatal := 0
			for i, r := range reports {
				if len(reports) > 1 {
					fmt.Printf("== %s ==\n", args[i])
				}
				for _, f := range r.Findings {
					fmt.Println(f)
				}
				counts := r.Counts()
				fmt.Printf("%d pass, %d warning, %d fatal, %d skipped\n",
					counts[check.SeverityPass], counts[check.SeverityWarning],
					counts[check.SeverityFatal], counts[check.SeveritySkipped])
				fatal += counts[check.SeverityFatal]
			}
			if fatal > 0 {
				return fmt.Errorf("check failed with %d fatal finding(s)", fatal)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&levelName, "level", "l", string(check.LevelMesh),
		"deepest level to run (schema, geometry, mesh)")
	return cmd
}
