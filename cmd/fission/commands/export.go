package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/fission/pkg/export"
	"github.com/chazu/fission/pkg/kernel/sdfx"
)

func exportCmd() *cobra.Command {
	var (
		outDir    string
		boardPath string
		skipBoard bool
		skipMesh  bool
	)

	cmd := &cobra.Command{
		Use:   "export <design.yaml|board.kicad_pcb>",
		Short: "Produce the full fabrication bundle",
		Long: `Writes the schema snapshot, enclosure STL meshes, and board
fabrication outputs (gerbers, drill, placement, STEP) into one
directory. Board outputs need kicad-cli on PATH and are skipped
otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadDesign(cmd, args[0])
			if err != nil {
				return err
			}

			opts := export.Options{
				BoardPath: boardPath,
				SkipBoard: skipBoard,
				SkipMesh:  skipMesh,
			}
			if opts.BoardPath == "" {
				opts.BoardPath = config.Export.Board
			}
			if opts.BoardPath == "" && isBoardFile(args[0]) {
				opts.BoardPath = args[0]
			}
			if outDir == "" {
				outDir = config.Export.OutDir
			}
			if outDir == "" {
				outDir = "dist"
			}

			res, err := export.Full(cmd.Context(), sdfx.New(), s, opts, outDir, logger)
			if err != nil {
				return err
			}

			fmt.Println(res.SchemaPath)
			for _, p := range res.STLPaths {
				fmt.Println(p)
			}
			if res.GerberDir != "" {
				fmt.Println(res.GerberDir)
			}
			if res.PosPath != "" {
				fmt.Println(res.PosPath)
			}
			if res.StepPath != "" {
				fmt.Println(res.StepPath)
			}
			for _, s := range res.Skipped {
				fmt.Println("skipped", s)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", "", "output directory (default dist)")
	cmd.Flags().StringVar(&boardPath, "board", "", "board file for fabrication outputs")
	cmd.Flags().BoolVar(&skipBoard, "skip-board", false, "skip gerber/drill/placement/STEP outputs")
	cmd.Flags().BoolVar(&skipMesh, "skip-mesh", false, "skip enclosure STL output")
	return cmd
}
