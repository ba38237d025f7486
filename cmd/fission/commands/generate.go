package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/fission/pkg/enclosure"
	"github.com/chazu/fission/pkg/export"
	"github.com/chazu/fission/pkg/kernel/sdfx"
)

func generateCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "generate <design.yaml|board.kicad_pcb>",
		Short: "Synthesize the enclosure and write STL meshes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadDesign(cmd, args[0])
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			gen, err := enclosure.NewGenerator(s)
			if err != nil {
				return err
			}
			w, l, h := gen.OuterDimensions()
			fmt.Printf("enclosure: %.1f x %.1f x %.1f mm\n", w, l, h)

			paths, err := export.Enclosure(cmd.Context(), sdfx.New(), s, outDir, logger)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Println(p)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "directory for STL files")
	return cmd
}
