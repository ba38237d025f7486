package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/fission/pkg/schema"
)

func decodeCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "decode <board.kicad_pcb>",
		Short: "Extract a design schema from a KiCad board file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadDesign(cmd, args[0])
			if err != nil {
				return err
			}
			data, err := schema.Encode(s)
			if err != nil {
				return err
			}
			if outPath == "" {
				_, err = os.Stdout.Write(data)
				return err
			}
			return os.WriteFile(outPath, data, 0o644)
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write schema YAML here instead of stdout")
	return cmd
}
