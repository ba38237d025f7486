// Package commands wires the fission CLI: decode a board file into a
// design schema, synthesize an enclosure, check consistency across
// representations, and export fabrication outputs.
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazu/fission/pkg/kicad"
	"github.com/chazu/fission/pkg/schema"
)

var (
	configPath string
	verbose    bool
	logger     *zap.Logger

	flagWall      float64
	flagClearance float64
	flagMaterial  string
	flagSplit     string
)

func Execute() error {
	root := &cobra.Command{
		Use:           "fission",
		Short:         "PCB enclosure synthesis and consistency checking",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if verbose {
				logger, err = zap.NewDevelopment()
			} else {
				cfg := zap.NewProductionConfig()
				cfg.Encoding = "console"
				cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
				logger, err = cfg.Build()
			}
			if err != nil {
				return err
			}
			return loadConfig(configPath)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./fission.toml when present)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().Float64Var(&flagWall, "wall", 0, "override wall thickness (mm)")
	root.PersistentFlags().Float64Var(&flagClearance, "clearance", 0, "override board clearance (mm)")
	root.PersistentFlags().StringVar(&flagMaterial, "material", "", "override material")
	root.PersistentFlags().StringVar(&flagSplit, "split", "", "override split mode (horizontal, vertical, none)")

	root.AddCommand(decodeCmd(), checkCmd(), generateCmd(), exportCmd(), doctorCmd())
	return root.Execute()
}

// overrides merges config-file enclosure settings with command-line
// flags; flags win. The result feeds schema.Patch.
func overrides(cmd *cobra.Command) map[string]any {
	o := configOverrides()
	if cmd.Flags().Changed("wall") {
		o["wall_thickness"] = flagWall
	}
	if cmd.Flags().Changed("clearance") {
		o["clearance"] = flagClearance
	}
	if flagMaterial != "" {
		o["material"] = flagMaterial
	}
	if flagSplit != "" {
		o["split"] = flagSplit
	}
	return o
}

// loadDesign reads a design from either a schema YAML file or a
// .kicad_pcb board file, then applies any configured overrides.
func loadDesign(cmd *cobra.Command, path string) (*schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s *schema.Schema
	if isBoardFile(path) {
		project := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		var warnings []kicad.Warning
		s, warnings, err = kicad.Decode(string(data), project)
		for _, w := range warnings {
			logger.Warn("board decode", zap.String("ref", w.Ref), zap.String("detail", w.Msg))
		}
	} else {
		s, err = schema.Decode(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if o := overrides(cmd); len(o) > 0 {
		s, err = schema.Patch(s, o)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func isBoardFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".kicad_pcb")
}
