package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

const defaultConfigName = "fission.toml"

// fileConfig mirrors fission.toml. Pointer fields distinguish "not
// set" from a zero value, so the file only overrides what it names.
type fileConfig struct {
	Enclosure struct {
		WallThickness *float64 `toml:"wall_thickness"`
		Clearance     *float64 `toml:"clearance"`
		Material      *string  `toml:"material"`
		Split         *string  `toml:"split"`
	} `toml:"enclosure"`

	Export struct {
		OutDir string `toml:"out_dir"`
		Board  string `toml:"board"`
	} `toml:"export"`
}

var config fileConfig

// loadConfig reads the config file. A missing default file is fine;
// a missing explicit --config file is an error.
func loadConfig(path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultConfigName
	}

	meta, err := toml.DecodeFile(path, &config)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		fmt.Fprintf(os.Stderr, "warning: unknown config keys in %s: %v\n", path, undecoded)
	}
	return nil
}

func configOverrides() map[string]any {
	o := make(map[string]any)
	e := config.Enclosure
	if e.WallThickness != nil {
		o["wall_thickness"] = *e.WallThickness
	}
	if e.Clearance != nil {
		o["clearance"] = *e.Clearance
	}
	if e.Material != nil {
		o["material"] = *e.Material
	}
	if e.Split != nil {
		o["split"] = *e.Split
	}
	return o
}
