package commands

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/fission/pkg/export"
	"github.com/chazu/fission/pkg/kernel/sdfx"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the environment can run every workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := false
			report := func(name string, ok bool, detail string) {
				status := "ok"
				if !ok {
					status = "MISSING"
					failed = true
				}
				fmt.Printf("%-24s %-8s %s\n", name, status, detail)
			}

			// Geometry kernel self-test: a unit cube must mesh to
			// a closed surface.
			k := sdfx.New()
			mesh, err := k.ToMesh(k.Box(1, 1, 1))
			var kernelOK bool
			var detail string
			if err != nil {
				detail = err.Error()
			} else {
				kernelOK = !mesh.IsEmpty() && mesh.Analyze().Watertight()
				detail = fmt.Sprintf("%d triangles from unit cube", mesh.TriangleCount())
			}
			report("geometry kernel", kernelOK, detail)

			if path, ok := export.KicadCLIAvailable(); ok {
				version := "version unknown"
				if out, err := exec.Command(path, "version").Output(); err == nil {
					version = strings.TrimSpace(string(out))
				}
				report("kicad-cli", true, path+" ("+version+")")
			} else {
				// Board exports degrade gracefully without it.
				fmt.Printf("%-24s %-8s %s\n", "kicad-cli", "absent", "board fabrication outputs will be skipped")
			}

			tmp := filepath.Join(os.TempDir(), "fission-doctor")
			writeOK := os.WriteFile(tmp, []byte("ok"), 0o644) == nil
			os.Remove(tmp)
			report("temp dir writable", writeOK, os.TempDir())

			if failed {
				return fmt.Errorf("environment is not healthy")
			}
			return nil
		},
	}
}
