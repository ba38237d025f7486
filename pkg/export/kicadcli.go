package export

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// kicadCLI is the external tool that renders board fabrication
// outputs. Overridable for tests.
var kicadCLI = "kicad-cli"

// cliTimeout bounds each kicad-cli invocation. STEP export of a
// dense board can take a minute; anything past this is stuck.
const cliTimeout = 5 * time.Minute

// ToolError reports a failed kicad-cli run with its captured output.
type ToolError struct {
	Args   []string
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("export: kicad-cli %s: %v", strings.Join(e.Args, " "), e.Err)
	if e.Output != "" {
		msg += ": " + strings.TrimSpace(e.Output)
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// KicadCLIAvailable reports whether kicad-cli is on PATH along with
// its resolved location, for preflight diagnostics.
func KicadCLIAvailable() (string, bool) {
	path, err := exec.LookPath(kicadCLI)
	return path, err == nil
}

func runKicadCLI(ctx context.Context, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, cliTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, kicadCLI, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &ToolError{Args: args, Output: string(out), Err: err}
	}
	return nil
}

// Gerbers plots copper, mask, silk and edge layers into outDir and
// returns the produced file paths.
func Gerbers(ctx context.Context, boardPath, outDir string) ([]string, error) {
	err := runKicadCLI(ctx, "pcb", "export", "gerbers",
		"--output", outDir+string(filepath.Separator),
		boardPath)
	if err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(outDir, "*.g*"))
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return matches, nil
}

// Drill writes an Excellon drill file plus a drill map into outDir.
func Drill(ctx context.Context, boardPath, outDir string) error {
	return runKicadCLI(ctx, "pcb", "export", "drill",
		"--format", "excellon",
		"--generate-map", "--map-format", "pdf",
		"--output", outDir+string(filepath.Separator),
		boardPath)
}

// Pos writes a component placement CSV for pick-and-place.
func Pos(ctx context.Context, boardPath, outPath string) error {
	return runKicadCLI(ctx, "pcb", "export", "pos",
		"--format", "csv", "--units", "mm",
		"--output", outPath,
		boardPath)
}

// BoardStep exports the populated board as STEP for MCAD checks.
func BoardStep(ctx context.Context, boardPath, outPath string) error {
	return runKicadCLI(ctx, "pcb", "export", "step",
		"--subst-models",
		"--output", outPath,
		boardPath)
}
