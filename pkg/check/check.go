package check

import (
	"context"
	"fmt"

	"github.com/chazu/fission/pkg/kernel"
	"github.com/chazu/fission/pkg/schema"
)

// Check runs every level up to and including the requested one.
// Levels are strictly ordered: a fatal finding at level N blocks
// levels above it, which appear in the report as skipped markers
// rather than silently missing. The error return is reserved for
// misuse; design problems are findings.
func Check(ctx context.Context, k kernel.Kernel, s *schema.Schema, level Level) (*Report, error) {
	if level.rank() < 0 {
		return nil, fmt.Errorf("check: unknown level %q", level)
	}

	r := &Report{}
	r.add(schemaLevel(s)...)
	if level.rank() < LevelGeometry.rank() {
		return r, nil
	}

	if r.HasFatal(LevelSchema) {
		r.add(skipMarker(LevelGeometry, "schema level reported fatal findings"))
		if level.rank() >= LevelMesh.rank() {
			r.add(skipMarker(LevelMesh, "geometry level was skipped"))
		}
		return r, nil
	}

	gen, findings := geometryLevel(ctx, k, s)
	r.add(findings...)
	if level.rank() < LevelMesh.rank() {
		return r, nil
	}

	if r.HasFatal(LevelGeometry) {
		r.add(skipMarker(LevelMesh, "geometry level reported fatal findings"))
		return r, nil
	}

	r.add(meshLevel(ctx, k, s, gen)...)
	return r, nil
}

func skipMarker(level Level, reason string) Finding {
	return Finding{
		Level:    level,
		Severity: SeveritySkipped,
		Name:     string(level) + " level",
		Message:  reason,
	}
}
