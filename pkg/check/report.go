// Package check verifies the three representations of one design
// (declared schema, synthesized geometry, exported mesh) against each
// other. Findings are data, never panics: one run reports every
// problem visible at a level.
package check

import "fmt"

// Level identifies which representation a finding speaks about.
type Level string

const (
	LevelSchema   Level = "schema"
	LevelGeometry Level = "geometry"
	LevelMesh     Level = "mesh"
)

// rank orders levels; level N runs only after level N-1 had no fatal
// finding.
func (l Level) rank() int {
	switch l {
	case LevelSchema:
		return 0
	case LevelGeometry:
		return 1
	case LevelMesh:
		return 2
	default:
		return -1
	}
}

// Severity grades a finding. SeveritySkipped marks a level that could
// not run because an earlier level failed, distinguishable from a
// level that ran and passed.
type Severity string

const (
	SeverityPass    Severity = "pass"
	SeverityWarning Severity = "warning"
	SeverityFatal   Severity = "fatal"
	SeveritySkipped Severity = "skipped"
)

// Finding is one verdict from one check.
type Finding struct {
	Level    Level
	Severity Severity
	Name     string
	Message  string
	Ref      string // offending entity, e.g. a connector reference
}

func (f Finding) String() string {
	if f.Ref != "" {
		return fmt.Sprintf("[%s/%s] %s (%s): %s", f.Level, f.Severity, f.Name, f.Ref, f.Message)
	}
	if f.Message != "" {
		return fmt.Sprintf("[%s/%s] %s: %s", f.Level, f.Severity, f.Name, f.Message)
	}
	return fmt.Sprintf("[%s/%s] %s", f.Level, f.Severity, f.Name)
}

// Report is the ordered aggregation of findings from one invocation.
// Findings for level N appear only when level N-1 reported no fatal
// finding; a blocked level carries a single skipped marker instead.
type Report struct {
	Findings []Finding
}

func (r *Report) add(f ...Finding) {
	r.Findings = append(r.Findings, f...)
}

// HasFatal reports whether any finding at the given level is fatal.
func (r *Report) HasFatal(level Level) bool {
	for _, f := range r.Findings {
		if f.Level == level && f.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// LevelOutcome summarizes a level: fatal dominates warning dominates
// pass; a level represented only by its skip marker is skipped; a
// level with no findings at all did not run.
func (r *Report) LevelOutcome(level Level) Severity {
	var seen bool
	outcome := SeverityPass
	for _, f := range r.Findings {
		if f.Level != level {
			continue
		}
		seen = true
		switch f.Severity {
		case SeverityFatal:
			return SeverityFatal
		case SeveritySkipped:
			outcome = SeveritySkipped
		case SeverityWarning:
			if outcome != SeveritySkipped {
				outcome = SeverityWarning
			}
		}
	}
	if !seen {
		return ""
	}
	return outcome
}

// Counts returns the number of findings per severity.
func (r *Report) Counts() map[Severity]int {
	counts := make(map[Severity]int)
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	return counts
}
