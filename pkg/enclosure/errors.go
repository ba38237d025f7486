package enclosure

import "fmt"

// SynthesisError reports a failed or refused geometry computation.
// Retryable marks kernel timeouts and transient resource exhaustion:
// the same input may succeed on a retry. Dimension violations are
// never retryable.
type SynthesisError struct {
	Op        string
	Msg       string
	Retryable bool
	Err       error
}

func (e *SynthesisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("synthesis %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("synthesis %s: %s", e.Op, e.Msg)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// MeshError reports degenerate tessellation output.
type MeshError struct {
	Part string
	Msg  string
}

func (e *MeshError) Error() string {
	return fmt.Sprintf("mesh %s: %s", e.Part, e.Msg)
}
