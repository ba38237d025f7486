package enclosure

import (
	"context"
	"time"

	"github.com/chazu/fission/pkg/kernel"
)

// DefaultBuildTimeout is the hard limit for a single synthesis.
// Boolean chains over many cuts can run long on complex boards.
const DefaultBuildTimeout = 30 * time.Second

type buildResult struct {
	solid kernel.Solid
	err   error
}

// BuildWithTimeout runs Build under a deadline. On timeout the result
// is a retryable SynthesisError; the worker goroutine notices the
// cancelled context at its next kernel-call boundary and discards its
// partial result, which is safe because nothing is shared.
func (g *Generator) BuildWithTimeout(ctx context.Context, k kernel.Kernel, timeout time.Duration) (kernel.Solid, error) {
	if timeout <= 0 {
		timeout = DefaultBuildTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan buildResult, 1)
	go func() {
		solid, err := g.Build(ctx, k)
		ch <- buildResult{solid: solid, err: err}
	}()

	select {
	case res := <-ch:
		return res.solid, res.err
	case <-ctx.Done():
		return nil, &SynthesisError{
			Op:        "build",
			Msg:       "kernel did not complete within " + timeout.String(),
			Retryable: true,
			Err:       ctx.Err(),
		}
	}
}
