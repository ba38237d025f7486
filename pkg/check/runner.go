package check

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/fission/pkg/kernel"
	"github.com/chazu/fission/pkg/schema"
)

// CheckAll runs Check over independent schemas concurrently. Reports
// come back in input order. Kernel evaluation dominates the work, so
// parallelism is capped to keep marching-cubes memory bounded.
func CheckAll(ctx context.Context, k kernel.Kernel, schemas []*schema.Schema, level Level) ([]*Report, error) {
	reports := make([]*Report, len(schemas))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, s := range schemas {
		g.Go(func() error {
			r, err := Check(ctx, k, s, level)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
