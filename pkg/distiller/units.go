package distiller

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/jingkaihe/distill/pkg/llm"
	"github.com/jingkaihe/distill/pkg/logger"
)

// errUnparsable marks a completion that held no usable JSON
var errUnparsable = errors.New("completion held no usable JSON")

// forEach calls fn for every item with at most limit calls in flight and
// returns the results in input order. A failed unit leaves its zero result
// and is counted. A fatal provider error stops the remaining units and is
// returned.
func forEach[T, R any](ctx context.Context, limit int, items []T, fn func(ctx context.Context, i int, item T) (R, error)) ([]R, int, error) {
	results := make([]R, len(items))
	failed := make([]bool, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, i, item)
			if err == nil {
				results[i] = r
				return nil
			}
			if llm.IsFatal(err) {
				return err
			}
			failed[i] = true
			if !errors.Is(err, errUnparsable) {
				logger.G(gctx).WithError(err).WithField("unit", i).Warn("language model call failed, skipping unit")
			}
			return nil
		})
	}
	err := g.Wait()

	count := 0
	for _, f := range failed {
		if f {
			count++
		}
	}
	return results, count, err
}
