package resolver

import (
	"context"

	"golang.org/x/sync/errgroup"

	"econcli/pkg/contracts/domain"
)

// BatchItem is the outcome of one ticker in a batch resolution.
type BatchItem struct {
	Ticker string
	Series *domain.Series
	Err    error
}

// ResolveMany fans a batch of tickers out across the worker pool and
// joins on completion. Results keep the order of the request; a failed
// ticker carries its error without aborting the rest of the batch.
func (r *Resolver) ResolveMany(ctx context.Context, tickers []string, dateSpec string) []BatchItem {
	results := make([]BatchItem, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			series, err := r.Resolve(gctx, ticker, dateSpec)
			results[i] = BatchItem{Ticker: ticker, Series: series, Err: err}
			return nil
		})
	}

	// Workers never return errors; Wait only joins them.
	_ = g.Wait()
	return results
}
