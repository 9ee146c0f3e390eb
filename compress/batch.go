package compress

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/stat7-io/stat7/bitchain"
	"github.com/stat7-io/stat7/resource"
)

// ItemResult is the per-entity outcome of a batch compression run. A failed
// item carries whatever partial chain was produced plus the failure.
type ItemResult struct {
	Index    int
	EntityID string
	Chain    Chain
	Err      error
}

// BatchOptions configures CompressBatch.
type BatchOptions struct {
	// Parallelism bounds concurrent pipelines. If 0, defaults to 4.
	// Ignored when Controller is set; the controller's worker bound wins.
	Parallelism int

	// Controller, when set, gates workers through the shared resource
	// controller instead of a batch-local limit.
	Controller *resource.Controller
}

// CompressBatch runs independent pipelines over the entities in parallel.
//
// Per-item failures are isolated: one bad entity never aborts the batch, and
// the caller receives a success/failure report per item in input order.
// Cancel ctx to stop early; items not yet started report the context error.
func (p *Pipeline) CompressBatch(ctx context.Context, entities []*bitchain.BitChain, optFns ...func(o *BatchOptions)) []ItemResult {
	opts := BatchOptions{Parallelism: 4}
	for _, fn := range optFns {
		fn(&opts)
	}

	results := make([]ItemResult, len(entities))

	g, gctx := errgroup.WithContext(ctx)
	if opts.Controller != nil {
		g.SetLimit(opts.Controller.MaxWorkers())
	} else {
		if opts.Parallelism <= 0 {
			opts.Parallelism = 4
		}
		g.SetLimit(opts.Parallelism)
	}

	for i, bc := range entities {
		results[i].Index = i
		if bc != nil {
			results[i].EntityID = bc.ID
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil // isolation: never fail the group
			}
			if opts.Controller != nil {
				if err := opts.Controller.AcquireWorker(gctx); err != nil {
					results[i].Err = err
					return nil
				}
				defer opts.Controller.ReleaseWorker()
			}
			chain, err := p.Compress(gctx, bc)
			results[i].Chain = chain
			results[i].Err = err
			return nil
		})
	}

	_ = g.Wait()
	return results
}
