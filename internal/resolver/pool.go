package resolver

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/cesargomez89/genofetch/internal/domain"
	"github.com/cesargomez89/genofetch/internal/logger"
	"github.com/cesargomez89/genofetch/internal/ncbi"
)

// Pool fans a species list out across a bounded number of workers sharing
// one lookup client (and through it, one rate limiter).
type Pool struct {
	worker  *Worker
	log     *logger.Logger
	workers int
}

func NewPool(client ncbi.LookupClient, workers int, log *logger.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.Default()
	}
	return &Pool{
		worker:  NewWorker(client, log),
		log:     log.WithComponent("pool"),
		workers: workers,
	}
}

// Run resolves every request and returns records indexed by input position,
// so ledger order always matches input order no matter when each lookup
// completes. A cancelled context stops dispatching, lets in-flight lookups
// wind down, and returns the context error so no partial ledger is written.
func (p *Pool) Run(ctx context.Context, requests []domain.SpeciesRequest) ([]domain.ResolutionRecord, error) {
	records := make([]domain.ResolutionRecord, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	p.log.Info("Dispatching species", "count", len(requests), "workers", p.workers)

	for i, req := range requests {
		if err := gctx.Err(); err != nil {
			break
		}
		i, req := i, req
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records[i] = p.worker.Resolve(gctx, req)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolution run interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolution run interrupted: %w", err)
	}

	return records, nil
}
