package resolver

import (
	"context"

	"github.com/cesargomez89/genofetch/internal/domain"
	"github.com/cesargomez89/genofetch/internal/logger"
	"github.com/cesargomez89/genofetch/internal/ncbi"
)

// Worker resolves a single species request to a resolution record. It is
// stateless apart from its collaborators and safe for concurrent use.
type Worker struct {
	client ncbi.LookupClient
	log    *logger.Logger
}

func NewWorker(client ncbi.LookupClient, log *logger.Logger) *Worker {
	if log == nil {
		log = logger.Default()
	}
	return &Worker{
		client: client,
		log:    log.WithComponent("resolver"),
	}
}

// Resolve tries the accepted name first and falls back to the legacy name
// only when the catalog confirms zero matches. A lookup failure on either
// name produces LOOKUP_FAILED immediately: the failure is about service
// availability, not species identity, and falling back would mask it while
// doubling the quota cost during an outage.
func (w *Worker) Resolve(ctx context.Context, req domain.SpeciesRequest) domain.ResolutionRecord {
	rec := domain.ResolutionRecord{
		CellLine:     req.CellLine,
		AcceptedName: req.AcceptedName,
		LegacyName:   req.LegacyName,
		Genus:        req.Genus,
		QueryUsed:    domain.QueryNone,
	}

	log := w.log.WithSpecies(req.CellLine, req.AcceptedName)

	records, err := w.client.Lookup(ctx, req.AcceptedName)
	if err != nil {
		log.Warn("Lookup failed", "query", "accepted", "error", err)
		rec.Status = domain.StatusLookupFailed
		rec.Detail = err.Error()
		return rec
	}

	query := domain.QueryAccepted
	if len(records) == 0 && w.hasDistinctLegacyName(req) {
		log.Debug("No match for accepted name, trying legacy name", "legacy_name", req.LegacyName)
		records, err = w.client.Lookup(ctx, req.LegacyName)
		if err != nil {
			log.Warn("Lookup failed", "query", "legacy", "error", err)
			rec.Status = domain.StatusLookupFailed
			rec.Detail = err.Error()
			return rec
		}
		query = domain.QueryLegacy
	}

	if len(records) == 0 {
		rec.Status = domain.StatusNotFound
		return rec
	}

	chosen, err := Select(records)
	if err != nil {
		// Found outcomes always carry records; reaching this is a bug.
		log.Error("Selector rejected candidate list", "error", err)
		rec.Status = domain.StatusLookupFailed
		rec.Detail = err.Error()
		return rec
	}

	rec.Status = domain.StatusResolved
	rec.QueryUsed = query
	rec.Accession = chosen.Accession
	rec.AssemblyLevel = chosen.AssemblyLevel
	rec.Annotated = chosen.Annotated
	log.Info("Species resolved", "accession", chosen.Accession, "query_used", string(query))
	return rec
}

func (w *Worker) hasDistinctLegacyName(req domain.SpeciesRequest) bool {
	return req.LegacyName != "" && req.LegacyName != req.AcceptedName
}
