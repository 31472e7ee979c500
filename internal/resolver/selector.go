package resolver

import (
	"errors"
	"sort"

	"github.com/cesargomez89/genofetch/internal/domain"
)

// ErrNoCandidates signals a contract violation between the lookup client and
// the selector: a Found outcome must never carry zero records.
var ErrNoCandidates = errors.New("selector: candidate list is empty")

// Select picks exactly one record under a deterministic total order: RefSeq
// accessions beat GenBank ones, higher assembly versions beat lower ones,
// and remaining ties go to the lexicographically smallest accession.
// Identical inputs always yield the identical choice regardless of input
// ordering.
func Select(records []domain.GenomeRecord) (domain.GenomeRecord, error) {
	if len(records) == 0 {
		return domain.GenomeRecord{}, ErrNoCandidates
	}

	ranked := make([]domain.GenomeRecord, len(records))
	copy(ranked, records)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.IsRefSeq() != b.IsRefSeq() {
			return a.IsRefSeq()
		}
		if a.Version() != b.Version() {
			return a.Version() > b.Version()
		}
		return a.Accession < b.Accession
	})

	return ranked[0], nil
}
