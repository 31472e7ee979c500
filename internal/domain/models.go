package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/cesargomez89/genofetch/internal/constants"
)

type ResolutionStatus string

const (
	StatusResolved     ResolutionStatus = "RESOLVED"
	StatusNotFound     ResolutionStatus = "NOT_FOUND"
	StatusLookupFailed ResolutionStatus = "LOOKUP_FAILED"
)

// QueryKey identifies which of the two input names produced a lookup result.
type QueryKey string

const (
	QueryAccepted QueryKey = "Accepted name"
	QueryLegacy   QueryKey = "Legacy Name"
	QueryNone     QueryKey = ""
)

// SpeciesRequest is one row of the input species table. CellLine and Genus
// are carried through for traceability and are never queried themselves.
type SpeciesRequest struct {
	CellLine     string `json:"cell_line"`
	AcceptedName string `json:"accepted_name"`
	LegacyName   string `json:"legacy_name"`
	Genus        string `json:"genus"`
}

// GenomeRecord is one candidate assembly returned by the catalog for a
// query. Records live only for the duration of a resolution attempt.
type GenomeRecord struct {
	Accession     string `json:"accession"`
	AssemblyLevel string `json:"assembly_level"`
	Annotated     bool   `json:"annotated"`
}

// IsRefSeq reports whether the accession belongs to the curated RefSeq
// namespace rather than the submitted GenBank one.
func (r GenomeRecord) IsRefSeq() bool {
	return strings.HasPrefix(r.Accession, constants.PrefixRefSeq)
}

// Version returns the assembly version ordinal encoded in the accession
// suffix (the digits after the final dot), or 0 when absent.
func (r GenomeRecord) Version() int {
	idx := strings.LastIndex(r.Accession, ".")
	if idx < 0 || idx == len(r.Accession)-1 {
		return 0
	}
	v, err := strconv.Atoi(r.Accession[idx+1:])
	if err != nil {
		return 0
	}
	return v
}

// ResolutionRecord is the per-species outcome. Exactly one is created per
// SpeciesRequest and it is immutable once emitted by a worker.
type ResolutionRecord struct {
	CellLine      string           `json:"cell_line" db:"cell_line"`
	AcceptedName  string           `json:"accepted_name" db:"accepted_name"`
	LegacyName    string           `json:"legacy_name" db:"legacy_name"`
	Genus         string           `json:"genus" db:"genus"`
	QueryUsed     QueryKey         `json:"query_used" db:"query_used"`
	Status        ResolutionStatus `json:"status" db:"status"`
	Accession     string           `json:"accession,omitempty" db:"accession"`
	AssemblyLevel string           `json:"assembly_level,omitempty" db:"assembly_level"`
	Annotated     bool             `json:"annotated,omitempty" db:"annotated"`
	Detail        string           `json:"detail,omitempty" db:"detail"`
}

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded resolution run, kept so operators can list history
// and re-resolve only the failed subset of an earlier run.
type Run struct {
	ID         string     `json:"id" db:"id"`
	InputPath  string     `json:"input_path" db:"input_path"`
	Status     RunStatus  `json:"status" db:"status"`
	Total      int        `json:"total" db:"total"`
	Resolved   int        `json:"resolved" db:"resolved"`
	NotFound   int        `json:"not_found" db:"not_found"`
	Failed     int        `json:"failed" db:"failed"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}
