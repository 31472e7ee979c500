package resolver

import (
	"errors"
	"testing"

	"github.com/cesargomez89/genofetch/internal/domain"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		name          string
		records       []domain.GenomeRecord
		wantAccession string
	}{
		{
			name: "refseq preferred over genbank",
			records: []domain.GenomeRecord{
				{Accession: "GCA_000001405.29"},
				{Accession: "GCF_000001405.26"},
			},
			wantAccession: "GCF_000001405.26",
		},
		{
			name: "refseq preferred regardless of input ordering",
			records: []domain.GenomeRecord{
				{Accession: "GCF_000001405.26"},
				{Accession: "GCA_000001405.29"},
			},
			wantAccession: "GCF_000001405.26",
		},
		{
			name: "higher version wins within namespace",
			records: []domain.GenomeRecord{
				{Accession: "GCF_000001735.3"},
				{Accession: "GCF_000001735.4"},
			},
			wantAccession: "GCF_000001735.4",
		},
		{
			name: "version ties break to smallest accession",
			records: []domain.GenomeRecord{
				{Accession: "GCF_900002335.2"},
				{Accession: "GCF_000146045.2"},
			},
			wantAccession: "GCF_000146045.2",
		},
		{
			name: "single candidate",
			records: []domain.GenomeRecord{
				{Accession: "GCA_014905175.1"},
			},
			wantAccession: "GCA_014905175.1",
		},
		{
			name: "genbank higher version still loses to refseq",
			records: []domain.GenomeRecord{
				{Accession: "GCA_000002985.99"},
				{Accession: "GCF_000002985.6"},
			},
			wantAccession: "GCF_000002985.6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Select(tt.records)
			if err != nil {
				t.Fatalf("Select failed: %v", err)
			}
			if got.Accession != tt.wantAccession {
				t.Errorf("Expected accession %s, got %s", tt.wantAccession, got.Accession)
			}
		})
	}
}

func TestSelectEmptyIsInvariantError(t *testing.T) {
	_, err := Select(nil)
	if !errors.Is(err, ErrNoCandidates) {
		t.Errorf("Expected ErrNoCandidates, got %v", err)
	}
}

func TestSelectDeterministic(t *testing.T) {
	records := []domain.GenomeRecord{
		{Accession: "GCA_000001405.29"},
		{Accession: "GCF_000001405.25"},
		{Accession: "GCF_000001405.26"},
		{Accession: "GCA_009914755.4"},
	}

	first, err := Select(records)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	// Rotate the input and re-select; the choice must never change.
	for i := 0; i < len(records); i++ {
		rotated := make([]domain.GenomeRecord, 0, len(records))
		rotated = append(rotated, records[i:]...)
		rotated = append(rotated, records[:i]...)
		got, err := Select(rotated)
		if err != nil {
			t.Fatalf("Select failed on rotation %d: %v", i, err)
		}
		if got.Accession != first.Accession {
			t.Errorf("Rotation %d: expected %s, got %s", i, first.Accession, got.Accession)
		}
	}
}

func TestSelectDoesNotMutateInput(t *testing.T) {
	records := []domain.GenomeRecord{
		{Accession: "GCA_000001405.29"},
		{Accession: "GCF_000001405.26"},
	}

	if _, err := Select(records); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if records[0].Accession != "GCA_000001405.29" {
		t.Errorf("Select reordered the caller's slice")
	}
}
